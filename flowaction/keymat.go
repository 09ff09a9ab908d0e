// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package flowaction

import (
	"crypto"
	_ "crypto/sha256"
	"fmt"

	"github.com/canonical/go-ibverbs/internal"
)

const (
	aesGCMSaltSize = 4
	aesGCMICVSize  = 16
)

// DeriveAESGCMKeymat derives AES-GCM key material for an ESP flow action
// from secret, using the SP800-108 counter mode KDF with HMAC-SHA256. The
// key is followed by a 4-byte salt in the KDF output. The keyBits argument
// must be 128, 192 or 256.
//
// The returned key material uses IVAlgoSeq with an initial IV of zero and a
// 16-byte ICV.
func DeriveAESGCMKeymat(secret, label, context []byte, keyBits int) (*AESGCMKeymat, error) {
	switch keyBits {
	case 128, 192, 256:
	default:
		return nil, fmt.Errorf("invalid key size %d", keyBits)
	}

	keyLen := keyBits / 8
	material := internal.KDF(crypto.SHA256, secret, label, context, (keyLen+aesGCMSaltSize)*8)

	keymat := &AESGCMKeymat{
		IVAlgo: IVAlgoSeq,
		Salt:   hostEndian.Uint32(material[keyLen:]),
		ICVLen: aesGCMICVSize,
		KeyLen: uint32(keyLen)}
	for i := 0; i < keyLen/4; i++ {
		keymat.AESKey[i] = hostEndian.Uint32(material[i*4:])
	}
	return keymat, nil
}

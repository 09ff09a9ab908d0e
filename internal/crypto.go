// Copyright 2019 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package internal

import (
	"crypto"

	"github.com/canonical/go-sp800.108-kdf"
)

// KDF derives sizeInBits bits of key material from key using the SP800-108
// counter mode KDF with HMAC as the PRF.
func KDF(hashAlg crypto.Hash, key, label, context []byte, sizeInBits int) []byte {
	return kdf.CounterModeKey(kdf.NewHMACPRF(hashAlg), key, label, context, uint32(sizeInBits))
}

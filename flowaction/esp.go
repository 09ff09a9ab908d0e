// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package flowaction

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/canonical/go-ibverbs"
)

// Attribute IDs for ibverbs.MethodFlowActionESPCreate and
// ibverbs.MethodFlowActionESPModify.
const (
	ESPHandle ibverbs.AttrID = iota
	ESPAttrs
	ESPESN
	ESPKeymat
	ESPReplay
	ESPEncap
)

// Attribute IDs for ibverbs.MethodFlowActionDestroy.
const (
	DestroyHandle ibverbs.AttrID = iota
)

// ESPFlags corresponds to the flags field of the ESP attributes.
type ESPFlags uint32

const (
	ESPFlagFullOffload  ESPFlags = 1 << 0 // Inline crypto if not set
	ESPFlagTransport    ESPFlags = 1 << 1 // Tunnel mode if not set
	ESPFlagEncrypt      ESPFlags = 1 << 2 // Decrypt if not set
	ESPFlagESNNewWindow ESPFlags = 1 << 3
)

// ESPMaskESN indicates that ESPAttr.ESN is valid.
const ESPMaskESN uint32 = 1 << 0

// KeymatProtocol identifies the type of key material.
type KeymatProtocol uint8

const (
	KeymatAESGCM KeymatProtocol = 0
)

// IVAlgoSeq indicates that the IV is derived from the sequence number.
const IVAlgoSeq uint32 = 0

// ReplayProtocol identifies the type of anti-replay protection.
type ReplayProtocol uint8

const (
	ReplayNone ReplayProtocol = 0
	ReplayBMP  ReplayProtocol = 1
)

var hostEndian = binary.NativeEndian

// ESP contains the core parameters of an ESP flow action.
type ESP struct {
	SPI           uint32
	Seq           uint32
	TFCPad        uint32
	Flags         ESPFlags
	HardLimitPkts uint64
}

// AESGCMKeymat is AES-GCM key material for an ESP flow action.
type AESGCMKeymat struct {
	IV     uint64
	IVAlgo uint32
	Salt   uint32
	ICVLen uint32
	KeyLen uint32    // Length of the key in bytes
	AESKey [8]uint32 // Key, packed into 32-bit words in host order
}

// Replay describes the anti-replay protection of an ESP flow action.
type Replay struct {
	Protocol ReplayProtocol
	Size     uint32 // Window size, for ReplayBMP
}

// Encap describes a single header that is pushed by an ESP flow action. The
// headers are chained with Next.
type Encap struct {
	Type  uint16 // The flow spec type of Mask and Value
	Mask  []byte // Flow spec filter mask
	Value []byte // Flow spec filter value, the same length as Mask
	Next  *Encap
}

// ESPAttr contains the attributes of an ESP flow action. Nil fields are
// omitted from the command.
type ESPAttr struct {
	ESP      *ESP
	CompMask uint32
	ESN      uint32 // Initial extended sequence number, valid if CompMask contains ESPMaskESN
	Keymat   *AESGCMKeymat
	Replay   *Replay
	Encap    *Encap
}

type espEncapWire struct {
	MaskPtr uint64
	ValPtr  uint64
	NextPtr uint64
	Len     uint16
	Type    uint16
	_       [4]byte
}

func marshal(v interface{}) []byte {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, hostEndian, v); err != nil {
		panic(fmt.Sprintf("cannot marshal %T: %v", v, err))
	}
	return buf.Bytes()
}

// marshalEncap serializes the chain of headers starting at e. The buffers
// of every header after the first and all of the filters are registered
// with b so that they remain valid for the duration of the command.
func marshalEncap(b *ibverbs.CommandBuffer, e *Encap) ([]byte, error) {
	if len(e.Mask) != len(e.Value) {
		return nil, errors.New("mask and value have different lengths")
	}
	if len(e.Mask) > ibverbs.MaxAttrLen {
		return nil, errors.New("filter too large")
	}

	w := espEncapWire{
		MaskPtr: b.Reference(e.Mask),
		ValPtr:  b.Reference(e.Value),
		Len:     uint16(len(e.Mask)),
		Type:    e.Type}
	if e.Next != nil {
		next, err := marshalEncap(b, e.Next)
		if err != nil {
			return nil, err
		}
		w.NextPtr = b.Reference(next)
	}
	return marshal(&w), nil
}

func fillESPAttrs(b *ibverbs.CommandBuffer, attr *ESPAttr) error {
	if attr.ESP != nil {
		b.FillIn(ESPAttrs, marshal(attr.ESP))
	}
	if attr.CompMask&ESPMaskESN != 0 {
		b.FillUint32(ESPESN, attr.ESN)
	}
	if attr.Keymat != nil {
		b.FillInEnum(ESPKeymat, uint8(KeymatAESGCM), marshal(attr.Keymat))
	}
	if attr.Replay != nil {
		var data []byte
		if attr.Replay.Protocol == ReplayBMP {
			data = marshal(attr.Replay.Size)
		}
		b.FillInEnum(ESPReplay, uint8(attr.Replay.Protocol), data)
	}
	if attr.Encap != nil {
		encap, err := marshalEncap(b, attr.Encap)
		if err != nil {
			return err
		}
		b.FillIn(ESPEncap, encap)
	}
	return nil
}

// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	ioctlHeaderSize = 24
	wireAttrSize    = 16
)

var hostEndian = binary.NativeEndian

// IoctlHeader corresponds to the ib_uverbs_ioctl_hdr structure that
// prefixes every command submitted with RDMAVerbsIoctl.
type IoctlHeader struct {
	Length    uint16 // Length of the header and attribute array in bytes
	ObjectID  ObjectID
	MethodID  MethodID
	NumAttrs  uint16
	Reserved1 uint64
	DriverID  DriverID
	Reserved2 uint32
}

func (h *IoctlHeader) marshal(b []byte) {
	hostEndian.PutUint16(b[0:], h.Length)
	hostEndian.PutUint16(b[2:], uint16(h.ObjectID))
	hostEndian.PutUint16(b[4:], uint16(h.MethodID))
	hostEndian.PutUint16(b[6:], h.NumAttrs)
	hostEndian.PutUint64(b[8:], h.Reserved1)
	hostEndian.PutUint32(b[16:], uint32(h.DriverID))
	hostEndian.PutUint32(b[20:], h.Reserved2)
}

func (h *IoctlHeader) unmarshal(b []byte) {
	h.Length = hostEndian.Uint16(b[0:])
	h.ObjectID = ObjectID(hostEndian.Uint16(b[2:]))
	h.MethodID = MethodID(hostEndian.Uint16(b[4:]))
	h.NumAttrs = hostEndian.Uint16(b[6:])
	h.Reserved1 = hostEndian.Uint64(b[8:])
	h.DriverID = DriverID(hostEndian.Uint32(b[16:]))
	h.Reserved2 = hostEndian.Uint32(b[20:])
}

// WireAttr corresponds to the ib_uverbs_attr structure. Data either holds
// an inline value or the address of a buffer, depending on the attribute
// type and length.
type WireAttr struct {
	AttrID   AttrID
	Len      uint16
	Flags    AttrFlags
	ElemID   uint8
	Reserved uint8
	Data     uint64
}

func (a *WireAttr) marshal(b []byte) {
	hostEndian.PutUint16(b[0:], uint16(a.AttrID))
	hostEndian.PutUint16(b[2:], a.Len)
	hostEndian.PutUint16(b[4:], uint16(a.Flags))
	b[6] = a.ElemID
	b[7] = a.Reserved
	hostEndian.PutUint64(b[8:], a.Data)
}

func (a *WireAttr) unmarshal(b []byte) {
	a.AttrID = AttrID(hostEndian.Uint16(b[0:]))
	a.Len = hostEndian.Uint16(b[2:])
	a.Flags = AttrFlags(hostEndian.Uint16(b[4:]))
	a.ElemID = b[6]
	a.Reserved = b[7]
	a.Data = hostEndian.Uint64(b[8:])
}

// InlineBytes returns the first Len bytes of the data slot, for attributes
// that carry their payload inline.
func (a *WireAttr) InlineBytes() []byte {
	var data [8]byte
	hostEndian.PutUint64(data[:], a.Data)
	n := int(a.Len)
	if n > len(data) {
		n = len(data)
	}
	return data[:n]
}

// RequestPacket is a complete serialized command, consisting of an
// IoctlHeader followed by a densely packed array of attributes.
type RequestPacket []byte

// Unmarshal decodes this packet, returning the header and the attribute
// array. The header's length field must match the packet length exactly
// and the number of attributes must be consistent with it.
func (p RequestPacket) Unmarshal() (hdr *IoctlHeader, attrs []WireAttr, err error) {
	if len(p) < ioctlHeaderSize {
		return nil, nil, fmt.Errorf("insufficient bytes for header (got %d, expected %d)", len(p), ioctlHeaderSize)
	}

	hdr = new(IoctlHeader)
	hdr.unmarshal(p)

	if int(hdr.Length) != len(p) {
		return nil, nil, fmt.Errorf("invalid length value (got %d, packet length %d)", hdr.Length, len(p))
	}
	if expected := ioctlHeaderSize + int(hdr.NumAttrs)*wireAttrSize; expected != len(p) {
		return nil, nil, fmt.Errorf("invalid num_attrs value %d for packet length %d", hdr.NumAttrs, len(p))
	}

	attrs = make([]WireAttr, hdr.NumAttrs)
	for i := range attrs {
		attrs[i].unmarshal(p[ioctlHeaderSize+i*wireAttrSize:])
	}
	return hdr, attrs, nil
}

// ParseRequest decodes a serialized command. See RequestPacket.Unmarshal.
func ParseRequest(b []byte) (*IoctlHeader, []WireAttr, error) {
	return RequestPacket(b).Unmarshal()
}

// MarshalRequestPacket serializes a complete command from the supplied header
// and attributes. The Length and NumAttrs fields of the header are computed
// from the attributes.
func MarshalRequestPacket(hdr *IoctlHeader, attrs []WireAttr) RequestPacket {
	size := ioctlHeaderSize + len(attrs)*wireAttrSize
	if size > math.MaxUint16 {
		panic(fmt.Sprintf("packet too large (%d bytes)", size))
	}

	h := *hdr
	h.NumAttrs = uint16(len(attrs))
	h.Length = uint16(size)

	p := make(RequestPacket, size)
	h.marshal(p)
	for i := range attrs {
		attrs[i].marshal(p[ioctlHeaderSize+i*wireAttrSize:])
	}
	return p
}

// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs

import "github.com/canonical/go-ibverbs/internal/uaccess"

type payloadKind uint8

const (
	// payloadInline indicates that the payload lives in the attribute's
	// 8-byte data slot.
	payloadInline payloadKind = iota

	// payloadIndirect indicates that the data slot carries the address of
	// a caller owned buffer.
	payloadIndirect
)

// Attr is a single attribute of a command. Attributes are created by the
// Fill methods of CommandBuffer and are owned by the buffer that created
// them. An attribute that references a caller supplied buffer never owns
// that buffer.
type Attr struct {
	ID     AttrID
	Flags  AttrFlags
	Len    uint16 // Length of the payload. Zero for object and descriptor attributes
	ElemID uint8  // Variant selector for enum attributes

	kind   payloadKind
	inline [8]byte
	ref    []byte
}

// Optional clears the mandatory flag on this attribute, permitting a kernel
// that doesn't recognize it to ignore it. It returns the attribute so that
// it can wrap any of the Fill methods.
func (a *Attr) Optional() *Attr {
	a.Flags &^= AttrFlagMandatory
	return a
}

// IsMandatory indicates whether the kernel must reject the command if it
// doesn't recognize this attribute.
func (a *Attr) IsMandatory() bool {
	return a.Flags&AttrFlagMandatory != 0
}

// IsValidOutput indicates whether the kernel wrote to this attribute during
// the last successful execution. An optional output that this returns false
// for must not be read.
func (a *Attr) IsValidOutput() bool {
	return a.Flags&AttrFlagValidOutput != 0
}

// IsIndirect indicates whether the payload of this attribute is passed by
// reference rather than inline.
func (a *Attr) IsIndirect() bool {
	return a.kind == payloadIndirect
}

// Uint64 returns the contents of the inline data slot. For object
// attributes, this is the object handle, which for output objects is
// populated by the kernel. It panics for indirect attributes.
func (a *Attr) Uint64() uint64 {
	if a.kind != payloadInline {
		panic("attribute payload is not inline")
	}
	return hostEndian.Uint64(a.inline[:])
}

// Uint32 returns the first 4 bytes of the inline data slot, as appended by
// CommandBuffer.FillUint32. It panics for indirect attributes.
func (a *Attr) Uint32() uint32 {
	if a.kind != payloadInline {
		panic("attribute payload is not inline")
	}
	return hostEndian.Uint32(a.inline[:4])
}

// Handle returns the object handle carried by an object attribute.
func (a *Attr) Handle() uint32 {
	return uint32(a.Uint64())
}

// Bytes returns the payload of this attribute. For inline attributes this
// is a copy of the first Len bytes of the data slot. For indirect
// attributes this is the referenced buffer itself.
func (a *Attr) Bytes() []byte {
	switch a.kind {
	case payloadIndirect:
		return a.ref
	default:
		out := make([]byte, a.Len)
		copy(out, a.inline[:])
		return out
	}
}

// wire returns the representation of this attribute in the command.
func (a *Attr) wire() WireAttr {
	w := WireAttr{
		AttrID: a.ID,
		Len:    a.Len,
		Flags:  a.Flags,
		ElemID: a.ElemID}
	switch a.kind {
	case payloadIndirect:
		w.Data = uaccess.Address(a.ref)
	default:
		w.Data = hostEndian.Uint64(a.inline[:])
	}
	return w
}

// update applies the kernel's view of this attribute after a successful
// execution.
func (a *Attr) update(w *WireAttr) {
	a.Flags = w.Flags
	if a.kind == payloadInline {
		hostEndian.PutUint64(a.inline[:], w.Data)
	}
}

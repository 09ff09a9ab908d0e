// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs

import (
	"fmt"
	"runtime"

	"github.com/canonical/go-ibverbs/internal/uaccess"
)

// CommandBuffer accumulates the attributes of a single command. It is
// created with a fixed capacity immediately before a command, populated with
// the Fill methods, consumed by exactly one call to Context.Execute or
// Context.ExecuteLegacy and then discarded.
//
// Exceeding the capacity of a buffer is a programming error and results in
// a panic with a *CapacityExceededError value.
//
// A CommandBuffer is not safe for use from multiple goroutines.
type CommandBuffer struct {
	objectID ObjectID
	methodID MethodID
	attrs    []*Attr
	refs     [][]byte
}

// NewCommandBuffer returns a new empty command buffer for the specified
// object and method, with space for numAttrs attributes.
func NewCommandBuffer(object ObjectID, method MethodID, numAttrs int) *CommandBuffer {
	if numAttrs < 0 {
		panic("negative number of attributes")
	}
	return &CommandBuffer{
		objectID: object,
		methodID: method,
		attrs:    make([]*Attr, 0, numAttrs)}
}

// NewCommandBufferWithDriver returns a new empty command buffer for the
// specified object and method, with space for the number of attributes
// reported by counter for the method plus numDriverAttrs driver specific
// attributes. If counter is nil, DefaultParamCounter is used.
func NewCommandBufferWithDriver(object ObjectID, method MethodID, numDriverAttrs int, counter ParamCounter) *CommandBuffer {
	if counter == nil {
		counter = DefaultParamCounter
	}
	return NewCommandBuffer(object, method, counter(object, method)+numDriverAttrs)
}

// NewLegacyCommandBuffer returns a new empty command buffer with space for
// numAttrs attributes plus the 2 attributes appended by
// Context.ExecuteLegacy.
func NewLegacyCommandBuffer(object ObjectID, method MethodID, numAttrs int) *CommandBuffer {
	return NewCommandBuffer(object, method, numAttrs+2)
}

// ObjectID returns the object type that this command operates on.
func (b *CommandBuffer) ObjectID() ObjectID {
	return b.objectID
}

// MethodID returns the method that this command invokes.
func (b *CommandBuffer) MethodID() MethodID {
	return b.methodID
}

// Cap returns the maximum number of attributes that this buffer can hold.
func (b *CommandBuffer) Cap() int {
	return cap(b.attrs)
}

// Len returns the number of attributes appended to this buffer.
func (b *CommandBuffer) Len() int {
	return len(b.attrs)
}

// Attr returns the attribute at the specified index.
func (b *CommandBuffer) Attr(i int) *Attr {
	return b.attrs[i]
}

// Attrs returns the attributes appended to this buffer, in command order.
func (b *CommandBuffer) Attrs() []*Attr {
	return b.attrs
}

// Reference registers a caller owned buffer whose address is embedded
// inside the payload of another attribute, and returns that address. The
// buffer is pinned for the duration of the command along with the buffers
// referenced directly by attributes. It returns 0 for an empty buffer.
func (b *CommandBuffer) Reference(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	b.refs = append(b.refs, data)
	return uaccess.Address(data)
}

func (b *CommandBuffer) nextAttr(id AttrID) *Attr {
	if len(b.attrs) >= cap(b.attrs) {
		panic(&CapacityExceededError{
			Object:   b.objectID,
			Method:   b.methodID,
			Attr:     id,
			Capacity: cap(b.attrs)})
	}

	// All attributes default to mandatory. Call Optional on the result of
	// a Fill method to make it optional.
	attr := &Attr{ID: id, Flags: AttrFlagMandatory}
	b.attrs = append(b.attrs, attr)
	return attr
}

func checkAttrLen(id AttrID, n int) {
	if n > MaxAttrLen {
		panic(&PayloadTooLargeError{Attr: id, Len: n})
	}
}

// FillObj appends an attribute that refers to an existing kernel object.
func (b *CommandBuffer) FillObj(id AttrID, handle uint32) *Attr {
	attr := b.nextAttr(id)
	hostEndian.PutUint64(attr.inline[:], uint64(handle))
	return attr
}

// FillObjOut appends an attribute that receives the handle of an object
// created by the kernel. The handle can be obtained with Attr.Handle after
// a successful execution.
func (b *CommandBuffer) FillObjOut(id AttrID) *Attr {
	return b.FillObj(id, 0)
}

// FillIn appends an input attribute. Payloads of up to 8 bytes are copied
// into the attribute. Larger payloads are passed by reference, in which
// case data must not be modified until the command has completed.
//
// This panics with a *PayloadTooLargeError if data is longer than
// MaxAttrLen.
func (b *CommandBuffer) FillIn(id AttrID, data []byte) *Attr {
	checkAttrLen(id, len(data))
	attr := b.nextAttr(id)
	attr.Len = uint16(len(data))
	if len(data) <= maxInlineLen {
		copy(attr.inline[:], data)
	} else {
		attr.kind = payloadIndirect
		attr.ref = data
	}
	return attr
}

// FillUint32 appends a 4-byte inline input attribute.
func (b *CommandBuffer) FillUint32(id AttrID, value uint32) *Attr {
	var data [4]byte
	hostEndian.PutUint32(data[:], value)
	return b.FillIn(id, data[:])
}

// FillUint64 appends an 8-byte inline input attribute.
func (b *CommandBuffer) FillUint64(id AttrID, value uint64) *Attr {
	var data [8]byte
	hostEndian.PutUint64(data[:], value)
	return b.FillIn(id, data[:])
}

// FillInFd appends an attribute that passes a file descriptor. If fd is -1,
// no attribute is appended and nil is returned.
func (b *CommandBuffer) FillInFd(id AttrID, fd int) *Attr {
	if fd == -1 {
		return nil
	}
	attr := b.nextAttr(id)
	hostEndian.PutUint64(attr.inline[:], uint64(int64(fd)))
	return attr
}

// FillOut appends an output attribute that the kernel writes to. The
// attribute always references buf, regardless of its length. Callers should
// only read buf after a successful execution, and only if Attr.IsValidOutput
// returns true for optional outputs.
//
// This panics with a *PayloadTooLargeError if buf is longer than
// MaxAttrLen.
func (b *CommandBuffer) FillOut(id AttrID, buf []byte) *Attr {
	checkAttrLen(id, len(buf))
	attr := b.nextAttr(id)
	attr.Len = uint16(len(buf))
	attr.kind = payloadIndirect
	attr.ref = buf
	return attr
}

// FillInEnum appends an input attribute that carries one of several
// mutually exclusive payload types, identified by elemID.
func (b *CommandBuffer) FillInEnum(id AttrID, elemID uint8, data []byte) *Attr {
	attr := b.FillIn(id, data)
	attr.ElemID = elemID
	return attr
}

// marshal serializes the command. The number of attributes is the number
// appended, not the capacity of the buffer.
func (b *CommandBuffer) marshal(driverID DriverID) RequestPacket {
	attrs := make([]WireAttr, len(b.attrs))
	for i, attr := range b.attrs {
		attrs[i] = attr.wire()
	}
	return MarshalRequestPacket(&IoctlHeader{
		ObjectID: b.objectID,
		MethodID: b.methodID,
		DriverID: driverID}, attrs)
}

// pin pins every buffer that the command refers to by address.
func (b *CommandBuffer) pin(pinner *runtime.Pinner) {
	for _, attr := range b.attrs {
		if attr.kind == payloadIndirect && len(attr.ref) > 0 {
			pinner.Pin(&attr.ref[0])
		}
	}
	for _, ref := range b.refs {
		pinner.Pin(&ref[0])
	}
}

// update applies the kernel's response, which is written in place to the
// command. The response is checked in its entirety before any attribute is
// updated.
func (b *CommandBuffer) update(p RequestPacket) error {
	hdr, attrs, err := p.Unmarshal()
	if err != nil {
		return &InvalidResponseError{b.objectID, b.methodID, err.Error()}
	}
	if hdr.ObjectID != b.objectID || hdr.MethodID != b.methodID {
		return &InvalidResponseError{b.objectID, b.methodID, "object or method changed"}
	}
	if len(attrs) != len(b.attrs) {
		return &InvalidResponseError{b.objectID, b.methodID, "number of attributes changed"}
	}
	for i := range attrs {
		if attrs[i].AttrID != b.attrs[i].ID {
			return &InvalidResponseError{b.objectID, b.methodID, fmt.Sprintf("unexpected attribute %v at index %d", attrs[i].AttrID, i)}
		}
	}

	for i := range attrs {
		b.attrs[i].update(&attrs[i])
	}
	return nil
}

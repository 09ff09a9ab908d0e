// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs

import "fmt"

// CapacityExceededError is the value that a CommandBuffer panics with when
// an attribute is appended to a buffer that is already full. This indicates
// that the buffer was declared with the wrong capacity, and is never the
// result of invalid input.
type CapacityExceededError struct {
	Object   ObjectID
	Method   MethodID
	Attr     AttrID // The attribute that didn't fit
	Capacity int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("cannot append attribute %v to command for object %v method %d: capacity of %d attributes exceeded",
		e.Attr, e.Object, e.Method, e.Capacity)
}

// PayloadTooLargeError is the value that a CommandBuffer panics with when
// an attribute payload is longer than MaxAttrLen.
type PayloadTooLargeError struct {
	Attr AttrID
	Len  int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload for attribute %v is too large (%d bytes, maximum %d)", e.Attr, e.Len, MaxAttrLen)
}

// TransportError is returned from Context.Execute and Context.ExecuteLegacy if
// the transport returns an error. The transport's error is available
// unmodified via Unwrap, and no output attribute of the command should be
// considered written.
type TransportError struct {
	Op  string // The operation that caused the error
	err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cannot complete %s operation on transport: %v", e.Op, e.err)
}

func (e *TransportError) Unwrap() error {
	return e.err
}

// InvalidResponseError is returned from Context.Execute and
// Context.ExecuteLegacy if the transport reports success but the command
// buffer that it wrote back is malformed. No attribute of the command is
// updated in this case.
type InvalidResponseError struct {
	Object ObjectID
	Method MethodID
	msg    string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("transport returned an invalid response for object %v method %d: %s", e.Object, e.Method, e.msg)
}

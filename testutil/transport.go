// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package testutil

import (
	"errors"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/canonical/go-ibverbs"
	"github.com/canonical/go-ibverbs/internal/uaccess"
)

// CommandRecord is a record of a command submitted to a MockTransport, as it
// was before the handler ran.
type CommandRecord struct {
	Header *ibverbs.IoctlHeader
	Attrs  []ibverbs.WireAttr

	payloads [][]byte
}

// AttrIDs returns the IDs of the attributes of the command, in command
// order.
func (r *CommandRecord) AttrIDs() (ids []ibverbs.AttrID) {
	for _, attr := range r.Attrs {
		ids = append(ids, attr.AttrID)
	}
	return ids
}

func (r *CommandRecord) index(id ibverbs.AttrID) int {
	for i := range r.Attrs {
		if r.Attrs[i].AttrID == id {
			return i
		}
	}
	return -1
}

// Attr returns the attribute with the specified ID, or nil if the command
// doesn't have it.
func (r *CommandRecord) Attr(id ibverbs.AttrID) *ibverbs.WireAttr {
	i := r.index(id)
	if i < 0 {
		return nil
	}
	return &r.Attrs[i]
}

// Payload returns a copy of the payload of the attribute with the specified
// ID taken when the command was submitted, or nil if the command doesn't
// have it. The payload is decoded as an input, so for attributes with a
// length of 8 bytes or less this is the inline data, and for larger
// attributes this is the contents of the referenced buffer.
func (r *CommandRecord) Payload(id ibverbs.AttrID) []byte {
	i := r.index(id)
	if i < 0 {
		return nil
	}
	return r.payloads[i]
}

// Request is the kernel side view of a command submitted to a MockTransport.
type Request struct {
	Header *ibverbs.IoctlHeader
	Attrs  []ibverbs.WireAttr
}

// Attr returns the attribute with the specified ID, or nil if the command
// doesn't have it.
func (r *Request) Attr(id ibverbs.AttrID) *ibverbs.WireAttr {
	for i := range r.Attrs {
		if r.Attrs[i].AttrID == id {
			return &r.Attrs[i]
		}
	}
	return nil
}

// CopyFrom returns the payload of the input attribute with the specified ID,
// following the reference for payloads larger than 8 bytes. It returns
// unix.EINVAL if the attribute doesn't exist.
func (r *Request) CopyFrom(id ibverbs.AttrID) ([]byte, error) {
	attr := r.Attr(id)
	if attr == nil {
		return nil, unix.EINVAL
	}
	return copyFromAttr(attr), nil
}

// CopyTo writes data to the buffer referenced by the output attribute with
// the specified ID and marks it as a valid output. It returns unix.ENOSPC if
// data doesn't fit in the buffer. If the attribute doesn't exist, this does
// nothing, which is what happens to optional outputs that the caller didn't
// supply.
func (r *Request) CopyTo(id ibverbs.AttrID, data []byte) error {
	attr := r.Attr(id)
	if attr == nil {
		return nil
	}
	if len(data) > int(attr.Len) {
		return unix.ENOSPC
	}
	uaccess.CopyTo(attr.Data, int(attr.Len), data)
	attr.Flags |= ibverbs.AttrFlagValidOutput
	return nil
}

// SetObject writes a newly allocated object handle to the object attribute
// with the specified ID. It returns unix.EINVAL if the attribute doesn't
// exist.
func (r *Request) SetObject(id ibverbs.AttrID, handle uint32) error {
	attr := r.Attr(id)
	if attr == nil {
		return unix.EINVAL
	}
	attr.Data = uint64(handle)
	return nil
}

func copyFromAttr(attr *ibverbs.WireAttr) []byte {
	if attr.Len <= 8 {
		return attr.InlineBytes()
	}
	return uaccess.CopyFrom(attr.Data, int(attr.Len))
}

// CommandHandler implements the kernel side of a method for MockTransport.
// Any error returned is passed to the caller of Ioctl unmodified, and any
// change to the attributes of req is discarded in this case.
type CommandHandler func(req *Request) error

type methodKey struct {
	object ibverbs.ObjectID
	method ibverbs.MethodID
}

// MockTransport is an in-process implementation of ibverbs.Transport that
// decodes commands and dispatches them to handlers registered with Handle.
// Commands for which there is no handler fail with
// unix.EPROTONOSUPPORT, and malformed commands fail with unix.EINVAL.
//
// Every command is recorded in CommandLog. Ioctl may be called from
// multiple goroutines, and handlers must be safe for that.
type MockTransport struct {
	CommandLog []*CommandRecord

	// Err, if set, is returned from every call to Ioctl before the
	// command is dispatched.
	Err error

	mu       sync.Mutex
	handlers map[methodKey]CommandHandler
	closed   bool
}

// NewMockTransport returns a new MockTransport with no handlers.
func NewMockTransport() *MockTransport {
	return &MockTransport{handlers: make(map[methodKey]CommandHandler)}
}

// Handle registers the handler for the specified object and method.
func (t *MockTransport) Handle(object ibverbs.ObjectID, method ibverbs.MethodID, handler CommandHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[methodKey{object, method}] = handler
}

// LastCommand returns the last command submitted to this transport, or nil.
func (t *MockTransport) LastCommand() *CommandRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.CommandLog) == 0 {
		return nil
	}
	return t.CommandLog[len(t.CommandLog)-1]
}

// Ioctl implements [ibverbs.Transport.Ioctl].
func (t *MockTransport) Ioctl(request []byte) error {
	if t.Closed() {
		return unix.EBADF
	}

	hdr, attrs, err := ibverbs.ParseRequest(request)
	if err != nil {
		return unix.EINVAL
	}

	record := &CommandRecord{
		Header: hdr,
		Attrs:  append([]ibverbs.WireAttr(nil), attrs...)}
	for i := range attrs {
		record.payloads = append(record.payloads, copyFromAttr(&attrs[i]))
	}

	handler, err := t.dispatch(record)
	if err != nil {
		return err
	}

	req := &Request{Header: hdr, Attrs: attrs}
	if err := handler(req); err != nil {
		return err
	}

	copy(request, ibverbs.MarshalRequestPacket(req.Header, req.Attrs))
	return nil
}

// dispatch records a command and returns the handler for it.
func (t *MockTransport) dispatch(record *CommandRecord) (CommandHandler, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, unix.EBADF
	}
	t.CommandLog = append(t.CommandLog, record)

	if t.Err != nil {
		return nil, t.Err
	}

	handler, ok := t.handlers[methodKey{record.Header.ObjectID, record.Header.MethodID}]
	if !ok {
		return nil, unix.EPROTONOSUPPORT
	}
	return handler, nil
}

// Close implements [ibverbs.Transport.Close].
func (t *MockTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.New("already closed")
	}
	t.closed = true
	return nil
}

// Closed indicates whether Close has been called.
func (t *MockTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// RecordingAnnotator is an ibverbs.MemoryAnnotator that records the buffers
// it is called with. It is safe to use from multiple goroutines.
type RecordingAnnotator struct {
	Defined [][]byte

	mu sync.Mutex
}

// MakeDefined implements [ibverbs.MemoryAnnotator.MakeDefined].
func (a *RecordingAnnotator) MakeDefined(p []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Defined = append(a.Defined, p)
}

// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs

import (
	"runtime"

	"github.com/rs/zerolog"
)

// Context is the main entry point by which commands are executed on a uverbs
// device. It communicates with the device via a Transport and stamps every
// command with the identity of the driver that services the device.
//
// A Context holds no per-command state and may be used to execute
// different commands from multiple goroutines.
type Context struct {
	transport Transport
	driverID  DriverID
	annotator MemoryAnnotator
	logger    zerolog.Logger
}

// ContextOption is an option supplied to NewContext.
type ContextOption func(*Context)

// WithLogger sets the logger that commands are logged to at debug level. The
// default is to not log.
func WithLogger(logger zerolog.Logger) ContextOption {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithMemoryAnnotator sets the MemoryAnnotator that is informed of output
// buffers written by the kernel. The default does nothing.
func WithMemoryAnnotator(annotator MemoryAnnotator) ContextOption {
	return func(c *Context) {
		c.annotator = annotator
	}
}

// NewContext returns a new Context that submits commands with the supplied
// transport on behalf of the specified driver.
func NewContext(transport Transport, driverID DriverID, options ...ContextOption) *Context {
	c := &Context{
		transport: transport,
		driverID:  driverID,
		annotator: nullAnnotator{},
		logger:    zerolog.Nop()}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// DriverID returns the identity of the driver that commands are submitted
// on behalf of.
func (c *Context) DriverID() DriverID {
	return c.driverID
}

// Close calls Close on the transport.
func (c *Context) Close() error {
	if err := c.transport.Close(); err != nil {
		return &TransportError{"close", err}
	}
	return nil
}

// Execute submits the command in cmd with a single call to the transport,
// without retrying.
//
// If the transport returns an error, a *TransportError is returned and no
// attribute of cmd is modified. If the transport succeeds, the flags of
// each attribute and the inline data slots (such as object handles created
// by the kernel) are updated from the kernel's response. A
// *InvalidResponseError is returned if the kernel's response is malformed.
//
// On success, every indirect output that the kernel indicates it wrote is
// passed to the context's MemoryAnnotator.
func (c *Context) Execute(cmd *CommandBuffer) error {
	req := cmd.marshal(c.driverID)

	c.logger.Debug().
		Stringer("object", cmd.objectID).
		Uint16("method", uint16(cmd.methodID)).
		Int("num_attrs", cmd.Len()).
		Stringer("driver", c.driverID).
		Msg("submitting command")

	if err := c.ioctl(cmd, req); err != nil {
		c.logger.Debug().
			Err(err).
			Stringer("object", cmd.objectID).
			Uint16("method", uint16(cmd.methodID)).
			Msg("command failed")
		return &TransportError{"ioctl", err}
	}

	if err := cmd.update(req); err != nil {
		return err
	}

	c.annotateBuffers(cmd)
	return nil
}

func (c *Context) ioctl(cmd *CommandBuffer, req RequestPacket) error {
	var pinner runtime.Pinner
	defer pinner.Unpin()

	cmd.pin(&pinner)
	return c.transport.Ioctl(req)
}

// annotateBuffers informs the annotator of indirect outputs written by the
// kernel. Optional outputs that the kernel didn't write are skipped.
func (c *Context) annotateBuffers(cmd *CommandBuffer) {
	for _, attr := range cmd.attrs {
		if !attr.IsValidOutput() || !attr.IsIndirect() {
			continue
		}
		c.annotator.MakeDefined(attr.ref)
	}
}

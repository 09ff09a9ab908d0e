// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs

// Transport represents a control channel to a uverbs device.
type Transport interface {
	// Ioctl submits a serialized command with a single blocking call. The
	// implementation must pass request to the kernel in place, so that
	// the kernel's updates to the attribute array are visible in request
	// when it returns. If the call fails, the error must be returned
	// unmodified.
	Ioctl(request []byte) error

	// Close closes the transport.
	Close() error
}

// MemoryAnnotator is used to inform memory checking tools that an output
// buffer has been written to by the kernel, which these tools can't observe.
type MemoryAnnotator interface {
	// MakeDefined marks the contents of p as initialized.
	MakeDefined(p []byte)
}

type nullAnnotator struct{}

func (nullAnnotator) MakeDefined(p []byte) {}

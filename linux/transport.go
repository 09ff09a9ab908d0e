// Copyright 2019 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package linux

import (
	"io"
	"os"
)

type fileStatter interface {
	Stat() (os.FileInfo, error)
}

type ioctler interface {
	Ioctl(req []byte) error
}

// Transport represents a connection to a Linux uverbs character device. It
// implements [ibverbs.Transport]. Commands may be submitted from multiple
// goroutines simultaneously.
type Transport struct {
	ioctler ioctler
	closer  io.Closer
	statter fileStatter
}

func newTransport(file *uverbsFile) *Transport {
	return &Transport{
		ioctler: file,
		closer:  file,
		statter: file}
}

// Ioctl implements [ibverbs.Transport.Ioctl].
func (t *Transport) Ioctl(request []byte) error {
	return t.ioctler.Ioctl(request)
}

// Close implements [ibverbs.Transport.Close].
func (t *Transport) Close() error {
	return t.closer.Close()
}

// Copyright 2019-2024 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package linux

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/canonical/go-ibverbs"
)

// The uverbs character device doesn't support read, write or poll for
// commands. Each command is a single synchronous ioctl on the file
// descriptor, which is obtained via the syscall.RawConn provided by os.File
// so that the descriptor isn't closed underneath us whilst the ioctl is in
// progress.

func ignoringEINTR(fn func() error) error {
	for {
		err := fn()
		if err != unix.EINTR {
			return err
		}
	}
}

type uverbsFile struct {
	file *os.File
}

func (f *uverbsFile) wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if err == errClosed {
		err = os.ErrClosed
	}
	return &os.PathError{
		Op:   op,
		Path: f.file.Name(),
		Err:  err}
}

// Ioctl submits the command in req with RDMA_VERBS_IOCTL. The kernel
// updates req in place. Errors from the system call are returned as the
// unmodified unix.Errno.
func (f *uverbsFile) Ioctl(req []byte) error {
	if len(req) == 0 {
		return unix.EINVAL
	}

	conn, err := f.file.SyscallConn()
	if err != nil {
		return err
	}

	var ioctlErr error
	if err := conn.Control(func(fd uintptr) {
		ioctlErr = ignoringEINTR(func() error {
			_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, ibverbs.RDMAVerbsIoctl, uintptr(unsafe.Pointer(&req[0])))
			if errno != 0 {
				return errno
			}
			return nil
		})
	}); err != nil {
		// The only error that can be returned from this is poll.ErrFileClosing
		// which is private
		return f.wrapErr("ioctl", errClosed)
	}
	return ioctlErr
}

func (f *uverbsFile) Close() error {
	return f.file.Close()
}

func (f *uverbsFile) Stat() (os.FileInfo, error) {
	return f.file.Stat()
}

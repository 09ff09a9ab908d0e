// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs_test

import (
	"golang.org/x/sys/unix"

	. "gopkg.in/check.v1"

	. "github.com/canonical/go-ibverbs"
	. "github.com/canonical/go-ibverbs/testutil"
)

type errorsSuite struct {
	ContextTest
}

var _ = Suite(&errorsSuite{})

func (s *errorsSuite) TestTransportError(c *C) {
	s.Transport.Err = unix.ENODEV

	err := s.Context.Execute(NewCommandBuffer(ObjectPD, 0, 0))
	c.Check(err, ErrorMatches, "cannot complete ioctl operation on transport: no such device")

	var e *TransportError
	c.Assert(err, ErrorAs, &e)
	c.Check(e.Op, Equals, "ioctl")
	c.Check(e.Unwrap(), Equals, unix.ENODEV)
	c.Check(err, ErrorIs, unix.ENODEV)
}

func (s *errorsSuite) TestTransportErrorFromHandler(c *C) {
	s.Transport.Handle(ObjectPD, 0, func(req *Request) error {
		return unix.EOPNOTSUPP
	})

	err := s.Context.Execute(NewCommandBuffer(ObjectPD, 0, 0))
	c.Check(err, ErrorIs, unix.EOPNOTSUPP)
}

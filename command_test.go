// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs_test

import (
	"bytes"
	"encoding/binary"
	"math"

	. "gopkg.in/check.v1"

	. "github.com/canonical/go-ibverbs"
	"github.com/canonical/go-ibverbs/internal/uaccess"
	. "github.com/canonical/go-ibverbs/testutil"
)

type commandSuite struct{}

var _ = Suite(&commandSuite{})

func (s *commandSuite) TestNewCommandBuffer(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQDestroy, 3)
	c.Check(cmd.ObjectID(), Equals, ObjectCQ)
	c.Check(cmd.MethodID(), Equals, MethodCQDestroy)
	c.Check(cmd.Cap(), Equals, 3)
	c.Check(cmd.Len(), Equals, 0)
	c.Check(cmd.Attrs(), HasLen, 0)
}

func (s *commandSuite) TestNewCommandBufferNegative(c *C) {
	c.Check(func() { NewCommandBuffer(ObjectCQ, MethodCQDestroy, -1) }, PanicMatches, "negative number of attributes")
}

func (s *commandSuite) TestNewCommandBufferWithDriverDefaultCounter(c *C) {
	cmd := NewCommandBufferWithDriver(ObjectCQ, MethodCQCreate, 2, nil)
	c.Check(cmd.Cap(), Equals, 9)
}

func (s *commandSuite) TestNewCommandBufferWithDriverCustomCounter(c *C) {
	var object ObjectID
	var method MethodID
	counter := func(o ObjectID, m MethodID) int {
		object, method = o, m
		return 4
	}
	cmd := NewCommandBufferWithDriver(ObjectMR, 3, 1, counter)
	c.Check(cmd.Cap(), Equals, 5)
	c.Check(object, Equals, ObjectMR)
	c.Check(method, Equals, MethodID(3))
}

func (s *commandSuite) TestNewLegacyCommandBuffer(c *C) {
	cmd := NewLegacyCommandBuffer(ObjectCQ, MethodCQCreate, 7)
	c.Check(cmd.Cap(), Equals, 9)
}

func (s *commandSuite) TestDefaultParamCounter(c *C) {
	c.Check(DefaultParamCounter(ObjectCQ, MethodCQCreate), Equals, 7)
	c.Check(DefaultParamCounter(ObjectCQ, MethodCQDestroy), Equals, 2)
	c.Check(DefaultParamCounter(ObjectFlowAction, MethodFlowActionESPCreate), Equals, 6)
	c.Check(DefaultParamCounter(ObjectFlowAction, MethodFlowActionDestroy), Equals, 1)
	c.Check(DefaultParamCounter(ObjectFlowAction, MethodFlowActionESPModify), Equals, 6)
	c.Check(DefaultParamCounter(ObjectQP, 0), Equals, 0)
}

func (s *commandSuite) TestFillCountsAttrs(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQCreate, 10)
	cmd.FillObjOut(0)
	cmd.FillUint32(1, 256)
	cmd.FillUint64(2, 0x1122334455667788)
	c.Check(cmd.FillInFd(3, -1), IsNil)
	cmd.FillInFd(4, 7)
	cmd.FillIn(5, make([]byte, 20))
	cmd.FillOut(6, make([]byte, 4))
	cmd.FillInEnum(7, 1, make([]byte, 56))
	c.Check(cmd.Len(), Equals, 7)

	var ids []AttrID
	for _, attr := range cmd.Attrs() {
		ids = append(ids, attr.ID)
	}
	c.Check(ids, DeepEquals, []AttrID{0, 1, 2, 4, 5, 6, 7})
}

func (s *commandSuite) TestFillObj(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQDestroy, 1)
	attr := cmd.FillObj(0, 0x12)
	c.Check(attr.ID, Equals, AttrID(0))
	c.Check(attr.Len, Equals, uint16(0))
	c.Check(attr.IsMandatory(), IsTrue)
	c.Check(attr.IsIndirect(), IsFalse)
	c.Check(attr.Handle(), Equals, uint32(0x12))
	c.Check(cmd.Attr(0), Equals, attr)
}

func (s *commandSuite) TestFillInInline(c *C) {
	data := []byte{1, 2, 3, 4, 5}
	cmd := NewCommandBuffer(ObjectPD, 0, 1)
	attr := cmd.FillIn(1, data)
	c.Check(attr.Len, Equals, uint16(5))
	c.Check(attr.IsIndirect(), IsFalse)
	c.Check(attr.Bytes(), DeepEquals, data)

	data[0] = 10
	c.Check(attr.Bytes(), DeepEquals, []byte{1, 2, 3, 4, 5})

	_, attrs, err := ParseRequest(cmd.Marshal(DriverUnknown))
	c.Assert(err, IsNil)
	c.Assert(attrs, HasLen, 1)
	c.Check(attrs[0].InlineBytes(), DeepEquals, []byte{1, 2, 3, 4, 5})
}

func (s *commandSuite) TestFillInEightBytesIsInline(c *C) {
	cmd := NewCommandBuffer(ObjectPD, 0, 1)
	attr := cmd.FillIn(1, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	c.Check(attr.IsIndirect(), IsFalse)
	c.Check(attr.Uint64(), Equals, binary.NativeEndian.Uint64([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
}

func (s *commandSuite) TestFillInIndirect(c *C) {
	data := []byte("123456789")
	cmd := NewCommandBuffer(ObjectPD, 0, 1)
	attr := cmd.FillIn(1, data)
	c.Check(attr.Len, Equals, uint16(9))
	c.Check(attr.IsIndirect(), IsTrue)
	c.Check(&attr.Bytes()[0], Equals, &data[0])
	c.Check(func() { attr.Uint64() }, PanicMatches, "attribute payload is not inline")

	_, attrs, err := ParseRequest(cmd.Marshal(DriverUnknown))
	c.Assert(err, IsNil)
	c.Check(attrs[0].Data, Equals, uaccess.Address(data))
	c.Check(uaccess.CopyFrom(attrs[0].Data, int(attrs[0].Len)), DeepEquals, data)
}

func (s *commandSuite) TestFillInMaxLen(c *C) {
	cmd := NewCommandBuffer(ObjectPD, 0, 1)
	attr := cmd.FillIn(1, make([]byte, MaxAttrLen))
	c.Check(attr.Len, Equals, uint16(math.MaxUint16))
}

func (s *commandSuite) TestFillInPayloadTooLarge(c *C) {
	cmd := NewCommandBuffer(ObjectPD, 0, 1)

	var e *PayloadTooLargeError
	c.Check(func() { cmd.FillIn(1, make([]byte, MaxAttrLen+1)) }, PanicsAs, &e)
	c.Check(e, DeepEquals, &PayloadTooLargeError{Attr: 1, Len: MaxAttrLen + 1})
	c.Check(cmd.Len(), Equals, 0)
}

func (s *commandSuite) TestFillOutPayloadTooLarge(c *C) {
	cmd := NewCommandBuffer(ObjectPD, 0, 1)

	var e *PayloadTooLargeError
	c.Check(func() { cmd.FillOut(2, make([]byte, MaxAttrLen+1)) }, PanicsAs, &e)
	c.Check(e.Attr, Equals, AttrID(2))
	c.Check(e, ErrorMatches, `payload for attribute 0x0002 is too large \(65536 bytes, maximum 65535\)`)
}

func (s *commandSuite) TestFillUint32(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQCreate, 1)
	attr := cmd.FillUint32(1, 0xdeadbeef)
	c.Check(attr.Len, Equals, uint16(4))
	c.Check(attr.Bytes(), DeepEquals, uint32Bytes(0xdeadbeef))
	c.Check(attr.Uint32(), Equals, uint32(0xdeadbeef))
}

func (s *commandSuite) TestUint32Indirect(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQCreate, 1)
	attr := cmd.FillOut(1, make([]byte, 4))
	c.Check(func() { attr.Uint32() }, PanicMatches, "attribute payload is not inline")
}

func (s *commandSuite) TestFillUint64(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQCreate, 1)
	attr := cmd.FillUint64(2, 0x1122334455667788)
	c.Check(attr.Len, Equals, uint16(8))
	c.Check(attr.Uint64(), Equals, uint64(0x1122334455667788))
}

func (s *commandSuite) TestFillInFd(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQCreate, 1)
	attr := cmd.FillInFd(3, 5)
	c.Assert(attr, NotNil)
	c.Check(attr.Len, Equals, uint16(0))
	c.Check(attr.IsIndirect(), IsFalse)
	c.Check(attr.Uint64(), Equals, uint64(5))
}

func (s *commandSuite) TestFillInFdNone(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQCreate, 0)
	c.Check(cmd.FillInFd(3, -1), IsNil)
	c.Check(cmd.Len(), Equals, 0)
}

func (s *commandSuite) TestFillOut(c *C) {
	buf := make([]byte, 4)
	cmd := NewCommandBuffer(ObjectCQ, MethodCQCreate, 1)
	attr := cmd.FillOut(6, buf)
	c.Check(attr.Len, Equals, uint16(4))
	c.Check(attr.IsIndirect(), IsTrue)
	c.Check(attr.IsValidOutput(), IsFalse)
	c.Check(&attr.Bytes()[0], Equals, &buf[0])
}

func (s *commandSuite) TestFillInEnum(c *C) {
	cmd := NewCommandBuffer(ObjectFlowAction, MethodFlowActionESPCreate, 1)
	attr := cmd.FillInEnum(3, 2, []byte{1, 2})
	c.Check(attr.ElemID, Equals, uint8(2))
	c.Check(attr.Bytes(), DeepEquals, []byte{1, 2})
}

func (s *commandSuite) TestOptional(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQCreate, 1)
	attr := cmd.FillUint32(5, 1)
	c.Check(attr.Flags, Equals, AttrFlagMandatory)
	c.Check(attr.Optional(), Equals, attr)
	c.Check(attr.IsMandatory(), IsFalse)
	c.Check(attr.Flags, Equals, AttrFlags(0))
}

func (s *commandSuite) TestCapacityExact(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQDestroy, 2)
	cmd.FillObj(0, 1)
	cmd.FillOut(1, make([]byte, 8))
	c.Check(cmd.Len(), Equals, cmd.Cap())
}

func (s *commandSuite) TestCapacityExceeded(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQDestroy, 1)
	cmd.FillObj(0, 1)

	var e *CapacityExceededError
	c.Check(func() { cmd.FillOut(2, make([]byte, 8)) }, PanicsAs, &e)
	c.Check(e, DeepEquals, &CapacityExceededError{
		Object:   ObjectCQ,
		Method:   MethodCQDestroy,
		Attr:     2,
		Capacity: 1})
	c.Check(e, ErrorMatches, "cannot append attribute 0x0002 to command for object UVERBS_OBJECT_CQ method 1: capacity of 1 attributes exceeded")
	c.Check(cmd.Len(), Equals, 1)
}

func (s *commandSuite) TestZeroCapacity(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQDestroy, 0)

	var e *CapacityExceededError
	c.Check(func() { cmd.FillObj(0, 1) }, PanicsAs, &e)
	c.Check(e.Capacity, Equals, 0)
}

func (s *commandSuite) TestNumAttrsIsNumberAppended(c *C) {
	cmd := NewCommandBuffer(ObjectPD, 0, 3)
	cmd.FillUint32(10, 1)
	cmd.FillUint32(11, 2)

	hdr, attrs, err := ParseRequest(cmd.Marshal(DriverUnknown))
	c.Assert(err, IsNil)
	c.Check(hdr.NumAttrs, Equals, uint16(2))
	c.Check(hdr.Length, Equals, uint16(IoctlHeaderSize+2*WireAttrSize))
	c.Assert(attrs, HasLen, 2)
	c.Check(attrs[0].AttrID, Equals, AttrID(10))
	c.Check(attrs[1].AttrID, Equals, AttrID(11))
}

func (s *commandSuite) TestMarshal(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQDestroy, 2)
	cmd.FillObj(0, 0x12)
	cmd.FillUint32(1, 0xdeadbeef).Optional()

	ne := binary.NativeEndian
	var expected bytes.Buffer
	binary.Write(&expected, ne, uint16(56))
	binary.Write(&expected, ne, uint16(ObjectCQ))
	binary.Write(&expected, ne, uint16(MethodCQDestroy))
	binary.Write(&expected, ne, uint16(2))
	binary.Write(&expected, ne, uint64(0))
	binary.Write(&expected, ne, uint32(DriverMLX5))
	binary.Write(&expected, ne, uint32(0))

	binary.Write(&expected, ne, uint16(0))
	binary.Write(&expected, ne, uint16(0))
	binary.Write(&expected, ne, uint16(AttrFlagMandatory))
	binary.Write(&expected, ne, uint16(0))
	binary.Write(&expected, ne, uint64(0x12))

	binary.Write(&expected, ne, uint16(1))
	binary.Write(&expected, ne, uint16(4))
	binary.Write(&expected, ne, uint16(0))
	binary.Write(&expected, ne, uint16(0))
	binary.Write(&expected, ne, uint32(0xdeadbeef))
	binary.Write(&expected, ne, uint32(0))

	c.Check([]byte(cmd.Marshal(DriverMLX5)), DeepEquals, expected.Bytes())
}

func (s *commandSuite) TestMarshalEmpty(c *C) {
	cmd := NewCommandBuffer(ObjectDevice, 0, 0)
	hdr, attrs, err := ParseRequest(cmd.Marshal(DriverRXE))
	c.Assert(err, IsNil)
	c.Check(hdr, DeepEquals, &IoctlHeader{Length: IoctlHeaderSize, DriverID: DriverRXE})
	c.Check(attrs, HasLen, 0)
}

func (s *commandSuite) TestReference(c *C) {
	data := make([]byte, 16)
	cmd := NewCommandBuffer(ObjectFlowAction, MethodFlowActionESPCreate, 0)
	c.Check(cmd.Reference(data), Equals, uaccess.Address(data))
	c.Check(cmd.Reference(nil), Equals, uint64(0))
}

func (s *commandSuite) TestUpdate(c *C) {
	buf := make([]byte, 16)
	cmd := NewCommandBuffer(ObjectCQ, MethodCQCreate, 2)
	obj := cmd.FillObjOut(0)
	out := cmd.FillOut(1, buf)

	_, attrs, err := ParseRequest(cmd.Marshal(DriverUnknown))
	c.Assert(err, IsNil)
	attrs[0].Data = 99
	attrs[1].Flags |= AttrFlagValidOutput
	attrs[1].Data = 0

	c.Check(cmd.Update(MarshalRequestPacket(&IoctlHeader{ObjectID: ObjectCQ, MethodID: MethodCQCreate}, attrs)), IsNil)
	c.Check(obj.Handle(), Equals, uint32(99))
	c.Check(out.IsValidOutput(), IsTrue)
	c.Check(&out.Bytes()[0], Equals, &buf[0])
}

func (s *commandSuite) TestUpdateWrongMethod(c *C) {
	cmd := NewCommandBuffer(ObjectCQ, MethodCQCreate, 0)
	err := cmd.Update(MarshalRequestPacket(&IoctlHeader{ObjectID: ObjectCQ, MethodID: MethodCQDestroy}, nil))
	c.Check(err, ErrorMatches, "transport returned an invalid response for object UVERBS_OBJECT_CQ method 0: object or method changed")
}

// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ibverbs

import "math"

const (
	// MaxAttrLen is the maximum length of the payload of a single
	// attribute.
	MaxAttrLen = math.MaxUint16

	// maxInlineLen is the maximum length of an input payload that is
	// carried inside the attribute's data slot rather than by reference.
	maxInlineLen = 8
)

// ObjectID identifies the type of kernel object that a command operates on.
type ObjectID uint16

// MethodID identifies a method of an object type.
type MethodID uint16

// AttrID identifies an attribute within the scope of a single object and
// method pair.
type AttrID uint16

// AttrFlags contains the flags of an attribute.
type AttrFlags uint16

// DriverID identifies the kernel driver that services a device. It is
// included in every command so that the kernel can interpret attributes in
// the driver specific namespace.
type DriverID uint32

const (
	ObjectDevice ObjectID = iota // No instances of DEVICE are allowed
	ObjectPD
	ObjectCompChannel
	ObjectCQ
	ObjectQP
	ObjectSRQ
	ObjectAH
	ObjectMR
	ObjectMW
	ObjectFlow
	ObjectFlowAction
	ObjectXRCD
	ObjectRWQIndTbl
	ObjectWQ
)

const (
	MethodCQCreate MethodID = iota
	MethodCQDestroy
)

const (
	MethodFlowActionESPCreate MethodID = iota
	MethodFlowActionDestroy
	MethodFlowActionESPModify
)

const (
	// AttrFlagMandatory indicates that the kernel must reject the command
	// if it doesn't recognize the attribute. It is set on all attributes
	// by default.
	AttrFlagMandatory AttrFlags = 1 << 0

	// AttrFlagValidOutput is set by the kernel on output attributes that
	// it wrote to.
	AttrFlagValidOutput AttrFlags = 1 << 1
)

const (
	// attrIDNamespaceShift is the bit position of the namespace part of an
	// attribute ID.
	attrIDNamespaceShift = 12

	// AttrDriverDataNamespace is the attribute namespace reserved for
	// unstructured driver specific data.
	AttrDriverDataNamespace AttrID = 1 << attrIDNamespaceShift

	// AttrUHWIn carries the driver specific part of a legacy command
	// structure.
	AttrUHWIn AttrID = AttrDriverDataNamespace

	// AttrUHWOut carries the driver specific part of a legacy response
	// structure.
	AttrUHWOut AttrID = AttrDriverDataNamespace + 1
)

const (
	DriverUnknown DriverID = iota
	DriverMLX5
	DriverMLX4
	DriverCXGB3
	DriverCXGB4
	DriverMTHCA
	DriverBNXTRE
	DriverOCRDMA
	DriverNES
	DriverI40IW
	DriverVMWPVRDMA
	DriverQEDR
	DriverHNS
	DriverUSNIC
	DriverRXE
	DriverHFI1
	DriverQIB
)

const (
	// RDMAIoctlMagic is the ioctl type used by the RDMA subsystem.
	RDMAIoctlMagic = 0x1b

	// RDMAVerbsIoctl is the ioctl request number used to submit commands
	// to a uverbs character device. It is _IOWR(0x1b, 1, struct
	// ib_uverbs_ioctl_hdr).
	RDMAVerbsIoctl = 3<<30 | ioctlHeaderSize<<16 | RDMAIoctlMagic<<8 | 1
)

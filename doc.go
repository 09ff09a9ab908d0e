// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

/*
Package ibverbs implements the command encoding used to communicate with
Linux RDMA uverbs devices via the RDMA_VERBS_IOCTL ioctl.

A command consists of a header that identifies an object type and a method,
followed by an array of attributes. Each attribute has an ID that is scoped
to the object and method, a set of flags and a payload. Payloads of up to 8
bytes are carried inline, and larger payloads and all outputs are passed by
reference to caller owned memory that the kernel reads from or writes to.

Quick start

In order to submit a command to a uverbs device:
 device, err := linux.DefaultDevice()
 if err != nil {
	return err
 }
 ctx, err := device.OpenContext()
 if err != nil {
	return err
 }
 defer ctx.Close()

 cmd := ibverbs.NewCommandBuffer(ibverbs.ObjectCQ, ibverbs.MethodCQDestroy, 2)
 cmd.FillObj(cq.DestroyHandle, handle)
 var resp [8]byte
 cmd.FillOut(cq.DestroyResp, resp[:])
 if err := ctx.Execute(cmd); err != nil {
	return err
 }

All attributes are mandatory by default, meaning that the kernel rejects the
command if it doesn't recognize them. Wrap a Fill call with Attr.Optional to
permit the kernel to ignore it:
 cmd.FillUint32(cq.CreateFlags, flags).Optional()

Older commands pass driver specific data as the trailing part of fixed
layout command and response structures. These can be submitted with
Context.ExecuteLegacy, which appends those parts as the AttrUHWIn and
AttrUHWOut attributes.

The capacity of a CommandBuffer is fixed when it is created. Appending too
many attributes or an attribute with a payload larger than MaxAttrLen is a
programming error and causes a panic.
*/
package ibverbs

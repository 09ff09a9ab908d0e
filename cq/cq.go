// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

/*
Package cq implements the commands for creating and destroying completion
queues.
*/
package cq

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/xerrors"

	"github.com/canonical/go-ibverbs"
)

// Attribute IDs for ibverbs.MethodCQCreate.
const (
	CreateHandle ibverbs.AttrID = iota
	CreateCQE
	CreateUserHandle
	CreateCompChannel
	CreateCompVector
	CreateFlags
	CreateRespCQE
)

// Attribute IDs for ibverbs.MethodCQDestroy.
const (
	DestroyHandle ibverbs.AttrID = iota
	DestroyResp
)

const (
	// CreateCommonCmdSize is the size of the common part of the legacy
	// create CQ command, including the command header. Driver specific
	// data follows it.
	CreateCommonCmdSize = 40

	// CreateCommonRespSize is the size of the common part of the legacy
	// create CQ response, which consists of the CQ handle and the number
	// of CQEs.
	CreateCommonRespSize = 8

	destroyRespSize = 8
)

// NoCompChannel is used in CreateParams to indicate that the CQ is not
// associated with a completion channel.
const NoCompChannel = -1

var hostEndian = binary.NativeEndian

// CreateParams contains the parameters of a new completion queue.
type CreateParams struct {
	CQE         uint32 // Minimum number of entries
	UserHandle  uint64 // Opaque value returned in completion events
	CompChannel int    // Completion channel descriptor, or NoCompChannel
	CompVector  uint32
	Flags       uint32 // Creation flags. These are sent as an optional attribute
}

// CQ describes a completion queue created by the kernel.
type CQ struct {
	Handle uint32
	CQE    uint32 // Actual number of entries, which may exceed the requested number
}

// DestroyResponse is returned when a completion queue is destroyed.
type DestroyResponse struct {
	CompEventsReported  uint32
	AsyncEventsReported uint32
}

// Create creates a new completion queue with the parameters in params.
//
// The cmd and resp arguments are the driver's legacy command and response
// structures. The driver specific data in cmd that follows the first
// CreateCommonCmdSize bytes is passed to the kernel, and the driver
// specific part of resp that follows the first CreateCommonRespSize bytes is
// written by the kernel. On success, the common part of resp is populated
// with the new handle and the number of entries for drivers that decode it.
func Create(ctx *ibverbs.Context, params *CreateParams, cmd, resp []byte) (*CQ, error) {
	if len(cmd) < CreateCommonCmdSize {
		return nil, fmt.Errorf("command too short (%d bytes)", len(cmd))
	}
	if len(resp) < CreateCommonRespSize {
		return nil, fmt.Errorf("response too short (%d bytes)", len(resp))
	}

	b := ibverbs.NewLegacyCommandBuffer(ibverbs.ObjectCQ, ibverbs.MethodCQCreate,
		ibverbs.DefaultParamCounter(ibverbs.ObjectCQ, ibverbs.MethodCQCreate))

	handle := b.FillObjOut(CreateHandle)
	b.FillUint32(CreateCQE, params.CQE)
	b.FillUint64(CreateUserHandle, params.UserHandle)
	b.FillInFd(CreateCompChannel, params.CompChannel)
	b.FillUint32(CreateCompVector, params.CompVector)
	if params.Flags != 0 {
		b.FillUint32(CreateFlags, params.Flags).Optional()
	}
	var cqe [4]byte
	b.FillOut(CreateRespCQE, cqe[:])

	if err := ctx.ExecuteLegacy(b, cmd, CreateCommonCmdSize, resp, CreateCommonRespSize); err != nil {
		return nil, xerrors.Errorf("cannot create CQ: %w", err)
	}

	cq := &CQ{
		Handle: handle.Handle(),
		CQE:    hostEndian.Uint32(cqe[:])}

	hostEndian.PutUint32(resp[0:], cq.Handle)
	hostEndian.PutUint32(resp[4:], cq.CQE)

	return cq, nil
}

// Destroy destroys the completion queue with the specified handle.
func Destroy(ctx *ibverbs.Context, handle uint32) (*DestroyResponse, error) {
	b := ibverbs.NewCommandBuffer(ibverbs.ObjectCQ, ibverbs.MethodCQDestroy,
		ibverbs.DefaultParamCounter(ibverbs.ObjectCQ, ibverbs.MethodCQDestroy))

	b.FillObj(DestroyHandle, handle)
	var resp [destroyRespSize]byte
	b.FillOut(DestroyResp, resp[:])

	if err := ctx.Execute(b); err != nil {
		return nil, xerrors.Errorf("cannot destroy CQ: %w", err)
	}

	return &DestroyResponse{
		CompEventsReported:  hostEndian.Uint32(resp[0:]),
		AsyncEventsReported: hostEndian.Uint32(resp[4:])}, nil
}

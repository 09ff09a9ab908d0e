// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

/*
Package flowaction implements the commands for managing flow actions, which
are used to offload the processing of IPsec ESP packets to the device.
*/
package flowaction

import (
	"golang.org/x/xerrors"

	"github.com/canonical/go-ibverbs"
)

// CreateESP creates a new ESP flow action with the attributes in attr and
// returns its handle. The ESP field of attr must be set.
func CreateESP(ctx *ibverbs.Context, attr *ESPAttr) (uint32, error) {
	if attr.ESP == nil {
		return 0, xerrors.New("no ESP attributes")
	}

	b := ibverbs.NewCommandBufferWithDriver(ibverbs.ObjectFlowAction, ibverbs.MethodFlowActionESPCreate, 0, nil)
	handle := b.FillObjOut(ESPHandle)
	if err := fillESPAttrs(b, attr); err != nil {
		return 0, xerrors.Errorf("invalid attributes: %w", err)
	}

	if err := ctx.Execute(b); err != nil {
		return 0, xerrors.Errorf("cannot create ESP flow action: %w", err)
	}
	return handle.Handle(), nil
}

// ModifyESP modifies the ESP flow action with the specified handle. Only the
// attributes that are set in attr are sent to the kernel.
func ModifyESP(ctx *ibverbs.Context, handle uint32, attr *ESPAttr) error {
	b := ibverbs.NewCommandBufferWithDriver(ibverbs.ObjectFlowAction, ibverbs.MethodFlowActionESPModify, 0, nil)
	b.FillObj(ESPHandle, handle)
	if err := fillESPAttrs(b, attr); err != nil {
		return xerrors.Errorf("invalid attributes: %w", err)
	}

	if err := ctx.Execute(b); err != nil {
		return xerrors.Errorf("cannot modify ESP flow action: %w", err)
	}
	return nil
}

// Destroy destroys the flow action with the specified handle.
func Destroy(ctx *ibverbs.Context, handle uint32) error {
	b := ibverbs.NewCommandBufferWithDriver(ibverbs.ObjectFlowAction, ibverbs.MethodFlowActionDestroy, 0, nil)
	b.FillObj(DestroyHandle, handle)

	if err := ctx.Execute(b); err != nil {
		return xerrors.Errorf("cannot destroy flow action: %w", err)
	}
	return nil
}

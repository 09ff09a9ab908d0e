// Copyright 2019 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

/*
Package linux provides an interface for communicating with RDMA devices using the Linux uverbs
character devices.
*/
package linux

import (
	"errors"
	"strings"

	"github.com/canonical/go-ibverbs"
)

var (
	// ErrNoDevices indicates that there are no uverbs devices.
	ErrNoDevices = errors.New("no uverbs devices are available")

	errClosed = errors.New("use of closed file")

	sysfsPath = "/sys"
	devPath   = "/dev/infiniband"
)

var driverPrefixes = []struct {
	prefix string
	id     ibverbs.DriverID
}{
	{"mlx5_", ibverbs.DriverMLX5},
	{"mlx4_", ibverbs.DriverMLX4},
	{"cxgb3_", ibverbs.DriverCXGB3},
	{"cxgb4_", ibverbs.DriverCXGB4},
	{"mthca", ibverbs.DriverMTHCA},
	{"bnxt_re", ibverbs.DriverBNXTRE},
	{"ocrdma", ibverbs.DriverOCRDMA},
	{"nes", ibverbs.DriverNES},
	{"i40iw", ibverbs.DriverI40IW},
	{"vmw_pvrdma", ibverbs.DriverVMWPVRDMA},
	{"qedr", ibverbs.DriverQEDR},
	{"hns_", ibverbs.DriverHNS},
	{"usnic_", ibverbs.DriverUSNIC},
	{"rxe", ibverbs.DriverRXE},
	{"hfi1_", ibverbs.DriverHFI1},
	{"qib", ibverbs.DriverQIB},
}

// DriverIDFromName returns the identity of the driver that services the
// RDMA device with the supplied name, based on the name prefixes that the
// kernel drivers use. It returns ibverbs.DriverUnknown for devices that
// don't use a recognized prefix.
func DriverIDFromName(ibdev string) ibverbs.DriverID {
	for _, p := range driverPrefixes {
		if strings.HasPrefix(ibdev, p.prefix) {
			return p.id
		}
	}
	return ibverbs.DriverUnknown
}

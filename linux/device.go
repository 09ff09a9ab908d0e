// Copyright 2019 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package linux

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/canonical/go-ibverbs"
)

type uverbsDevices struct {
	once    sync.Once
	devices []*Device
	err     error
}

var devices uverbsDevices

// Device represents a Linux uverbs character device.
type Device struct {
	path       string
	sysfsPath  string
	devno      int
	ibdev      string
	abiVersion int
	dev        uint64
}

// Path returns the path of the character device.
func (d *Device) Path() string {
	return d.path
}

// SysfsPath returns the path of the device in sysfs.
func (d *Device) SysfsPath() string {
	return d.sysfsPath
}

// IBDevName returns the name of the RDMA device that this character device
// belongs to, eg, "mlx5_0".
func (d *Device) IBDevName() string {
	return d.ibdev
}

// ABIVersion returns the uverbs ABI version reported by the kernel for this
// device.
func (d *Device) ABIVersion() int {
	return d.abiVersion
}

// Devnum returns the device number of the character device.
func (d *Device) Devnum() uint64 {
	return d.dev
}

// DriverID returns the identity of the driver that services this device.
func (d *Device) DriverID() ibverbs.DriverID {
	return DriverIDFromName(d.ibdev)
}

// Open opens the character device, returning a transport that can be used
// to submit commands to it. Failure to open the character device will
// result in a *os.PathError being returned.
func (d *Device) Open() (*Transport, error) {
	f, err := os.OpenFile(d.path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return newTransport(&uverbsFile{file: f}), nil
}

// OpenContext opens the character device and returns a new context that
// submits commands on behalf of the device's driver.
func (d *Device) OpenContext(options ...ibverbs.ContextOption) (*ibverbs.Context, error) {
	transport, err := d.Open()
	if err != nil {
		return nil, err
	}
	return ibverbs.NewContext(transport, d.DriverID(), options...), nil
}

// String implements [fmt.Stringer].
func (d *Device) String() string {
	return "linux uverbs character device: " + d.path + " (" + d.ibdev + ")"
}

// OpenDevice attempts to open a connection to the uverbs character device
// at the specified path. Failure to open the character device will result in
// a *os.PathError being returned.
func OpenDevice(path string) (*Transport, error) {
	device := &Device{path: path}
	transport, err := device.Open()
	if err != nil {
		return nil, err
	}

	s, err := transport.statter.Stat()
	if err != nil {
		transport.Close()
		return nil, err
	}

	if s.Mode()&os.ModeDevice == 0 {
		transport.Close()
		return nil, fmt.Errorf("unsupported file mode %v", s.Mode())
	}

	return transport, nil
}

func readSysfsString(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func readSysfsDevnum(path string) (uint64, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	var major, minor uint32
	if _, err := fmt.Sscanf(s, "%d:%d", &major, &minor); err != nil {
		return 0, xerrors.Errorf("invalid device number %q: %w", s, err)
	}
	return unix.Mkdev(major, minor), nil
}

func newDevice(path, devRoot string, devno int) (*Device, error) {
	ibdev, err := readSysfsString(filepath.Join(path, "ibdev"))
	if err != nil {
		return nil, xerrors.Errorf("cannot determine RDMA device name: %w", err)
	}

	abiStr, err := readSysfsString(filepath.Join(path, "abi_version"))
	if err != nil {
		return nil, xerrors.Errorf("cannot determine ABI version: %w", err)
	}
	abiVersion, err := strconv.Atoi(abiStr)
	if err != nil {
		return nil, xerrors.Errorf("invalid ABI version: %w", err)
	}

	dev, err := readSysfsDevnum(filepath.Join(path, "dev"))
	if err != nil {
		return nil, xerrors.Errorf("cannot determine device number: %w", err)
	}

	return &Device{
		path:       filepath.Join(devRoot, fmt.Sprintf("uverbs%d", devno)),
		sysfsPath:  path,
		devno:      devno,
		ibdev:      ibdev,
		abiVersion: abiVersion,
		dev:        dev}, nil
}

// parseDevno returns the index of a uverbsN class entry.
func parseDevno(name string) (int, bool) {
	s, ok := strings.CutPrefix(name, "uverbs")
	if !ok || s == "" || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ProbeDevices returns a list of all uverbs devices described by the sysfs
// tree mounted at sysfsRoot, sorted by device index. The character devices
// are expected to be in devRoot. Unlike ListDevices, the result is not
// cached.
func ProbeDevices(sysfsRoot, devRoot string) (out []*Device, err error) {
	class := filepath.Join(sysfsRoot, "class/infiniband_verbs")

	entries, err := os.ReadDir(class)
	switch {
	case os.IsNotExist(err):
		return nil, nil
	case err != nil:
		return nil, err
	}

	for _, entry := range entries {
		devno, ok := parseDevno(entry.Name())
		if !ok {
			// The class directory also contains the global abi_version
			// attribute.
			continue
		}

		path, err := filepath.EvalSymlinks(filepath.Join(class, entry.Name()))
		if err != nil {
			return nil, xerrors.Errorf("cannot resolve path for \"%s\": %w", entry.Name(), err)
		}

		device, err := newDevice(path, devRoot, devno)
		if err != nil {
			return nil, xerrors.Errorf("cannot obtain properties of uverbs device at %s: %w", path, err)
		}
		out = append(out, device)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].devno < out[j].devno
	})
	return out, nil
}

// ListDevices returns a list of all uverbs devices, sorted by device index.
// The devices are probed on the first call and the result is cached.
func ListDevices() ([]*Device, error) {
	devices.once.Do(func() {
		devices.devices, devices.err = ProbeDevices(sysfsPath, devPath)
	})
	return devices.devices, devices.err
}

// DefaultDevice returns the default uverbs device, which is the device with
// the lowest index. If there are no devices available, then [ErrNoDevices]
// is returned.
func DefaultDevice() (*Device, error) {
	devices, err := ListDevices()
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}
	return devices[0], nil
}

// FindDevice returns the uverbs device for the RDMA device with the
// specified name. If there is no such device, then [ErrNoDevices] is
// returned.
func FindDevice(ibdev string) (*Device, error) {
	devices, err := ListDevices()
	if err != nil {
		return nil, err
	}
	for _, device := range devices {
		if device.ibdev == ibdev {
			return device, nil
		}
	}
	return nil, ErrNoDevices
}

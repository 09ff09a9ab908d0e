// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

// ibv-ioctl lists the uverbs devices on the system and decodes serialized
// RDMA_VERBS_IOCTL commands.
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/canonical/go-ibverbs"
	"github.com/canonical/go-ibverbs/linux"
)

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "ibv-ioctl").Logger()
}

func usage(flags *flag.FlagSet) {
	out := flags.Output()
	fmt.Fprintf(out, "Usage: ibv-ioctl [options] list\n")
	fmt.Fprintf(out, "       ibv-ioctl [options] decode <hex>\n\n")
	flags.PrintDefaults()
}

func run(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("ibv-ioctl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "path to a TOML config file")
	device := flags.String("device", "", "RDMA device name, overriding the config file")
	verbose := flags.Bool("v", false, "enable debug logging")
	flags.Usage = func() { usage(flags) }
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			return err
		}
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *verbose {
		cfg.LogLevel = zerolog.DebugLevel
	}

	logger := newLogger(stderr, cfg.LogLevel)

	switch flags.Arg(0) {
	case "list":
		return listDevices(stdout, logger, &cfg)
	case "decode":
		if flags.NArg() != 2 {
			return errors.New("decode requires a single hex encoded command")
		}
		return decodeCommand(stdout, flags.Arg(1))
	case "":
		usage(flags)
		return errors.New("no command specified")
	default:
		return fmt.Errorf("unknown command %q", flags.Arg(0))
	}
}

func listDevices(w io.Writer, logger zerolog.Logger, cfg *config) error {
	logger.Debug().Str("sysfs_path", cfg.SysfsPath).Str("dev_path", cfg.DevPath).Msg("probing devices")

	devices, err := linux.ProbeDevices(cfg.SysfsPath, cfg.DevPath)
	if err != nil {
		return xerrors.Errorf("cannot list devices: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tIBDEV\tDRIVER\tABI\tDEV")
	n := 0
	for _, device := range devices {
		if cfg.Device != "" && device.IBDevName() != cfg.Device {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\t%d\t%d:%d\n", device.Path(), device.IBDevName(), device.DriverID(),
			device.ABIVersion(), unix.Major(device.Devnum()), unix.Minor(device.Devnum()))
		n++
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	logger.Debug().Int("count", n).Msg("listed devices")
	if n == 0 {
		return linux.ErrNoDevices
	}
	return nil
}

func decodeCommand(w io.Writer, s string) error {
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return xerrors.Errorf("cannot decode hex: %w", err)
	}

	hdr, attrs, err := ibverbs.ParseRequest(b)
	if err != nil {
		return xerrors.Errorf("cannot decode command: %w", err)
	}

	fmt.Fprintf(w, "object: %v\n", hdr.ObjectID)
	fmt.Fprintf(w, "method: %d\n", hdr.MethodID)
	fmt.Fprintf(w, "driver: %v\n", hdr.DriverID)
	fmt.Fprintf(w, "attrs: %d\n", hdr.NumAttrs)
	for i, attr := range attrs {
		fmt.Fprintf(w, "  [%d] id=%v len=%d flags=%v elem=%d data=0x%016x\n",
			i, attr.AttrID, attr.Len, attr.Flags, attr.ElemID, attr.Data)
	}
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

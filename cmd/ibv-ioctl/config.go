// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package main

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

type config struct {
	Device    string // RDMA device name, eg "mlx5_0". Empty matches all devices
	LogLevel  zerolog.Level
	SysfsPath string
	DevPath   string
}

func defaultConfig() config {
	return config{
		LogLevel:  zerolog.InfoLevel,
		SysfsPath: "/sys",
		DevPath:   "/dev/infiniband"}
}

type fileConfig struct {
	Device    string `toml:"device"`
	LogLevel  string `toml:"log_level"`
	SysfsPath string `toml:"sysfs_path"`
	DevPath   string `toml:"dev_path"`
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, xerrors.Errorf("cannot load config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, xerrors.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("device") {
		cfg.Device = strings.TrimSpace(raw.Device)
	}

	if meta.IsDefined("log_level") {
		level, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return config{}, xerrors.Errorf("cannot parse log_level: %w", err)
		}
		cfg.LogLevel = level
	}

	if meta.IsDefined("sysfs_path") {
		cfg.SysfsPath = strings.TrimSpace(raw.SysfsPath)
	}

	if meta.IsDefined("dev_path") {
		cfg.DevPath = strings.TrimSpace(raw.DevPath)
	}

	return cfg, nil
}

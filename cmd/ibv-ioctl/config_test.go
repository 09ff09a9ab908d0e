// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	. "gopkg.in/check.v1"
)

type configSuite struct{}

var _ = Suite(&configSuite{})

func (s *configSuite) writeConfig(c *C, contents string) string {
	path := filepath.Join(c.MkDir(), "config.toml")
	c.Assert(os.WriteFile(path, []byte(contents), 0644), IsNil)
	return path
}

func (s *configSuite) TestLoadConfig(c *C) {
	path := s.writeConfig(c, `
device = " mlx5_1 "
log_level = "warn"
sysfs_path = "/tmp/sys"
dev_path = "/tmp/dev"
`)
	cfg, err := loadConfig(path)
	c.Assert(err, IsNil)
	c.Check(cfg, DeepEquals, config{
		Device:    "mlx5_1",
		LogLevel:  zerolog.WarnLevel,
		SysfsPath: "/tmp/sys",
		DevPath:   "/tmp/dev"})
}

func (s *configSuite) TestLoadConfigDefaults(c *C) {
	cfg, err := loadConfig(s.writeConfig(c, `device = "rxe0"`))
	c.Assert(err, IsNil)
	c.Check(cfg, DeepEquals, config{
		Device:    "rxe0",
		LogLevel:  zerolog.InfoLevel,
		SysfsPath: "/sys",
		DevPath:   "/dev/infiniband"})
}

func (s *configSuite) TestLoadConfigInvalidLogLevel(c *C) {
	_, err := loadConfig(s.writeConfig(c, `log_level = "loud"`))
	c.Check(err, ErrorMatches, "cannot parse log_level: .*")
}

func (s *configSuite) TestLoadConfigUnknownKey(c *C) {
	_, err := loadConfig(s.writeConfig(c, `foo = 1`))
	c.Check(err, ErrorMatches, `unknown config key "foo"`)
}

func (s *configSuite) TestLoadConfigMissing(c *C) {
	_, err := loadConfig(filepath.Join(c.MkDir(), "missing.toml"))
	c.Check(err, ErrorMatches, "cannot load config: open .*: no such file or directory")
}

func (s *configSuite) TestLoadConfigInvalidSyntax(c *C) {
	_, err := loadConfig(s.writeConfig(c, `device = `))
	c.Check(err, ErrorMatches, "cannot load config: .*")
}

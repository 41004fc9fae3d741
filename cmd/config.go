// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
)

// config.toml key mapping to command settings
type fileConfig struct {
	Port          string `toml:"port"`
	ActiveSensing bool   `toml:"active_sensing"`
	Baud          int    `toml:"baud"`
	LogLevel      string `toml:"log_level"`
	Capture       string `toml:"capture"`
}

type config struct {
	path string // empty when no file was loaded
	file fileConfig
	meta toml.MetaData
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "midiscope", "config.toml")
}

// loadConfig reads the TOML config at path, or the default location when
// path is empty. Only an explicitly named file has to exist.
func loadConfig(path string, explicit bool) (*config, error) {
	if path == "" {
		path = defaultConfigPath()
	}
	cfg := &config{}
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, &cfg.file)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config: unknown key %q in %s", undecoded[0].String(), path)
	}

	cfg.path = path
	cfg.meta = meta
	return cfg, nil
}

func (c *config) isDefined(key string) bool {
	return c.path != "" && c.meta.IsDefined(key)
}

// apply copies file values into the flag variables the command line left alone
func (c *config) apply(flags *pflag.FlagSet) {
	unset := func(key, flag string) bool {
		return c.isDefined(key) && flags.Lookup(flag) != nil && !flags.Changed(flag)
	}

	if unset("port", "port") {
		portName = strings.TrimSpace(c.file.Port)
	}
	if unset("active_sensing", "active-sensing") {
		activeSensing = c.file.ActiveSensing
	}
	if unset("baud", "baud") {
		baudRate = c.file.Baud
	}
	if unset("capture", "capture") {
		capturePath = strings.TrimSpace(c.file.Capture)
	}
}

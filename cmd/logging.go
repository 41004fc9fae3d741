// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogLevel overrides the config file's log_level
const EnvLogLevel = "MIDISCOPE_LOG_LEVEL"

// initLogger writes diagnostics to w, leaving stdout to the byte stream
func initLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "midiscope").Logger()
}

// resolveLogLevel picks the level from the flag, then the environment,
// then the config file
func resolveLogLevel(flagSet bool, flagValue string, cfg *config) (zerolog.Level, error) {
	raw := flagValue
	if !flagSet {
		if env := os.Getenv(EnvLogLevel); env != "" {
			raw = env
		} else if cfg != nil && cfg.isDefined("log_level") {
			raw = cfg.file.LogLevel
		}
	}

	level, ok := parseLevel(raw)
	if !ok {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "", "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.NoLevel, false
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Thermoquad/midiscope/pkg/rawport"
)

// EnvPassword holds the WebSocket bridge password
const EnvPassword = "MIDISCOPE_PASSWORD"

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv(EnvPassword); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// portOptions builds the open options from the command line
func portOptions(name string) (rawport.Options, error) {
	opts := rawport.Options{
		BaudRate:      baudRate,
		Username:      wsUsername,
		SkipSSLVerify: wsNoSSLVerify,
	}

	isWebSocket := strings.HasPrefix(name, "ws://") || strings.HasPrefix(name, "wss://")
	if isWebSocket && wsUsername != "" {
		password, err := GetPassword()
		if err != nil {
			return opts, err
		}
		opts.Password = password
	}
	return opts, nil
}

// OpenPort opens the named input port in nonblocking mode
func OpenPort(name string) (rawport.Handle, error) {
	opts, err := portOptions(name)
	if err != nil {
		return nil, err
	}

	h, err := rawport.Open(name, opts)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("port", h.Name()).Msg("port opened")
	return h, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rawport

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Address identifies an ALSA rawmidi substream
type Address struct {
	Card      int
	Device    int
	Subdevice int // -1 lets the kernel pick a free subdevice
}

func (a Address) String() string {
	if a.Subdevice < 0 {
		return fmt.Sprintf("hw:%d,%d", a.Card, a.Device)
	}
	return fmt.Sprintf("hw:%d,%d,%d", a.Card, a.Device, a.Subdevice)
}

// DevicePath returns the rawmidi character device for the address
func (a Address) DevicePath(devRoot string) string {
	return filepath.Join(devRoot, fmt.Sprintf("midiC%dD%d", a.Card, a.Device))
}

// ControlPath returns the control device of the address's card
func (a Address) ControlPath(devRoot string) string {
	return filepath.Join(devRoot, fmt.Sprintf("controlC%d", a.Card))
}

// ParseName resolves an ALSA rawmidi name to an address.
//
// Accepted forms are "default" (card 0, device 0), positional "hw:C,D[,S]"
// and keyed "hw:CARD=c,DEV=d,SUBDEV=s". A card may be given by index or by
// its id, which is looked up under procRoot.
func ParseName(name, procRoot string) (Address, error) {
	addr := Address{Subdevice: -1}

	if name == DefaultPortName || name == "" {
		return addr, nil
	}

	args, ok := strings.CutPrefix(name, "hw:")
	if !ok {
		return Address{}, fmt.Errorf("unknown port name %q", name)
	}
	if args == "" {
		return Address{}, fmt.Errorf("missing card in %q", name)
	}

	keys := []string{"CARD", "DEV", "SUBDEV"}
	for i, arg := range strings.Split(args, ",") {
		key, value, keyed := strings.Cut(arg, "=")
		if !keyed {
			if i >= len(keys) {
				return Address{}, fmt.Errorf("too many arguments in %q", name)
			}
			key, value = keys[i], arg
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "CARD":
			card, err := resolveCard(value, procRoot)
			if err != nil {
				return Address{}, err
			}
			addr.Card = card
		case "DEV", "DEVICE":
			dev, err := parseIndex(value, "device")
			if err != nil {
				return Address{}, err
			}
			addr.Device = dev
		case "SUBDEV", "SUBDEVICE":
			sub, err := strconv.Atoi(value)
			if err != nil || sub < -1 {
				return Address{}, fmt.Errorf("invalid subdevice %q", value)
			}
			addr.Subdevice = sub
		default:
			return Address{}, fmt.Errorf("unknown argument %q in %q", key, name)
		}
	}

	return addr, nil
}

// resolveCard accepts a card index or a card id such as "USB" or "Keystation"
func resolveCard(value, procRoot string) (int, error) {
	if card, err := parseIndex(value, "card"); err == nil {
		return card, nil
	}

	// /proc/asound/<id> is a symlink to card<N>
	target, err := os.Readlink(filepath.Join(procRoot, value))
	if err != nil {
		return 0, fmt.Errorf("cannot find card %q: %w", value, err)
	}
	index, ok := strings.CutPrefix(filepath.Base(target), "card")
	if !ok {
		return 0, fmt.Errorf("unexpected card link %q for %q", target, value)
	}
	return parseIndex(index, "card")
}

func parseIndex(value, what string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", what, value)
	}
	return n, nil
}

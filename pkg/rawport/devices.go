// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rawport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoSoundCard is returned by ListDevices when no card is registered
var ErrNoSoundCard = errors.New("no sound card found")

// DeviceInfo describes one ALSA rawmidi device
type DeviceInfo struct {
	Address Address
	Name    string
	Inputs  int // input subdevices
	Outputs int // output subdevices
}

// Subdevices returns the larger of the input and output subdevice counts
func (d DeviceInfo) Subdevices() int {
	return max(d.Inputs, d.Outputs)
}

// ListDevices enumerates rawmidi devices from the ALSA proc tree.
// Each card<N>/midi<D> file holds the device name on its first line
// followed by one "Input <n>" or "Output <n>" section per substream.
func ListDevices(procRoot string) ([]DeviceInfo, error) {
	cards, err := filepath.Glob(filepath.Join(procRoot, "card[0-9]*"))
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrNoSoundCard
	}

	var devices []DeviceInfo
	for _, card := range cards {
		var cardIndex int
		if _, err := fmt.Sscanf(filepath.Base(card), "card%d", &cardIndex); err != nil {
			continue
		}

		files, err := filepath.Glob(filepath.Join(card, "midi[0-9]*"))
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			var device int
			if _, err := fmt.Sscanf(filepath.Base(file), "midi%d", &device); err != nil {
				continue
			}
			info, err := readDeviceInfo(file)
			if err != nil {
				return nil, fmt.Errorf("cannot get rawmidi information %d:%d: %w", cardIndex, device, err)
			}
			info.Address = Address{Card: cardIndex, Device: device, Subdevice: -1}
			devices = append(devices, info)
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		a, b := devices[i].Address, devices[j].Address
		if a.Card != b.Card {
			return a.Card < b.Card
		}
		return a.Device < b.Device
	})
	return devices, nil
}

func readDeviceInfo(path string) (DeviceInfo, error) {
	var info DeviceInfo

	f, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			info.Name = strings.TrimSpace(line)
			first = false
			continue
		}
		switch {
		case strings.HasPrefix(line, "Input "):
			info.Inputs++
		case strings.HasPrefix(line, "Output "):
			info.Outputs++
		}
	}
	return info, scanner.Err()
}

// FormatDevices writes the device table shown by --list-devices.
// Devices without any substream are omitted.
func FormatDevices(w io.Writer, devices []DeviceInfo) error {
	if _, err := fmt.Fprintln(w, "Dir Device    Name"); err != nil {
		return err
	}
	for _, d := range devices {
		if d.Inputs == 0 && d.Outputs == 0 {
			continue
		}
		in, out := ' ', ' '
		if d.Inputs > 0 {
			in = 'I'
		}
		if d.Outputs > 0 {
			out = 'O'
		}

		var err error
		if subs := d.Subdevices(); subs > 1 {
			_, err = fmt.Fprintf(w, "%c%c  hw:%d,%d    %s (%d subdevices)\n",
				in, out, d.Address.Card, d.Address.Device, d.Name, subs)
		} else {
			_, err = fmt.Fprintf(w, "%c%c  hw:%d,%d    %s\n",
				in, out, d.Address.Card, d.Address.Device, d.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rawport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeProcFile(t *testing.T, root, card, name, content string) {
	t.Helper()
	dir := filepath.Join(root, card)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const midiThrough = `Midi Through

Output 0
  Tx bytes     : 0
Input 0
  Rx bytes     : 0
  Buffer size  : 4096
  Avail        : 0
`

const keystation = `Keystation 88

Output 0
  Tx bytes     : 120
Output 1
  Tx bytes     : 0
Input 0
  Rx bytes     : 3321
Input 1
  Rx bytes     : 0
`

const outputOnly = `Synth Out

Output 0
  Tx bytes     : 0
`

func TestListDevices(t *testing.T) {
	root := t.TempDir()
	writeProcFile(t, root, "card10", "midi0", outputOnly)
	writeProcFile(t, root, "card1", "midi0", keystation)
	writeProcFile(t, root, "card0", "midi0", midiThrough)
	writeProcFile(t, root, "card0", "pcm0p", "not midi")
	writeProcFile(t, root, "card0", "id", "Dummy")

	devices, err := ListDevices(root)
	require.NoError(t, err)
	require.Len(t, devices, 3)

	require.Equal(t, Address{0, 0, -1}, devices[0].Address)
	require.Equal(t, "Midi Through", devices[0].Name)
	require.Equal(t, 1, devices[0].Inputs)
	require.Equal(t, 1, devices[0].Outputs)

	require.Equal(t, Address{1, 0, -1}, devices[1].Address)
	require.Equal(t, 2, devices[1].Subdevices())

	require.Equal(t, Address{10, 0, -1}, devices[2].Address)
	require.Zero(t, devices[2].Inputs)
}

func TestListDevices_NoCard(t *testing.T) {
	_, err := ListDevices(t.TempDir())
	require.ErrorIs(t, err, ErrNoSoundCard)
}

func TestFormatDevices(t *testing.T) {
	devices := []DeviceInfo{
		{Address: Address{0, 0, -1}, Name: "Midi Through", Inputs: 1, Outputs: 1},
		{Address: Address{1, 0, -1}, Name: "Keystation 88", Inputs: 2, Outputs: 2},
		{Address: Address{2, 0, -1}, Name: "Synth Out", Outputs: 1},
		{Address: Address{2, 1, -1}, Name: "Nothing"},
	}

	var buf bytes.Buffer
	require.NoError(t, FormatDevices(&buf, devices))

	expected := "Dir Device    Name\n" +
		"IO  hw:0,0    Midi Through\n" +
		"IO  hw:1,0    Keystation 88 (2 subdevices)\n" +
		" O  hw:2,0    Synth Out\n"
	require.Equal(t, expected, buf.String())
}

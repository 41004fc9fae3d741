// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rawport

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// RawMIDIDefinition is a top-level rawmidi entry found in an ALSA config file
type RawMIDIDefinition struct {
	Source string
	Text   string
}

// ConfigPaths returns the ALSA configuration files in load order
func ConfigPaths(home string) []string {
	paths := []string{
		"/usr/share/alsa/alsa.conf",
		"/etc/asound.conf",
	}
	if home != "" {
		paths = append(paths, filepath.Join(home, ".asoundrc"))
	}
	return paths
}

// ListRawMIDIs collects rawmidi definitions from the given config files.
// Missing files are skipped.
func ListRawMIDIs(paths []string) ([]RawMIDIDefinition, error) {
	var defs []RawMIDIDefinition
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read ALSA config: %w", err)
		}
		for _, text := range ExtractRawMIDIDefinitions(string(data)) {
			defs = append(defs, RawMIDIDefinition{Source: path, Text: text})
		}
	}
	return defs, nil
}

// FormatRawMIDIs writes the listing shown by --list-rawmidis
func FormatRawMIDIs(w io.Writer, defs []RawMIDIDefinition) error {
	if len(defs) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "RawMIDI list:"); err != nil {
		return err
	}
	source := ""
	for _, d := range defs {
		if d.Source != source {
			source = d.Source
			if _, err := fmt.Fprintf(w, "# %s\n", source); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, d.Text); err != nil {
			return err
		}
	}
	return nil
}

// ExtractRawMIDIDefinitions returns the source text of every top-level
// "rawmidi" or "rawmidi.<name>" entry in an ALSA configuration document
func ExtractRawMIDIDefinitions(src string) []string {
	s := &confScanner{src: src}

	var defs []string
	for {
		s.skip()
		start := s.pos
		key := s.token()
		if key == "" {
			return defs
		}

		switch key {
		case "}", "]", "=":
			continue
		case "{", "[":
			s.skipCompound()
			continue
		}
		if strings.HasPrefix(key, "<") {
			// include directive, no value
			continue
		}

		s.skipValue()

		name := strings.Trim(strings.TrimLeft(key, "!?"), `"'`)
		if name == "rawmidi" || strings.HasPrefix(name, "rawmidi.") {
			defs = append(defs, strings.TrimSpace(src[start:s.pos]))
		}
	}
}

// confScanner tokenizes the ALSA configuration syntax
type confScanner struct {
	src string
	pos int
}

// skip moves past whitespace, separators and comments
func (s *confScanner) skip() {
	for s.pos < len(s.src) {
		switch c := s.src[s.pos]; c {
		case '#':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
		case ' ', '\t', '\n', '\r', ',', ';':
			s.pos++
		default:
			return
		}
	}
}

func (s *confScanner) token() string {
	s.skip()
	if s.pos >= len(s.src) {
		return ""
	}

	start := s.pos
	switch c := s.src[s.pos]; c {
	case '{', '}', '[', ']', '=':
		s.pos++
		return s.src[start:s.pos]
	case '"', '\'':
		s.pos++
		for s.pos < len(s.src) {
			ch := s.src[s.pos]
			s.pos++
			if ch == '\\' {
				s.pos = min(s.pos+1, len(s.src))
				continue
			}
			if ch == c {
				break
			}
		}
		return s.src[start:s.pos]
	}

	for s.pos < len(s.src) && !strings.ContainsRune(" \t\r\n{}[]=,;#\"'", rune(s.src[s.pos])) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *confScanner) skipValue() {
	tok := s.token()
	if tok == "=" {
		tok = s.token()
	}
	if tok == "{" || tok == "[" {
		s.skipCompound()
	}
}

// skipCompound consumes tokens up to the matching closing bracket
func (s *confScanner) skipCompound() {
	depth := 1
	for depth > 0 {
		switch s.token() {
		case "":
			return
		case "{", "[":
			depth++
		case "}", "]":
			depth--
		}
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package midistream

// State is the framer's position inside the current message
type State uint8

const (
	StateUnknown State = iota
	StateOneParam
	StateOneParamRunning
	StateTwoParamFirst
	StateTwoParamSecond
	StateTwoParamFirstRunning
	StateSysEx
)

var stateNames = [...]string{
	StateUnknown:              "UNKNOWN",
	StateOneParam:             "ONE_PARAM",
	StateOneParamRunning:      "ONE_PARAM_RUNNING",
	StateTwoParamFirst:        "TWO_PARAM_FIRST",
	StateTwoParamSecond:       "TWO_PARAM_SECOND",
	StateTwoParamFirstRunning: "TWO_PARAM_FIRST_RUNNING",
	StateSysEx:                "SYSEX",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "INVALID"
}

// Boundary says where a byte sits relative to the previous one
type Boundary uint8

const (
	// StartLine begins a new message on a new line
	StartLine Boundary = iota
	// Continue extends the current message on the same line
	Continue
	// RunningStatusIndent begins a message whose status byte was omitted
	RunningStatusIndent
)

func (b Boundary) String() string {
	switch b {
	case StartLine:
		return "START_LINE"
	case Continue:
		return "CONTINUE"
	case RunningStatusIndent:
		return "RUNNING_STATUS_INDENT"
	default:
		return "INVALID"
	}
}

// Directive is the rendering decision for one byte
type Directive struct {
	Boundary Boundary
	Hex      string
}

// Framer implements the MIDI message boundary state machine.
//
// A Framer is not safe for concurrent use. The zero value is ready to use and
// starts in StateUnknown.
type Framer struct {
	state State
}

// NewFramer creates a framer in the unknown state
func NewFramer() *Framer {
	return &Framer{state: StateUnknown}
}

// State returns the current framer state
func (f *Framer) State() State {
	return f.state
}

// Classify consumes one byte and returns how it should be rendered.
// Bytes must be fed in stream order with none skipped.
func (f *Framer) Classify(b byte) Directive {
	return Directive{Boundary: f.step(b), Hex: hexTable[b]}
}

func (f *Framer) step(b byte) Boundary {
	switch {
	case b >= RealTimeMin:
		// Real-time bytes may interleave anywhere and leave the state alone
		return StartLine

	case b >= SystemMin:
		boundary := StartLine
		switch b {
		case SysExStart:
			f.state = StateSysEx
		case MTCQuarterFrame, SongSelect:
			f.state = StateOneParam
		case SongPosition:
			f.state = StateTwoParamFirst
		case Undefined4, Undefined5, TuneRequest:
			f.state = StateUnknown
		case SysExEnd:
			if f.state == StateSysEx {
				boundary = Continue
			}
			f.state = StateUnknown
		}
		return boundary

	case b >= StatusMin:
		if b >= OneParamMin && b <= OneParamMax {
			f.state = StateOneParam
		} else {
			f.state = StateTwoParamFirst
		}
		return StartLine
	}

	// Data byte
	switch f.state {
	case StateUnknown:
		return StartLine
	case StateSysEx:
		return Continue
	case StateOneParam:
		f.state = StateOneParamRunning
		return Continue
	case StateOneParamRunning:
		return RunningStatusIndent
	case StateTwoParamFirst:
		f.state = StateTwoParamSecond
		return Continue
	case StateTwoParamSecond:
		f.state = StateTwoParamFirstRunning
		return Continue
	case StateTwoParamFirstRunning:
		f.state = StateTwoParamSecond
		return RunningStatusIndent
	default:
		return StartLine
	}
}

var hexTable = func() (t [256]string) {
	for i := range t {
		t[i] = string([]byte{hexDigitsUpper[i>>4], hexDigitsUpper[i&0x0F]})
	}
	return t
}()

// Hex returns the two-digit uppercase hex text of b
func Hex(b byte) string {
	return hexTable[b]
}

// AppendTo appends the rendered form of d to dst
func (d Directive) AppendTo(dst []byte) []byte {
	switch d.Boundary {
	case Continue:
		dst = append(dst, separator)
	case RunningStatusIndent:
		dst = append(dst, lineBreak)
		dst = append(dst, runningIndent...)
		dst = append(dst, separator)
	default:
		dst = append(dst, lineBreak)
	}
	return append(dst, d.Hex...)
}

// String returns the rendered form of d
func (d Directive) String() string {
	return string(d.AppendTo(nil))
}

// Package key turns the terminal's raw byte stream into logical key events.
//
// Bytes outside escape sequences are delivered one at a time as Char events,
// including the individual bytes of multibyte UTF-8 characters; reassembly
// is the line engine's job, never this package's. Escape sequences are
// decoded by a fixed decision tree that looks at most four bytes past the
// introducer and never backtracks.
package key

import "fmt"

// Kind discriminates key events.
type Kind uint8

const (
	// KindChar is a literal input byte, control bytes included.
	KindChar Kind = iota
	KindArrow
	KindCtrlArrow
	KindPage
	KindHome
	KindEnd
	KindDelete
	// KindEscape is a bare escape key or an escape sequence the decoder
	// does not recognize. The editor treats it as a no-op.
	KindEscape
)

// Direction qualifies arrow, ctrl-arrow and page events.
type Direction uint8

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	default:
		return "right"
	}
}

// Event is one decoded key. Dir is meaningful for arrow, ctrl-arrow and
// page kinds; Byte only for KindChar.
type Event struct {
	Kind Kind
	Dir  Direction
	Byte byte
}

// Char wraps a literal byte in an event.
func Char(b byte) Event { return Event{Kind: KindChar, Byte: b} }

// Arrow returns an arrow event in the given direction.
func Arrow(d Direction) Event { return Event{Kind: KindArrow, Dir: d} }

// CtrlArrow returns a ctrl-arrow event in the given direction.
func CtrlArrow(d Direction) Event { return Event{Kind: KindCtrlArrow, Dir: d} }

// Page returns a page-up or page-down event.
func Page(d Direction) Event { return Event{Kind: KindPage, Dir: d} }

// Ctrl maps a letter to the byte the terminal sends when it is pressed with
// the control key held, so Ctrl('q') is ctrl-Q.
func Ctrl(b byte) byte { return b & 0x1f }

func (e Event) String() string {
	switch e.Kind {
	case KindChar:
		return fmt.Sprintf("char(%q)", e.Byte)
	case KindArrow:
		return "arrow(" + e.Dir.String() + ")"
	case KindCtrlArrow:
		return "ctrl-arrow(" + e.Dir.String() + ")"
	case KindPage:
		return "page(" + e.Dir.String() + ")"
	case KindHome:
		return "home"
	case KindEnd:
		return "end"
	case KindDelete:
		return "delete"
	default:
		return "escape"
	}
}

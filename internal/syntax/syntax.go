// Package syntax provides highlight classification for quill: the highlight
// classes and their ANSI palette, the line tokenizer with its cross-line
// state, declarative language definitions, and the registry that selects a
// definition for a file.
package syntax

import "fmt"

// Class identifies the highlight classification of a single rendered byte.
type Class uint8

const (
	ClassNormal Class = iota
	ClassNumber
	ClassMatch
	ClassString
	ClassBlockString
	ClassComment
	ClassBlockComment
	ClassKeyword1
	ClassKeyword2
)

// sgrCodes maps each class to its SGR color code. Match is a background
// color (cyan); everything else sets the foreground. Block variants share
// the color of their single-line counterpart.
var sgrCodes = [...]int{
	ClassNormal:       39,
	ClassNumber:       31,
	ClassMatch:        46,
	ClassString:       32,
	ClassBlockString:  32,
	ClassComment:      34,
	ClassBlockComment: 34,
	ClassKeyword1:     33,
	ClassKeyword2:     35,
}

// Sequence returns the ANSI escape sequence that activates the class color.
func (c Class) Sequence() string {
	if int(c) >= len(sgrCodes) {
		return fmt.Sprintf("\x1b[%dm", sgrCodes[ClassNormal])
	}
	return fmt.Sprintf("\x1b[%dm", sgrCodes[c])
}

func (c Class) String() string {
	switch c {
	case ClassNormal:
		return "normal"
	case ClassNumber:
		return "number"
	case ClassMatch:
		return "match"
	case ClassString:
		return "string"
	case ClassBlockString:
		return "block-string"
	case ClassComment:
		return "comment"
	case ClassBlockComment:
		return "block-comment"
	case ClassKeyword1:
		return "keyword1"
	case ClassKeyword2:
		return "keyword2"
	default:
		return "unknown"
	}
}

// StateKind discriminates the tokenizer states that survive a byte position.
type StateKind uint8

const (
	StateNormal StateKind = iota
	StateBlockComment
	StateLineString
	StateBlockString
)

// State is the tokenizer state carried from one line into the next. The zero
// value is the Normal state. Quote is only meaningful for StateLineString.
// States are compared with == by the row-update propagation loop, so the
// type must stay comparable.
type State struct {
	Kind  StateKind
	Quote byte
}

func (s State) String() string {
	switch s.Kind {
	case StateNormal:
		return "normal"
	case StateBlockComment:
		return "block-comment"
	case StateLineString:
		return fmt.Sprintf("line-string(%q)", s.Quote)
	case StateBlockString:
		return "block-string"
	default:
		return "unknown"
	}
}

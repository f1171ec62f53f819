// Package line owns one row of text and everything derived from it: the
// rendered string with tabs expanded, the byte-offset/column mappings the
// cursor logic relies on, and the per-byte highlight classification.
//
// The raw bytes are the single source of truth. They do not have to be valid
// UTF-8; rendering decodes lossily and editing stays byte-oriented, so a file
// with broken encoding remains fully editable. All Unicode interpretation
// happens here and nowhere else.
package line

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/quill/internal/syntax"
)

// Line is one row of text plus its derived render state. After any edit the
// derived fields are stale until Update runs; the editor updates every
// touched line (and, while the carry state keeps changing, the lines below
// it) before drawing.
type Line struct {
	bytes     []byte
	render    string
	byteToCol []int
	colToByte []int
	classes   []syntax.Class
	carry     syntax.State

	hasMatch             bool
	matchStart, matchEnd int
}

// New wraps raw content bytes in a line. The line takes ownership of the
// slice. Derived fields stay empty until the first Update.
func New(content []byte) *Line {
	return &Line{bytes: content}
}

// Update recomputes the render string, both index mappings and the highlight
// classes, tokenizing from the given carry state, and returns the state to
// feed into the next line. The recompute is all-or-nothing: no field keeps a
// value derived from older bytes.
func (l *Line) Update(def *syntax.Definition, from syntax.State, tabWidth int) syntax.State {
	var render strings.Builder
	byteToCol := make([]int, 0, len(l.bytes)+1)
	colToByte := make([]int, 0, len(l.bytes)+1)

	col := 0
	for i := 0; i < len(l.bytes); {
		r, size := utf8.DecodeRune(l.bytes[i:])
		var width int
		if r == '\t' {
			width = tabWidth - col%tabWidth
			for range width {
				render.WriteByte(' ')
			}
		} else {
			width = displayWidth(r)
			render.WriteRune(r)
		}
		// Zero-width characters still get byteToCol entries so that every
		// byte offset stays addressable; they simply share a column.
		for range size {
			byteToCol = append(byteToCol, col)
		}
		for range width {
			colToByte = append(colToByte, i)
		}
		col += width
		i += size
	}
	byteToCol = append(byteToCol, col)
	colToByte = append(colToByte, len(l.bytes))

	l.render = render.String()
	l.byteToCol = byteToCol
	l.colToByte = colToByte
	l.classes, l.carry = syntax.Tokenize(l.render, def, from)
	return l.carry
}

// displayWidth is the number of terminal cells a rune occupies. Control
// characters count as one cell: Draw shows them as inverse-video pictures.
func displayWidth(r rune) int {
	if unicode.IsControl(r) {
		return 1
	}
	return runewidth.RuneWidth(r)
}

// Render returns the display form of the line, tabs already expanded.
func (l *Line) Render() string { return l.render }

// Content returns the raw bytes as a string.
func (l *Line) Content() string { return string(l.bytes) }

// Len is the byte length of the raw content.
func (l *Line) Len() int { return len(l.bytes) }

// Width is the rendered width of the whole line in columns.
func (l *Line) Width() int {
	if len(l.colToByte) == 0 {
		return 0
	}
	return len(l.colToByte) - 1
}

// ByteToCol maps a byte offset to the render column where the character
// starting there begins. Offset Len() is the sentinel for "after the last
// character" and maps to Width().
func (l *Line) ByteToCol(i int) int { return l.byteToCol[i] }

// ColToByte maps a render column back to the byte offset of the character
// occupying it; every column of a tab or wide character maps to the same
// offset. Column Width() is the sentinel and maps to Len().
func (l *Line) ColToByte(col int) int { return l.colToByte[col] }

// GetCharSize returns the byte length of the character starting at the given
// render column, found by scanning forward until the mapped byte offset
// changes. The caller uses it to step the cursor one character at a time
// without decoding UTF-8 again.
func (l *Line) GetCharSize(col int) int {
	start := l.colToByte[col]
	for c := col + 1; c < len(l.colToByte); c++ {
		if l.colToByte[c] != start {
			return l.colToByte[c] - start
		}
	}
	return 1
}

// Carry returns the tokenizer state at the end of the line, as computed by
// the last Update. The editor compares it against the next Update's result
// to decide whether to keep propagating downward.
func (l *Line) Carry() syntax.State { return l.carry }

// SetMatch overlays the search-match class on the columns [start, end).
func (l *Line) SetMatch(start, end int) {
	l.hasMatch = true
	l.matchStart, l.matchEnd = start, end
}

// ClearMatch removes the search overlay.
func (l *Line) ClearMatch() {
	l.hasMatch = false
	l.matchStart, l.matchEnd = 0, 0
}

// Insert places b at byte offset i.
func (l *Line) Insert(i int, b byte) {
	l.bytes = slices.Insert(l.bytes, i, b)
}

// Remove drops the bytes in [from, to).
func (l *Line) Remove(from, to int) {
	l.bytes = slices.Delete(l.bytes, from, to)
}

// Append concatenates another line's bytes onto this one.
func (l *Line) Append(other *Line) {
	l.bytes = append(l.bytes, other.bytes...)
}

// Split truncates the line at byte offset i and returns a new line holding
// the tail. Both halves need an Update afterwards.
func (l *Line) Split(i int) *Line {
	tail := New(slices.Clone(l.bytes[i:]))
	l.bytes = l.bytes[:i]
	return tail
}

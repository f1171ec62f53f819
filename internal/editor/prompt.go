package editor

import (
	"bytes"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zjrosen/quill/internal/key"
	"github.com/zjrosen/quill/internal/log"
)

type promptKind uint8

const (
	promptSave promptKind = iota
	promptFind
	promptGoTo
	promptExecute
)

// prompt is the single-line input mode at the bottom of the screen. While a
// prompt is active it receives every key; Enter completes it, Escape or ^Q
// cancels it.
type prompt struct {
	kind promptKind
	buf  []byte
	// pending buffers the bytes of a multi-byte character typed into the
	// prompt until they form valid UTF-8.
	pending []byte

	// saved restores the cursor when a find is cancelled.
	saved cursor
	// lastMatch is the line index of the current find hit, -1 for none.
	lastMatch int
}

func newPrompt(kind promptKind) *prompt {
	return &prompt{kind: kind, lastMatch: -1}
}

func (p *prompt) statusMessage() string {
	switch p.kind {
	case promptSave:
		return "Save as: " + string(p.buf)
	case promptFind:
		return "Search (Use ESC/Arrows/Enter): " + string(p.buf)
	case promptGoTo:
		return "Enter line number[:column number]: " + string(p.buf)
	case promptExecute:
		return "Command to execute: " + string(p.buf)
	default:
		return ""
	}
}

type promptStatus uint8

const (
	promptActive promptStatus = iota
	promptCompleted
	promptCancelled
)

// handleKey folds one key event into the prompt buffer and reports whether
// the prompt is still collecting input.
func (p *prompt) handleKey(ev key.Event) promptStatus {
	switch {
	case ev.Kind == key.KindChar && ev.Byte == '\r':
		return promptCompleted
	case ev.Kind == key.KindEscape,
		ev.Kind == key.KindChar && ev.Byte == keyExit:
		return promptCancelled
	case ev.Kind == key.KindChar && (ev.Byte == keyBackspace || ev.Byte == keyDeleteBis):
		p.popChar()
	case ev.Kind == key.KindChar && ev.Byte >= 32 && ev.Byte <= 126:
		p.buf = append(p.buf, ev.Byte)
	case ev.Kind == key.KindChar && ev.Byte >= 128:
		p.pending = append(p.pending, ev.Byte)
	}
	if len(p.pending) > 0 && utf8.Valid(p.pending) {
		p.buf = append(p.buf, p.pending...)
		p.pending = p.pending[:0]
	}
	return promptActive
}

// popChar removes the last character from the buffer, stepping over all the
// bytes of a multi-byte character.
func (p *prompt) popChar() {
	if len(p.buf) == 0 {
		return
	}
	_, size := utf8.DecodeLastRune(p.buf)
	p.buf = p.buf[:len(p.buf)-size]
}

// process handles one key event while the prompt owns the keyboard and
// returns the prompt to keep, or nil to leave prompt mode.
func (p *prompt) process(e *Editor, ev key.Event) *prompt {
	e.statusMsg = nil
	switch p.kind {
	case promptSave:
		switch p.handleKey(ev) {
		case promptActive:
			return p
		case promptCancelled:
			e.setStatus("Save aborted")
		case promptCompleted:
			e.saveAs(string(p.buf))
		}

	case promptFind:
		if p.lastMatch >= 0 {
			e.lines[p.lastMatch].ClearMatch()
		}
		switch p.handleKey(ev) {
		case promptActive:
			// Arrows cycle through matches; any edit restarts the search.
			lastMatch, forward := -1, true
			switch {
			case ev.Kind == key.KindArrow && (ev.Dir == key.DirRight || ev.Dir == key.DirDown),
				ev.Kind == key.KindChar && ev.Byte == keyFind:
				lastMatch, forward = p.lastMatch, true
			case ev.Kind == key.KindArrow && (ev.Dir == key.DirLeft || ev.Dir == key.DirUp):
				lastMatch, forward = p.lastMatch, false
			}
			p.lastMatch = e.find(string(p.buf), lastMatch, forward)
			return p
		case promptCancelled:
			e.cursor = p.saved
		case promptCompleted:
			// The cursor already sits on the match.
		}

	case promptGoTo:
		switch p.handleKey(ev) {
		case promptActive:
			return p
		case promptCancelled:
		case promptCompleted:
			e.goTo(string(p.buf))
		}

	case promptExecute:
		switch p.handleKey(ev) {
		case promptActive:
			return p
		case promptCancelled:
		case promptCompleted:
			e.execute(string(p.buf))
		}
	}
	return nil
}

// goTo moves the cursor to a "line[:column]" position, both one-based.
// Columns count render columns, so tabs and wide characters land where the
// user sees them.
func (e *Editor) goTo(input string) {
	rowStr, colStr, hasCol := strings.Cut(input, ":")
	y, err := strconv.Atoi(strings.TrimSpace(rowStr))
	if err != nil {
		e.setStatus("Parsing error: %v", err)
		return
	}
	col := 0
	if hasCol {
		if col, err = strconv.Atoi(strings.TrimSpace(colStr)); err != nil {
			e.setStatus("Parsing error: %v", err)
			return
		}
	}

	e.cursor.y = min(max(y-1, 0), len(e.lines))
	if !hasCol {
		e.clampCursorX()
		return
	}
	if row := e.currentLine(); row != nil {
		e.cursor.x = row.ColToByte(min(max(col-1, 0), row.Width()))
	} else {
		e.cursor.x = 0
	}
}

// execute runs a shell command and inserts its standard output at the
// cursor, newlines included. On failure the command's standard error lands
// in the status bar instead.
func (e *Editor) execute(input string) {
	name := ""
	var args []string
	if fields := strings.Fields(input); len(fields) > 0 {
		name, args = fields[0], fields[1:]
	}

	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	err := cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		for _, b := range stdout.Bytes() {
			if b == '\n' {
				e.insertNewLine()
			} else {
				e.insertByte(b)
			}
		}
		log.Debug(log.CatEditor, "Command output inserted", "command", name, "bytes", stdout.Len())
	case errors.As(err, &exitErr):
		e.setStatus("%s", strings.TrimRightFunc(stderr.String(), unicode.IsSpace))
	default:
		e.setStatus("%v", err)
	}
}

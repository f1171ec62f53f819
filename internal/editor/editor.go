// Package editor implements the interactive text editor: the line buffer
// with its cursor, the edit operations, file load/save, incremental search,
// and the screen refresh loop. It consumes key events from internal/key and
// renders through internal/terminal.
package editor

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/quill/internal/config"
	"github.com/zjrosen/quill/internal/key"
	"github.com/zjrosen/quill/internal/line"
	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/syntax"
	"github.com/zjrosen/quill/internal/terminal"
)

const helpMessage = "^S save | ^Q quit | ^F find | ^G go to | ^D duplicate | ^E execute | ^C copy | ^X cut | ^V paste"

// Control bytes the dispatch switch matches on. key.Ctrl is not usable in a
// const block, so these spell out the same masking.
const (
	keyExit       byte = 'Q' & 0x1f
	keyDeleteBis  byte = 'H' & 0x1f
	keyRefresh    byte = 'L' & 0x1f
	keySave       byte = 'S' & 0x1f
	keyFind       byte = 'F' & 0x1f
	keyGoTo       byte = 'G' & 0x1f
	keyCut        byte = 'X' & 0x1f
	keyCopy       byte = 'C' & 0x1f
	keyPaste      byte = 'V' & 0x1f
	keyDuplicate  byte = 'D' & 0x1f
	keyExecute    byte = 'E' & 0x1f
	keyRemoveLine byte = 'R' & 0x1f
	keyBackspace  byte = 127
)

// cursor tracks the insertion point and the scroll offsets. x indexes bytes
// in the current line, not columns; y is the line number. y may equal the
// number of lines, meaning the virtual line after the last one.
type cursor struct {
	x, y   int
	rowOff int
	colOff int
}

// scroll adjusts the offsets so the cursor stays visible. rx is the cursor's
// render column, which is what horizontal scrolling works in.
func (c *cursor) scroll(rx, screenRows, screenCols int) {
	c.rowOff = clamp(c.rowOff, c.y-max(screenRows-1, 0), c.y)
	c.colOff = clamp(c.colOff, rx-max(screenCols-1, 0), rx)
}

func clamp(v, lo, hi int) int {
	return min(max(v, max(lo, 0)), hi)
}

// Options configures a new Editor.
type Options struct {
	Config config.Config
	// Registry resolves syntax definitions. When nil a registry over the
	// configured syntax directories is created.
	Registry *syntax.Registry
	// SyntaxChanged, when non-nil, signals that definition files changed on
	// disk; the editor flushes the registry and re-highlights.
	SyntaxChanged <-chan struct{}
	Version       string
}

// Editor holds the state of the text editor.
type Editor struct {
	term     *terminal.Terminal
	dec      *key.Decoder
	registry *syntax.Registry

	cfg           config.Config
	version       string
	syntaxChanged <-chan struct{}

	cursor      cursor
	lnPad       int
	windowWidth int
	screenRows  int
	screenCols  int

	lines     []*line.Line
	dirty     bool
	quitTimes int
	fileName  string
	statusMsg *statusMessage
	syntax    *syntax.Definition
	nBytes    int
	copied    []byte

	// prompt is non-nil while a prompt (save, find, go-to, execute) owns
	// the keyboard.
	prompt *prompt
}

// New puts the terminal into raw mode and returns an editor ready to Run.
// Callers must Close the editor to restore the terminal.
func New(opts Options) (*Editor, error) {
	reg := opts.Registry
	if reg == nil {
		reg = syntax.NewRegistry(opts.Config.EffectiveSyntaxDirs())
	}

	term, err := terminal.Open()
	if err != nil {
		return nil, err
	}

	e := &Editor{
		term:          term,
		dec:           key.NewDecoder(term),
		registry:      reg,
		cfg:           opts.Config,
		version:       opts.Version,
		syntaxChanged: opts.SyntaxChanged,
		quitTimes:     opts.Config.QuitTimes,
		syntax:        syntax.Plain(),
	}

	if err := term.EnterRaw(); err != nil {
		_ = term.Close()
		return nil, err
	}
	if err := e.updateWindowSize(); err != nil {
		_ = term.Close()
		return nil, err
	}
	e.setStatus("%s", helpMessage)
	return e, nil
}

// Close restores the terminal mode and clears the screen.
func (e *Editor) Close() error {
	if e.term == nil {
		return nil
	}
	err := e.term.Close()
	if werr := e.term.WriteString(terminal.ClearScreen + terminal.MoveCursorHome); err == nil {
		err = werr
	}
	return err
}

// Run loads the file when fileName is non-empty, then processes keys until
// the user quits or a terminal error occurs.
func (e *Editor) Run(fileName string) error {
	if fileName != "" {
		e.selectSyntax(fileName)
		if err := e.load(fileName); err != nil {
			return err
		}
		e.fileName = fileName
	} else {
		e.lines = append(e.lines, line.New(nil))
	}

	for {
		if e.prompt != nil {
			e.setStatus("%s", e.prompt.statusMessage())
		}
		if err := e.refreshScreen(); err != nil {
			return err
		}
		ev, err := e.readKey()
		if err != nil {
			return err
		}
		if e.prompt == nil {
			quit, next := e.processKeypress(ev)
			if quit {
				log.Info(log.CatEditor, "Quit")
				return nil
			}
			e.prompt = next
		} else {
			e.prompt = e.prompt.process(e, ev)
		}
	}
}

// readKey blocks until a key event arrives. Between the short read timeouts
// it reacts to window resizes and syntax directory changes, both of which
// need a redraw without any key being pressed.
func (e *Editor) readKey() (key.Event, error) {
	for {
		if e.term.Resized() {
			if err := e.updateWindowSize(); err != nil {
				return key.Event{}, err
			}
			if err := e.refreshScreen(); err != nil {
				return key.Event{}, err
			}
		}
		select {
		case <-e.syntaxChanged:
			if err := e.reloadSyntax(); err != nil {
				return key.Event{}, err
			}
		default:
		}

		ev, err := e.dec.Next()
		if errors.Is(err, key.ErrNoInput) {
			continue
		}
		if err != nil {
			return key.Event{}, fmt.Errorf("reading key: %w", err)
		}
		log.Debug(log.CatInput, "Key", "event", ev.String())
		return ev, nil
	}
}

// reloadSyntax flushes the registry after definition files changed, picks up
// the definition for the open file again and re-highlights everything.
func (e *Editor) reloadSyntax() error {
	e.registry.Invalidate()
	if e.fileName != "" {
		e.syntax = e.registry.ForFilename(e.fileName)
	}
	e.updateAllLines()
	log.Info(log.CatSyntax, "Reloaded syntax definitions", "syntax", e.syntaxName())
	return e.refreshScreen()
}

// processKeypress handles a key event in normal mode. It returns whether the
// editor should exit and, optionally, the prompt to switch into.
func (e *Editor) processKeypress(ev key.Event) (bool, *prompt) {
	// Any key other than ^Q resets the quit countdown.
	quitTimes := e.cfg.QuitTimes
	var next *prompt

	switch ev.Kind {
	case key.KindArrow:
		e.moveCursor(ev.Dir, false)
	case key.KindCtrlArrow:
		e.moveCursor(ev.Dir, true)
	case key.KindPage:
		if ev.Dir == key.DirUp {
			e.cursor.y = max(e.cursor.rowOff-e.screenRows, 0)
		} else {
			e.cursor.y = min(e.cursor.rowOff+2*e.screenRows-1, len(e.lines))
		}
		e.clampCursorX()
	case key.KindHome:
		e.cursor.x = 0
	case key.KindEnd:
		if row := e.currentLine(); row != nil {
			e.cursor.x = row.Len()
		}
	case key.KindDelete:
		e.moveCursor(key.DirRight, false)
		e.deleteChar()
	case key.KindEscape:
	case key.KindChar:
		switch ev.Byte {
		case '\r', '\n':
			e.insertNewLine()
		case keyBackspace, keyDeleteBis:
			e.deleteChar()
		case keyRemoveLine:
			e.deleteCurrentLine()
		case keyRefresh:
			// The screen is refreshed on every loop iteration anyway.
		case keyExit:
			quitTimes = e.quitTimes - 1
			if !e.dirty || quitTimes == 0 {
				return true, nil
			}
			times := "time"
			if quitTimes > 1 {
				times = "times"
			}
			e.setStatus("Press Ctrl+Q %d more %s to quit.", quitTimes, times)
		case keySave:
			if e.fileName != "" {
				e.saveAndReport(e.fileName)
			} else {
				next = newPrompt(promptSave)
			}
		case keyFind:
			next = newPrompt(promptFind)
			next.saved = e.cursor
		case keyGoTo:
			next = newPrompt(promptGoTo)
		case keyDuplicate:
			e.duplicateCurrentLine()
		case keyCut:
			e.copyCurrentLine()
			e.deleteCurrentLine()
		case keyCopy:
			e.copyCurrentLine()
		case keyPaste:
			e.pasteLine()
		case keyExecute:
			next = newPrompt(promptExecute)
		default:
			e.insertByte(ev.Byte)
		}
	}
	e.quitTimes = quitTimes
	return false, next
}

// currentLine returns the line under the cursor, or nil when the cursor sits
// on the virtual line after the last one.
func (e *Editor) currentLine() *line.Line {
	if e.cursor.y < len(e.lines) {
		return e.lines[e.cursor.y]
	}
	return nil
}

// rx is the cursor position in render columns, as opposed to cursor.x which
// counts bytes.
func (e *Editor) rx() int {
	if row := e.currentLine(); row != nil {
		return row.ByteToCol(e.cursor.x)
	}
	return 0
}

// isEmpty reports whether the buffer holds no text. Several empty lines
// still count as text: the newlines between them are content.
func (e *Editor) isEmpty() bool {
	return len(e.lines) <= 1 && e.nBytes == 0
}

// clampCursorX pulls the cursor back inside the current line after a
// vertical move may have left it past the end.
func (e *Editor) clampCursorX() {
	maxX := 0
	if row := e.currentLine(); row != nil {
		maxX = row.Len()
	}
	if e.cursor.x > maxX {
		e.cursor.x = maxX
	}
}

// moveCursor moves one character (or, with ctrl, one word) in the given
// direction. Horizontal moves step whole characters using the line's
// column-to-byte mapping, so multi-byte characters are never split.
func (e *Editor) moveCursor(dir key.Direction, ctrl bool) {
	x := e.cursor.x
	row := e.currentLine()
	switch {
	case dir == key.DirLeft && row != nil && x > 0:
		x -= row.GetCharSize(row.ByteToCol(x) - 1)
		for ctrl && x > 0 && row.Content()[x-1] != ' ' {
			x -= row.GetCharSize(row.ByteToCol(x) - 1)
		}
	case dir == key.DirLeft && e.cursor.y > 0:
		// At the beginning of the line: move to the end of the previous
		// one. The clamp below pulls x back to the line length.
		e.cursor.y--
		x = math.MaxInt
	case dir == key.DirRight && row != nil && x < row.Len():
		x += row.GetCharSize(row.ByteToCol(x))
		for ctrl && x < row.Len() && row.Content()[x] != ' ' {
			x += row.GetCharSize(row.ByteToCol(x))
		}
	case dir == key.DirRight && row != nil:
		e.cursor.y++
		x = 0
	case dir == key.DirUp && e.cursor.y > 0:
		e.cursor.y--
	case dir == key.DirDown && row != nil:
		e.cursor.y++
	}
	e.cursor.x = x
	e.clampCursorX()
}

// updateLine re-tokenizes the line at index y, seeding the tokenizer with
// the previous line's carry state. Unless ignoreFollowing is set, the update
// keeps walking down while the carry state keeps changing, so a block
// comment opened here re-highlights everything it swallows.
func (e *Editor) updateLine(y int, ignoreFollowing bool) {
	var from syntax.State
	if y > 0 && y-1 < len(e.lines) {
		from = e.lines[y-1].Carry()
	}
	for ; y < len(e.lines); y++ {
		prev := e.lines[y].Carry()
		from = e.lines[y].Update(e.syntax, from, e.cfg.TabStop)
		if ignoreFollowing || from == prev {
			return
		}
	}
}

func (e *Editor) updateAllLines() {
	var from syntax.State
	for _, l := range e.lines {
		from = l.Update(e.syntax, from, e.cfg.TabStop)
	}
}

// insertByte inserts one byte at the cursor. Multi-byte characters arrive
// here one byte at a time; the line re-tokenizes after each, so a partially
// inserted character may render as replacement glyphs until complete.
func (e *Editor) insertByte(b byte) {
	if row := e.currentLine(); row != nil {
		row.Insert(e.cursor.x, b)
	} else {
		e.lines = append(e.lines, line.New([]byte{b}))
		// The number of lines changed, the gutter may need to widen.
		e.updateScreenCols()
	}
	e.updateLine(e.cursor.y, false)
	e.cursor.x++
	e.nBytes++
	e.dirty = true
}

// insertNewLine breaks the current line at the cursor and moves to the
// start of the new line.
func (e *Editor) insertNewLine() {
	pos := e.cursor.y
	var tail *line.Line
	if e.cursor.x == 0 {
		tail = line.New(nil)
	} else {
		// cursor.x > 0 implies the cursor is on an existing line.
		tail = e.lines[e.cursor.y].Split(e.cursor.x)
		e.updateLine(e.cursor.y, false)
		pos = e.cursor.y + 1
	}
	e.lines = slices.Insert(e.lines, pos, tail)
	e.updateLine(pos, false)
	e.updateScreenCols()
	e.cursor.x, e.cursor.y = 0, e.cursor.y+1
	e.dirty = true
}

// deleteChar removes the character before the cursor. At the beginning of a
// line it merges the line into the previous one.
func (e *Editor) deleteChar() {
	switch {
	case e.cursor.x > 0:
		row := e.lines[e.cursor.y]
		n := row.GetCharSize(row.ByteToCol(e.cursor.x) - 1)
		row.Remove(e.cursor.x-n, e.cursor.x)
		e.updateLine(e.cursor.y, false)
		e.cursor.x -= n
		e.nBytes -= n
		// Deleting the last byte of an unnamed buffer leaves nothing worth
		// warning about on quit.
		if e.isEmpty() {
			e.dirty = e.fileName != ""
		} else {
			e.dirty = true
		}
	case e.cursor.y > 0 && e.cursor.y < len(e.lines):
		row := e.lines[e.cursor.y]
		e.lines = slices.Delete(e.lines, e.cursor.y, e.cursor.y+1)
		prev := e.lines[e.cursor.y-1]
		e.cursor.x = prev.Len()
		prev.Append(row)
		e.updateLine(e.cursor.y-1, true)
		e.updateLine(e.cursor.y, false)
		e.updateScreenCols()
		e.cursor.y--
		e.dirty = true
	case e.cursor.y == len(e.lines):
		// Past the last line, backspace behaves like the left arrow.
		e.moveCursor(key.DirLeft, false)
	}
}

// deleteCurrentLine removes the whole line under the cursor and leaves the
// cursor at the start of the line that takes its place.
func (e *Editor) deleteCurrentLine() {
	row := e.currentLine()
	if row == nil {
		return
	}
	e.nBytes -= row.Len()
	row.Remove(0, row.Len())
	e.updateLine(e.cursor.y, false)
	e.cursor.x, e.cursor.y = 0, e.cursor.y+1
	e.deleteChar()
}

func (e *Editor) duplicateCurrentLine() {
	e.copyCurrentLine()
	e.pasteLine()
}

func (e *Editor) copyCurrentLine() {
	if row := e.currentLine(); row != nil {
		e.copied = []byte(row.Content())
	}
}

// pasteLine inserts the copied line below the cursor and moves onto it.
func (e *Editor) pasteLine() {
	if len(e.copied) == 0 {
		return
	}
	e.nBytes += len(e.copied)
	if e.cursor.y == len(e.lines) {
		e.lines = append(e.lines, line.New(slices.Clone(e.copied)))
	} else {
		e.lines = slices.Insert(e.lines, e.cursor.y+1, line.New(slices.Clone(e.copied)))
	}
	target := e.cursor.y
	if e.cursor.y+1 != len(e.lines) {
		target = e.cursor.y + 1
	}
	e.updateLine(target, false)
	e.cursor.y++
	e.dirty = true
	e.updateScreenCols()
}

// selectSyntax picks the highlight definition for the given file name.
func (e *Editor) selectSyntax(name string) {
	if e.registry == nil {
		e.syntax = syntax.Plain()
		return
	}
	e.syntax = e.registry.ForFilename(name)
	log.Debug(log.CatSyntax, "Selected syntax", "file", name, "syntax", e.syntaxName())
}

func (e *Editor) syntaxName() string {
	if e.syntax == nil {
		return ""
	}
	return e.syntax.Name
}

// load reads the file into the line buffer. A missing file is not an error:
// the editor starts with one empty line and creates the file on save.
func (e *Editor) load(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		e.lines = append(e.lines, line.New(nil))
		e.updateScreenCols()
		log.Info(log.CatEditor, "New file", "path", path)
		return nil
	case err != nil:
		return fmt.Errorf("opening %s: %w", path, err)
	case !info.Mode().IsRegular():
		return fmt.Errorf("%s is not a regular file", path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: the user names the file to edit
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	// A trailing newline yields a final empty chunk, which becomes the
	// empty line the cursor lands on at the end of the file.
	for _, raw := range bytes.Split(data, []byte{'\n'}) {
		e.lines = append(e.lines, line.New(bytes.Clone(raw)))
	}
	e.updateAllLines()
	e.updateScreenCols()
	e.nBytes = 0
	for _, l := range e.lines {
		e.nBytes += l.Len()
	}
	log.Info(log.CatEditor, "Loaded file", "path", path, "lines", len(e.lines), "bytes", e.nBytes)
	return nil
}

// save writes the buffer to path and returns the number of bytes written.
// Lines are joined with a newline; none is added after the last line.
func (e *Editor) save(path string) (int, error) {
	f, err := os.Create(path) //nolint:gosec // G304: the user names the file to save
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	written := 0
	for i, l := range e.lines {
		if _, err := w.WriteString(l.Content()); err != nil {
			return 0, err
		}
		written += l.Len()
		if i != len(e.lines)-1 {
			if err := w.WriteByte('\n'); err != nil {
				return 0, err
			}
			written++
		}
	}
	if err := w.Flush(); err != nil {
		return 0, err
	}
	if err := f.Sync(); err != nil {
		return 0, err
	}
	return written, nil
}

// saveAndReport saves and posts the outcome to the status bar. Returns
// whether the save succeeded.
func (e *Editor) saveAndReport(path string) bool {
	written, err := e.save(path)
	if err != nil {
		e.setStatus("Can't save! I/O error: %v", err)
		log.ErrorErr(log.CatEditor, "Save failed", err, "path", path)
		return false
	}
	e.setStatus("%s written to %s", formatSize(written), path)
	e.dirty = false
	log.Info(log.CatEditor, "Saved", "path", path, "bytes", written)
	return true
}

// saveAs saves under a new name obtained from the prompt and, on success,
// adopts the name and its syntax definition.
func (e *Editor) saveAs(path string) {
	if e.saveAndReport(path) {
		e.selectSyntax(path)
		e.fileName = path
		e.updateAllLines()
	}
}

// find searches for query starting after lastMatch (-1 to start from the
// top), wrapping around the buffer. On a hit it moves the cursor there,
// overlays the match highlight and returns the line index; otherwise -1.
func (e *Editor) find(query string, lastMatch int, forward bool) int {
	if len(e.lines) == 0 || query == "" {
		return -1
	}
	step := 1
	if !forward {
		step = len(e.lines) - 1
	}
	current := lastMatch
	if current < 0 {
		current = len(e.lines) - 1
	}
	for range e.lines {
		current = (current + step) % len(e.lines)
		row := e.lines[current]
		cx := strings.Index(row.Content(), query)
		if cx < 0 {
			continue
		}
		// Reset the column offset; scroll() brings the match into view.
		e.cursor.x, e.cursor.y, e.cursor.colOff = cx, current, 0
		rx := row.ByteToCol(cx)
		row.SetMatch(rx, rx+runewidth.StringWidth(query))
		return current
	}
	return -1
}

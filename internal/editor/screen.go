package editor

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/zjrosen/quill/internal/terminal"
)

// statusMessage is a transient message shown in the bottom bar until the
// configured duration elapses.
type statusMessage struct {
	msg  string
	time time.Time
}

func (e *Editor) setStatus(format string, args ...any) {
	e.statusMsg = &statusMessage{msg: fmt.Sprintf(format, args...), time: time.Now()}
}

// updateWindowSize re-reads the terminal dimensions. Two rows are reserved
// for the status and message bars.
func (e *Editor) updateWindowSize() error {
	rows, cols, err := e.term.Size()
	if err != nil {
		return fmt.Errorf("getting window size: %w", err)
	}
	e.screenRows = max(rows-2, 0)
	e.windowWidth = cols
	e.updateScreenCols()
	return nil
}

// updateScreenCols recomputes the line number gutter width and the columns
// left for text. The gutter grows with the number of digits in the last
// line number and is dropped entirely on narrow windows.
func (e *Editor) updateScreenCols() {
	nDigits := len(strconv.Itoa(len(e.lines)))
	e.lnPad = 0
	if e.cfg.ShowLineNumbers && nDigits+2 < e.windowWidth/4 {
		e.lnPad = nDigits + 2
	}
	e.screenCols = max(e.windowWidth-e.lnPad, 0)
}

// refreshScreen redraws the whole frame: text rows, status bar, message bar,
// then parks the cursor. Everything is accumulated into one string so the
// terminal receives a single write per frame.
func (e *Editor) refreshScreen() error {
	e.cursor.scroll(e.rx(), e.screenRows, e.screenCols)

	var b strings.Builder
	b.WriteString(terminal.HideCursor)
	b.WriteString(terminal.MoveCursorHome)
	e.drawRows(&b)
	e.drawStatusBar(&b)
	e.drawMessageBar(&b)

	var cx, cy int
	if e.prompt == nil {
		cx = e.rx() - e.cursor.colOff + e.lnPad
		cy = e.cursor.y - e.cursor.rowOff
	} else {
		// While prompting, the cursor sits at the end of the message bar.
		if e.statusMsg != nil {
			cx = runewidth.StringWidth(e.statusMsg.msg)
		}
		cy = e.screenRows + 1
	}
	b.WriteString(terminal.MoveTo(cy, cx))
	b.WriteString(terminal.ShowCursor)
	return e.term.WriteString(b.String())
}

// drawRows renders the visible window of text lines, with a tilde gutter
// below the end of the buffer and the welcome banner on a fresh start.
func (e *Editor) drawRows(b *strings.Builder) {
	for i := e.cursor.rowOff; i < e.cursor.rowOff+e.screenRows; i++ {
		b.WriteString(terminal.ClearLineRight)
		if i < len(e.lines) {
			e.drawGutter(b, strconv.Itoa(i+1))
			b.WriteString(e.lines[i].Draw(e.cursor.colOff, e.screenCols))
		} else {
			e.drawGutter(b, "~")
			if e.isEmpty() && i == e.screenRows/3 {
				e.drawWelcome(b)
			}
		}
		b.WriteString("\r\n")
	}
}

// drawGutter writes the line number margin: the value right-aligned in dark
// grey, a space and a vertical bar.
func (e *Editor) drawGutter(b *strings.Builder, val string) {
	if e.lnPad >= 2 {
		fmt.Fprintf(b, "\x1b[38;5;240m%*s │%s", e.lnPad-2, val, terminal.ResetFmt)
	}
}

func (e *Editor) drawWelcome(b *strings.Builder) {
	welcome := "Quill " + e.version
	welcome = runewidth.Truncate(welcome, e.screenCols, "")
	if pad := (e.screenCols - runewidth.StringWidth(welcome)) / 2; pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(welcome)
}

// drawStatusBar renders the reverse-video bar with the file name on the
// left and syntax name, buffer size and cursor position on the right.
func (e *Editor) drawStatusBar(b *strings.Builder) {
	name := e.fileName
	if name == "" {
		name = "[No Name]"
	}
	left := truncateGraphemes(name, 30)
	if e.dirty {
		left += " (modified)"
	}
	left = runewidth.Truncate(left, e.windowWidth, "")

	// The newline count: bytes on disk include one per line break.
	size := formatSize(e.nBytes + max(len(e.lines)-1, 0))
	right := fmt.Sprintf("%s | %s | %d:%d", e.syntaxName(), size, e.cursor.y+1, e.rx()+1)

	rw := max(e.windowWidth-runewidth.StringWidth(left), 0)
	right = runewidth.Truncate(right, rw, "")

	b.WriteString(terminal.ReverseVideo)
	b.WriteString(left)
	if pad := rw - runewidth.StringWidth(right); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(right)
	b.WriteString(terminal.ResetFmt)
	b.WriteString("\r\n")
}

// drawMessageBar renders the status message if it has not expired.
func (e *Editor) drawMessageBar(b *strings.Builder) {
	b.WriteString(terminal.ClearLineRight)
	if e.statusMsg != nil && time.Since(e.statusMsg.time) < e.cfg.MessageTimeout() {
		b.WriteString(runewidth.Truncate(e.statusMsg.msg, e.windowWidth, ""))
	}
}

// truncateGraphemes cuts s after at most max grapheme clusters, so combining
// marks and emoji sequences are never split apart.
func truncateGraphemes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rest := s
	state := -1
	for n := 0; len(rest) > 0 && n < max; n++ {
		_, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
	}
	return s[:len(s)-len(rest)]
}

// formatSize pretty-prints a byte count using binary units, rounding down to
// two decimal places.
func formatSize(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%dB", n)
	}
	u := uint64(n)
	// i is the largest value such that 1024^i <= u.
	i := (64 - bits.LeadingZeros64(u) + 9) / 10 - 1
	q := 100 * u / (1024 << ((i - 1) * 10))
	return fmt.Sprintf("%d.%02d%cB", q/100, q%100, " kMGTPEZ"[i])
}

// Package terminal owns the tty: raw mode setup and teardown, non-blocking
// single-byte reads, window size discovery and resize notification. It is
// the only package that touches termios.
package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/zjrosen/quill/internal/key"
	"github.com/zjrosen/quill/internal/log"
)

// Terminal wraps the interactive tty. Reads are non-blocking once raw mode
// is entered: VMIN=0/VTIME=1 makes every read return within a tenth of a
// second, which is what lets the editor poll for resizes between keys.
type Terminal struct {
	in     *os.File
	out    *os.File
	orig   *term.State
	resize chan os.Signal
}

// Open wraps stdin/stdout and starts listening for window size changes. The
// terminal is still in cooked mode; call EnterRaw before reading keys.
func Open() (*Terminal, error) {
	t := &Terminal{in: os.Stdin, out: os.Stdout, resize: make(chan os.Signal, 1)}
	if !term.IsTerminal(t.fd()) {
		return nil, errors.New("standard input is not a terminal")
	}
	signal.Notify(t.resize, unix.SIGWINCH)
	return t, nil
}

func (t *Terminal) fd() int { return int(t.in.Fd()) }

// EnterRaw switches the tty to raw mode and relaxes the read timing so that
// a read with no pending input returns empty after a tenth of a second
// instead of blocking.
func (t *Terminal) EnterRaw() error {
	state, err := term.MakeRaw(t.fd())
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	t.orig = state

	tio, err := unix.IoctlGetTermios(t.fd(), ioctlReadTermios)
	if err != nil {
		return fmt.Errorf("reading termios: %w", err)
	}
	tio.Cc[unix.VMIN] = 0
	tio.Cc[unix.VTIME] = 1
	if err := unix.IoctlSetTermios(t.fd(), ioctlWriteTermios, tio); err != nil {
		return fmt.Errorf("setting read timeout: %w", err)
	}
	log.Debug(log.CatTerm, "raw mode enabled")
	return nil
}

// Restore puts the tty back into the mode it was in before EnterRaw.
func (t *Terminal) Restore() error {
	if t.orig == nil {
		return nil
	}
	if err := term.Restore(t.fd(), t.orig); err != nil {
		return fmt.Errorf("restoring terminal mode: %w", err)
	}
	t.orig = nil
	log.Debug(log.CatTerm, "terminal mode restored")
	return nil
}

// Close stops resize notifications and restores the tty.
func (t *Terminal) Close() error {
	signal.Stop(t.resize)
	return t.Restore()
}

// ReadByte reads one input byte. With the raw-mode read timeout in place an
// empty read is normal and maps to key.ErrNoInput, as does an interrupted
// read; the distinction between "nothing yet" and a real failure is exactly
// what the key decoder needs.
func (t *Terminal) ReadByte() (byte, error) {
	var buf [1]byte
	n, err := unix.Read(t.fd(), buf[:])
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, key.ErrNoInput
		}
		return 0, fmt.Errorf("reading terminal input: %w", err)
	}
	if n == 0 {
		return 0, key.ErrNoInput
	}
	return buf[0], nil
}

// WriteString sends s to the terminal unmodified.
func (t *Terminal) WriteString(s string) error {
	if _, err := t.out.WriteString(s); err != nil {
		return fmt.Errorf("writing to terminal: %w", err)
	}
	return nil
}

// Size returns the window dimensions in character cells. When the size
// ioctl is unavailable it falls back to parking the cursor in the bottom
// right corner and asking the terminal where it ended up.
func (t *Terminal) Size() (rows, cols int, err error) {
	cols, rows, err = term.GetSize(int(t.out.Fd()))
	if err == nil && cols > 0 {
		return rows, cols, nil
	}
	log.Warn(log.CatTerm, "size ioctl failed, querying cursor", "err", err)
	return t.sizeViaCursor()
}

// sizeViaCursor measures the window by moving the cursor to the bottom
// right and reading back the cursor position report.
func (t *Terminal) sizeViaCursor() (int, int, error) {
	if err := t.WriteString(moveCursorFarCorner + queryCursorPosition); err != nil {
		return 0, 0, err
	}

	buf := make([]byte, 0, 32)
	for polls := 0; polls < 50 && len(buf) < cap(buf); {
		b, err := t.ReadByte()
		if errors.Is(err, key.ErrNoInput) {
			polls++
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		buf = append(buf, b)
		if b == 'R' {
			break
		}
	}

	rows, cols, ok := parseCursorReport(buf)
	if !ok {
		return 0, 0, fmt.Errorf("unparseable cursor position report %q", buf)
	}
	return rows, cols, nil
}

// parseCursorReport extracts rows and cols from a cursor position report of
// the form ESC [ rows ; cols R. Anything before the escape byte is ignored;
// terminals sometimes have stale input queued ahead of the report.
func parseCursorReport(buf []byte) (rows, cols int, ok bool) {
	for len(buf) > 0 && buf[0] != 0x1b {
		buf = buf[1:]
	}
	if _, err := fmt.Sscanf(string(buf), "\x1b[%d;%dR", &rows, &cols); err != nil {
		return 0, 0, false
	}
	if rows <= 0 || cols <= 0 {
		return 0, 0, false
	}
	return rows, cols, true
}

// Resized reports whether a window size change signal arrived since the
// last call. It never blocks.
func (t *Terminal) Resized() bool {
	select {
	case <-t.resize:
		return true
	default:
		return false
	}
}

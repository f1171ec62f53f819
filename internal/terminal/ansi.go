package terminal

import "fmt"

// ANSI escape sequences the editor emits when redrawing. Kept as raw
// constants: these run for every frame, and the screen refresh builds one
// big string out of them.
const (
	ClearScreen     = "\x1b[2J"
	ClearLineRight  = "\x1b[K"
	MoveCursorHome  = "\x1b[H"
	HideCursor      = "\x1b[?25l"
	ShowCursor      = "\x1b[?25h"
	ReverseVideo    = "\x1b[7m"
	ResetFmt        = "\x1b[m"

	moveCursorFarCorner = "\x1b[999C\x1b[999B"
	queryCursorPosition = "\x1b[6n"
)

// MoveTo positions the cursor at the given zero-based row and column. The
// wire format is one-based.
func MoveTo(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row+1, col+1)
}

package line

import (
	"strings"
	"unicode"

	"github.com/zjrosen/quill/internal/syntax"
)

const (
	resetFmt     = "\x1b[m"
	reverseVideo = "\x1b[7m"
)

// Draw returns the part of the rendered line covering the column window
// [startCol, startCol+maxCols), styled with ANSI color sequences. A color
// sequence is emitted only when the highlight class changes from one
// character to the next. Characters that would straddle a window edge are
// dropped whole; half a wide character cannot be drawn.
//
// While the window crosses an active search match, the match class overrides
// the tokenizer's classification, and the first character drawn past the
// match gets a reset so the match background does not bleed. Control
// characters are drawn as inverse-video pictures ('@'+byte, or '?' when
// there is no letter form), after which the active color is re-emitted. The
// output always ends with a single reset.
func (l *Line) Draw(startCol, maxCols int) string {
	var out strings.Builder
	current := syntax.ClassNormal
	endCol := startCol + maxCols
	col := 0

	for i, r := range l.render {
		if col >= endCol {
			break
		}
		width := displayWidth(r)
		if col < startCol || col+width > endCol {
			col += width
			continue
		}

		if r < 0x80 && unicode.IsControl(r) {
			picture := byte('?')
			if byte(r) <= 26 {
				picture = '@' + byte(r)
			}
			out.WriteString(reverseVideo)
			out.WriteByte(picture)
			out.WriteString(resetFmt)
			if current != syntax.ClassNormal {
				out.WriteString(current.Sequence())
			}
			col += width
			continue
		}

		class := syntax.ClassNormal
		if i < len(l.classes) {
			class = l.classes[i]
		}
		if l.hasMatch {
			switch {
			case col >= l.matchStart && col < l.matchEnd:
				class = syntax.ClassMatch
			case col == l.matchEnd:
				out.WriteString(resetFmt)
			}
		}
		if class != current {
			out.WriteString(class.Sequence())
			current = class
		}
		out.WriteRune(r)
		col += width
	}

	out.WriteString(resetFmt)
	return out.String()
}

package syntax

import "strings"

// IsSeparator reports whether b delimits a token: ASCII whitespace, NUL, or
// ASCII punctuation other than underscore. Underscore is excluded so that
// identifiers like "in_flight" are not split into keyword-sized pieces.
func IsSeparator(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r', 0:
		return true
	case '_':
		return false
	}
	return b >= '!' && b <= '/' ||
		b >= ':' && b <= '@' ||
		b >= '[' && b <= '`' ||
		b >= '{' && b <= '~'
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

// blockRule pairs a delimiter set with the state and class it produces.
// Block comments are always tried before block strings.
type blockRule struct {
	delims *DelimiterPair
	kind   StateKind
	class  Class
}

// Tokenize classifies every byte of line (a rendered line, so tabs are
// already spaces) and returns the state to carry into the next line. The
// scan is a single left-to-right pass; at each position the first matching
// rule wins and the scan never backtracks.
//
// Rule order: line comment, block comment/string delimiters, single-line
// string, number, keyword, normal. A LineString state never escapes to the
// next line: an unterminated single-line string resets to Normal at
// end-of-line so that it cannot swallow the rest of the file.
func Tokenize(line string, def *Definition, from State) ([]Class, State) {
	classes := make([]Class, 0, len(line))
	state := from
	if def == nil {
		def = Plain()
	}
	blocks := [2]blockRule{
		{def.BlockComment, StateBlockComment, ClassBlockComment},
		{def.blockStringDelims(), StateBlockString, ClassBlockString},
	}

scan:
	for len(classes) < len(line) {
		i := len(classes)
		rest := line[i:]

		if state.Kind == StateNormal {
			for _, start := range def.LineComments {
				if start != "" && strings.HasPrefix(rest, start) {
					for len(classes) < len(line) {
						classes = append(classes, ClassComment)
					}
					break scan
				}
			}
		}

		for _, bl := range blocks {
			if bl.delims == nil {
				continue
			}
			if state.Kind == bl.kind {
				if strings.HasPrefix(rest, bl.delims.End) {
					for range len(bl.delims.End) {
						classes = append(classes, bl.class)
					}
					state = State{}
				} else {
					classes = append(classes, bl.class)
				}
				continue scan
			}
			if state.Kind == StateNormal && strings.HasPrefix(rest, bl.delims.Start) {
				for range len(bl.delims.Start) {
					classes = append(classes, bl.class)
				}
				state = State{Kind: bl.kind}
				continue scan
			}
		}

		c := line[i]

		// Past the block rules the state is either Normal or LineString.
		if state.Kind == StateLineString {
			classes = append(classes, ClassString)
			if c == state.Quote {
				state = State{}
			} else if c == '\\' && i != len(line)-1 {
				// Escaped character: the next byte is part of the string
				// regardless of what it is, including the quote itself.
				classes = append(classes, ClassString)
			}
			continue
		}
		if strings.IndexByte(def.Quotes, c) >= 0 {
			state = State{Kind: StateLineString, Quote: c}
			classes = append(classes, ClassString)
			continue
		}

		prevSep := i == 0 || IsSeparator(line[i-1])

		if def.Numbers &&
			(isASCIIDigit(c) && prevSep ||
				i != 0 && classes[i-1] == ClassNumber && !prevSep && !IsSeparator(c)) {
			classes = append(classes, ClassNumber)
			continue
		}

		if prevSep {
			if n, class, ok := matchKeyword(def, line, i); ok {
				for range n {
					classes = append(classes, class)
				}
				continue
			}
		}

		classes = append(classes, ClassNormal)
	}

	if state.Kind == StateLineString {
		state = State{}
	}
	return classes, state
}

// matchKeyword reports whether a configured keyword starts at position i and
// is followed by a separator or end-of-line. Keyword groups are checked in
// definition order and within a group in list order; the first match wins.
func matchKeyword(def *Definition, line string, i int) (int, Class, bool) {
	rest := line[i:]
	for _, group := range def.keywordGroups() {
		for _, kw := range group.words {
			if kw == "" || !strings.HasPrefix(rest, kw) {
				continue
			}
			if len(rest) > len(kw) && !IsSeparator(rest[len(kw)]) {
				continue
			}
			return len(kw), group.class, true
		}
	}
	return 0, ClassNormal, false
}

package key

import (
	"errors"
	"io"
)

const esc = 0x1b

// ErrNoInput reports that the byte source has nothing to deliver right now.
// It is a suspension, not a failure: the caller polls again later, and a
// decode interrupted mid-sequence resumes exactly where it stopped.
var ErrNoInput = errors.New("no input available")

// ByteSource is the single-byte, non-blocking read the decoder consumes.
// Implementations return ErrNoInput when no byte is available yet, and
// io.EOF only when the stream is genuinely closed.
type ByteSource interface {
	ReadByte() (byte, error)
}

// Decoder turns bytes from a source into key events. Bytes already consumed
// for a partial escape sequence are buffered so that a suspension never
// loses input; everything else is stateless.
type Decoder struct {
	src     ByteSource
	pending []byte
}

func NewDecoder(src ByteSource) *Decoder {
	return &Decoder{src: src}
}

// Next decodes one key event. ErrNoInput passes through as a suspension,
// whether it happens before a key or in the middle of an escape sequence.
// io.EOF before a key means a closed source and passes through untouched,
// but end-of-stream inside a sequence becomes io.ErrUnexpectedEOF: the
// terminal disappeared mid-keystroke, which is a real read failure rather
// than an escape key.
func (d *Decoder) Next() (Event, error) {
	if len(d.pending) == 0 {
		b, err := d.src.ReadByte()
		if err != nil {
			return Event{}, err
		}
		if b != esc {
			return Char(b), nil
		}
		d.pending = append(d.pending, b)
	}

	ev, err := d.decodeEscape()
	if errors.Is(err, ErrNoInput) {
		return Event{}, ErrNoInput
	}
	d.pending = d.pending[:0]
	if err != nil {
		return Event{}, err
	}
	return ev, nil
}

// at returns the sequence byte at position i, position 0 being the escape
// byte itself, pulling from the source when the buffer is shorter. ErrNoInput
// passes through so Next can suspend with the buffer intact.
func (d *Decoder) at(i int) (byte, error) {
	for len(d.pending) <= i {
		b, err := d.src.ReadByte()
		if errors.Is(err, io.EOF) {
			return 0, io.ErrUnexpectedEOF
		}
		if err != nil {
			return 0, err
		}
		d.pending = append(d.pending, b)
	}
	return d.pending[i], nil
}

// decodeEscape walks the escape decision tree over the pending buffer. Every
// branch is final: a byte that fails to extend a recognized sequence is
// consumed and the whole sequence degrades to KindEscape.
func (d *Decoder) decodeEscape() (Event, error) {
	b1, err := d.at(1)
	if err != nil {
		return Event{}, err
	}
	if b1 != '[' && b1 != 'O' {
		return Event{Kind: KindEscape}, nil
	}

	b2, err := d.at(2)
	if err != nil {
		return Event{}, err
	}
	switch {
	case b1 == '[' && b2 >= 'A' && b2 <= 'D':
		return Arrow(arrowDir(b2)), nil
	case b2 == 'H':
		return Event{Kind: KindHome}, nil
	case b2 == 'F':
		return Event{Kind: KindEnd}, nil
	case b1 == '[' && b2 >= '0' && b2 <= '8':
		return d.decodeParam(b2)
	case b1 == 'O' && b2 >= 'a' && b2 <= 'd':
		return CtrlArrow(arrowDir(b2 - 'a' + 'A')), nil
	default:
		return Event{Kind: KindEscape}, nil
	}
}

// decodeParam finishes a CSI sequence that started with a numeric parameter.
// A leading "1;" is the elided default modifier, so ESC [ 1 ; 5 C and
// ESC [ 5 C name the same key.
func (d *Decoder) decodeParam(c byte) (Event, error) {
	next, err := d.at(3)
	if err != nil {
		return Event{}, err
	}
	if c == '1' && next == ';' {
		if c, err = d.at(4); err != nil {
			return Event{}, err
		}
		if next, err = d.at(5); err != nil {
			return Event{}, err
		}
	}

	switch {
	case next == '~' && (c == '1' || c == '7'):
		return Event{Kind: KindHome}, nil
	case next == '~' && (c == '4' || c == '8'):
		return Event{Kind: KindEnd}, nil
	case c == '3' && next == '~':
		return Event{Kind: KindDelete}, nil
	case c == '5' && next == '~':
		return Page(DirUp), nil
	case c == '6' && next == '~':
		return Page(DirDown), nil
	case c == '5' && next >= 'A' && next <= 'D':
		return CtrlArrow(arrowDir(next)), nil
	default:
		return Event{Kind: KindEscape}, nil
	}
}

func arrowDir(b byte) Direction {
	switch b {
	case 'A':
		return DirUp
	case 'B':
		return DirDown
	case 'C':
		return DirRight
	default:
		return DirLeft
	}
}

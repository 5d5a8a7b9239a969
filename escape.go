package csvstream

import "unicode/utf8"

type escapeStage uint8

const (
	escapeNone   escapeStage = iota
	escapeIntro              // a backslash was seen
	escapeDigits             // reading a fixed-length numeric payload
)

// escapeSeq is the in-progress backslash escape of the field being read. raw keeps the consumed
// input so an incomplete sequence can be emitted literally.
type escapeSeq struct {
	stage escapeStage
	base  rune
	want  int
	got   int
	value rune
	raw   [6]byte
	n     int
}

func (e *escapeSeq) begin() {
	*e = escapeSeq{stage: escapeIntro}
	e.push('\\')
}

func (e *escapeSeq) push(c byte) {
	if e.n < len(e.raw) {
		e.raw[e.n] = c
		e.n++
	}
}

func (e *escapeSeq) numeric(base rune, want int) {
	e.stage = escapeDigits
	e.base = base
	e.want = want
}

// simpleEscape maps the single-letter escapes to the control character they stand for.
func simpleEscape(c byte) (byte, bool) {
	switch c {
	case 'a':
		return '\a', true
	case 'b':
		return '\b', true
	case 'e':
		return 0x1b, true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'v':
		return '\v', true
	}
	return 0, false
}

func digitValue(c byte, base rune) (rune, bool) {
	var d rune
	switch {
	case c >= '0' && c <= '9':
		d = rune(c - '0')
	case c >= 'a' && c <= 'f':
		d = rune(c-'a') + 10
	case c >= 'A' && c <= 'F':
		d = rune(c-'A') + 10
	default:
		return 0, false
	}
	if d >= base {
		return 0, false
	}
	return d, true
}

// feedEscape consumes c as part of the pending escape sequence. It reports false when c does
// not belong to the sequence; the consumed input has then been appended literally and c must
// be handled by the enclosing state.
func (r *Reader) feedEscape(c byte) (bool, error) {
	e := &r.esc
	if e.stage == escapeIntro {
		if lit, ok := simpleEscape(c); ok {
			*e = escapeSeq{}
			return true, r.addByte(lit)
		}
		switch c {
		case 'x', 'X':
			e.push(c)
			e.numeric(16, 2)
		case 'u', 'U':
			e.push(c)
			e.numeric(16, 4)
		case 'o', 'O':
			e.push(c)
			e.numeric(8, 3)
		case 'd', 'D':
			e.push(c)
			e.numeric(10, 3)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			e.push(c)
			e.numeric(8, 3)
			e.value = rune(c - '0')
			e.got = 1
		default:
			// \\, \", an escaped delimiter or terminator, or any other character: itself.
			*e = escapeSeq{}
			return true, r.addByte(c)
		}
		return true, nil
	}

	d, ok := digitValue(c, e.base)
	if !ok {
		return false, r.flushEscape()
	}
	e.push(c)
	e.value = e.value*e.base + d
	e.got++
	if e.got < e.want {
		return true, nil
	}
	v := e.value
	*e = escapeSeq{}
	return true, r.addRune(v)
}

// flushEscape abandons the pending sequence and appends its raw input to the field.
func (r *Reader) flushEscape() error {
	raw, n := r.esc.raw, r.esc.n
	r.esc = escapeSeq{}
	return r.addBytes(raw[:n])
}

func (r *Reader) addRune(v rune) error {
	if v < utf8.RuneSelf {
		return r.addByte(byte(v))
	}
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], v)
	return r.addBytes(tmp[:n])
}

package main

import (
	"errors"
	"fmt"
	"strings"
)

// decodeInst matches the catalog code starting at pos, trying each prefix
// length from 1 up to the longest code in the table. Prefix freedom makes
// the first (shortest) match the only possible one.
func decodeInst(code string, pos int) (*inst, int, error) {
	if pos >= len(code) {
		return nil, pos, decodeError{pos, errEndOfProgram}
	}
	for n := 1; n <= maxCodeLen && pos+n <= len(code); n++ {
		if in, ok := instByCode[code[pos:pos+n]]; ok {
			return in, pos + n, nil
		}
	}
	return nil, pos, decodeError{pos, errUnknownInstruction}
}

// decodeNumber reads a signed binary number: a sign symbol (space positive,
// tab negative), magnitude bits most significant first (space 0, tab 1), and
// a linefeed terminator. A sign followed immediately by the terminator is
// zero.
func decodeNumber(code string, pos int) (int, int, error) {
	end := strings.IndexByte(code[pos:], symLF)
	if end < 0 {
		return 0, pos, decodeError{pos, errUnterminatedNumber}
	}
	end += pos
	if end == pos {
		return 0, pos, decodeError{pos, errEmptyNumber}
	}
	sign := 1
	if code[pos] == symTab {
		sign = -1
	}
	var n int
	for i := pos + 1; i < end; i++ {
		n <<= 1
		if code[i] == symTab {
			n |= 1
		}
	}
	return sign * n, end + 1, nil
}

// decodeLabel reads a label: the raw symbol run up to, not including, a
// linefeed terminator. The run itself is the label's identity; the empty
// run is a valid label.
func decodeLabel(code string, pos int) (string, int, error) {
	end := strings.IndexByte(code[pos:], symLF)
	if end < 0 {
		return "", pos, decodeError{pos, errUnterminatedLabel}
	}
	end += pos
	return code[pos:end], end + 1, nil
}

// parse decodes an entire symbol text into a program, consuming instruction
// codes and their operands until the text is exhausted. Label marks are
// registered rather than appended, so the result holds executable commands
// only.
func parse(code string) (*program, error) {
	prog := newProgram()
	pos := 0
	for pos < len(code) {
		in, next, err := decodeInst(code, pos)
		if err != nil {
			return nil, err
		}
		cmd := command{in: in}
		switch in.arg {
		case argNumber:
			cmd.num, next, err = decodeNumber(code, next)
		case argLabel:
			cmd.label, next, err = decodeLabel(code, next)
		}
		if err != nil {
			return nil, err
		}
		if err := prog.add(cmd); err != nil {
			return nil, err
		}
		pos = next
	}
	return prog, nil
}

var (
	errEndOfProgram       = errors.New("unexpected end of program")
	errUnknownInstruction = errors.New("unrecognized instruction code")
	errEmptyNumber        = errors.New("empty number: terminator without sign")
	errUnterminatedNumber = errors.New("unterminated number")
	errUnterminatedLabel  = errors.New("unterminated label")
)

type decodeError struct {
	pos int
	err error
}

func (de decodeError) Error() string { return fmt.Sprintf("decode error at symbol %v: %v", de.pos, de.err) }
func (de decodeError) Unwrap() error { return de.err }

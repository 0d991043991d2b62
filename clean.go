package main

import "strings"

// The language has a three symbol alphabet: space, tab and linefeed. Any
// other character in a source file is commentary. Internally each symbol is
// one canonical byte so that labels stay readable in logs and errors.
const (
	symSpace = 's'
	symTab   = 't'
	symLF    = 'n'
)

// clean maps raw source text onto the canonical symbol alphabet, dropping
// every character that is not one of the three significant whitespace
// characters. Empty input yields empty output.
func clean(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case ' ':
			sb.WriteByte(symSpace)
		case '\t':
			sb.WriteByte(symTab)
		case '\n':
			sb.WriteByte(symLF)
		}
	}
	return sb.String()
}

// recleanSymbols filters text that already uses the canonical alphabet,
// dropping stray bytes such as a trailing newline. Cleaning canonical text
// is the identity.
func recleanSymbols(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case symSpace, symTab, symLF:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

package main

import (
	"bufio"
	"io"
	"io/ioutil"
	"strings"
	"unicode/utf8"
)

type ioCore struct {
	in  io.RuneScanner
	out writeFlusher

	logfn   func(mess string, args ...interface{})
	closers []io.Closer
}

func (ioc *ioCore) Close() (err error) {
	if ioc.out != nil {
		err = ioc.out.Flush()
	}
	for i := len(ioc.closers) - 1; i >= 0; i-- {
		if cerr := ioc.closers[i].Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (ioc *ioCore) withLogPrefix(prefix string) func() {
	logfn := ioc.logfn
	ioc.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() {
		ioc.logfn = logfn
	}
}

func (ioc ioCore) logf(mess string, args ...interface{}) {
	if ioc.logfn != nil {
		ioc.logfn(mess, args...)
	}
}

// readRune reads one rune from the input stream, flushing any buffered
// output first so that prompts are visible before the machine blocks.
func (ioc *ioCore) readRune() (rune, error) {
	if err := ioc.out.Flush(); err != nil {
		return 0, err
	}
	r, _, err := ioc.in.ReadRune()
	return r, err
}

// readLine reads runes up to a linefeed or the end of input. io.EOF is only
// returned when the stream ends before any rune is read.
func (ioc *ioCore) readLine() (string, error) {
	var sb strings.Builder
	for {
		r, err := ioc.readRune()
		if err == io.EOF {
			if sb.Len() == 0 {
				return "", io.EOF
			}
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		if r == '\n' {
			return sb.String(), nil
		}
		sb.WriteRune(r)
	}
}

func writeRune(w io.Writer, r rune) (err error) {
	if r < utf8.RuneSelf {
		if bw, ok := w.(io.ByteWriter); ok {
			return bw.WriteByte(byte(r))
		}
		_, err = w.Write([]byte{byte(r)})
		return err
	}
	_, err = io.WriteString(w, string(r))
	return err
}

func newRuneScanner(r io.Reader) io.RuneScanner {
	if rs, is := r.(io.RuneScanner); is {
		return rs
	}
	return bufio.NewReader(r)
}

type writeFlusher interface {
	io.Writer
	Flush() error
}

var discardWriteFlusher writeFlusher = nopFlusher{ioutil.Discard}

func newWriteFlusher(w io.Writer) writeFlusher {
	if w == ioutil.Discard {
		return discardWriteFlusher
	}

	if wf, is := w.(writeFlusher); is {
		return wf
	}

	// in memory buffers, as implemented by types like bytes.Buffer and
	// strings.Builder, do not need to be flushed
	type buffer interface {
		io.Writer
		Len() int
		Reset()
	}
	if _, isBuffer := w.(buffer); isBuffer {
		return nopFlusher{w}
	}

	return bufio.NewWriter(w)
}

type nopFlusher struct{ io.Writer }

func (nf nopFlusher) Flush() error { return nil }

type writeFlushers []writeFlusher

func (wfs writeFlushers) Write(p []byte) (n int, err error) {
	for _, wf := range wfs {
		n, err = wf.Write(p)
		if err != nil {
			return n, err
		}
		if n != len(p) {
			return n, io.ErrShortWrite
		}
	}
	return len(p), nil
}

func (wfs writeFlushers) Flush() (err error) {
	for _, wf := range wfs {
		if ferr := wf.Flush(); err == nil {
			err = ferr
		}
	}
	return err
}

func multiWriteFlusher(a, b writeFlusher) writeFlusher {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	if as, ok := a.(writeFlushers); ok {
		if bs, ok := b.(writeFlushers); ok {
			return append(as, bs...)
		}
		return append(as, b)
	}
	return writeFlushers{a, b}
}

package main

import (
	"bytes"
	"io"
	"io/ioutil"
)

type VMOption interface{ apply(vm *VM) }

var defaults = []VMOption{
	withProgramText(""),
	withInput(bytes.NewReader(nil)),
	withOutput(ioutil.Discard),
}

func (vm *VM) apply(opts ...VMOption) {
	for _, opt := range defaults {
		opt.apply(vm)
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
}

type progTextOption string
type progReaderOption struct{ io.Reader }
type cleanedOption struct{}
type inputOption struct{ io.Reader }
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type withLogfn func(mess string, args ...interface{})

func withProgramText(src string) progTextOption { return progTextOption(src) }
func withInput(r io.Reader) inputOption         { return inputOption{r} }
func withOutput(w io.Writer) outputOption       { return outputOption{w} }

func (src progTextOption) apply(vm *VM) {
	vm.src = string(src)
	vm.srcReader = nil
}

func (p progReaderOption) apply(vm *VM) {
	vm.srcReader = p.Reader
	if cl, ok := p.Reader.(io.Closer); ok {
		vm.closers = append(vm.closers, cl)
	}
}

func (cleanedOption) apply(vm *VM) {
	vm.srcCleaned = true
}

func (i inputOption) apply(vm *VM) {
	vm.in = newRuneScanner(i.Reader)
}

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = newWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.out = multiWriteFlusher(vm.out, newWriteFlusher(o.Writer))
}

func (logfn withLogfn) apply(vm *VM) {
	vm.logfn = logfn
}

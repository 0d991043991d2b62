package main

import (
	"context"
	"errors"
	"io"
)

// New builds a VM over the default options (empty program, empty input,
// discarded output) overlaid with the given ones.
func New(opts ...VMOption) *VM {
	var vm VM
	vm.apply(opts...)
	return &vm
}

// Run decodes the whole program, then executes it to completion. It returns
// nil when the program reaches an explicit exit, and a tagged error for any
// decode or run time fault. Output written before a fault stays written.
//
// The program, its input stream, and its output sink are all supplied up
// front via options; Run itself blocks until exit, fault, or ctx expiry.
func (vm *VM) Run(ctx context.Context) error {
	err := isolate("VM", func() error {
		vm.run(ctx)
		return nil
	})
	var vmErr vmHaltError
	if errors.As(err, &vmErr) {
		err = vmErr.error
	}
	return err
}

func WithProgram(r io.Reader) VMOption    { return progReaderOption{r} }
func WithProgramText(src string) VMOption { return progTextOption(src) }
func WithCleanedProgram() VMOption        { return cleanedOption{} }
func WithInput(r io.Reader) VMOption      { return inputOption{r} }
func WithOutput(w io.Writer) VMOption     { return outputOption{w} }
func WithTee(w io.Writer) VMOption        { return teeOption{w} }

func WithLogf(logfn func(mess string, args ...interface{})) VMOption { return withLogfn(logfn) }

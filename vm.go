package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"strconv"
	"strings"
)

// VM interprets one program over one machine state. The machine has an
// operand stack of host-sized ints, a sparse heap keyed by arbitrary int
// addresses, and a call stack of saved program counters. All three are
// rebuilt fresh at the start of every run and touched only by the run loop.
type VM struct {
	ioCore

	src        string
	srcReader  io.Reader
	srcCleaned bool

	prog *program
	pc   int

	stack []int
	heap  map[int]int
	calls []int
}

func (vm *VM) run(ctx context.Context) {
	src, err := vm.loadSource()
	vm.haltif(err)
	prog, err := parse(src)
	vm.haltif(err)

	vm.prog = prog
	vm.pc = 0
	vm.stack = vm.stack[:0]
	vm.calls = vm.calls[:0]
	vm.heap = make(map[int]int)

	vm.logf("run %v commands, %v labels", len(prog.commands), len(prog.labels))
	vm.exec(ctx)
}

func (vm *VM) loadSource() (string, error) {
	src := vm.src
	if vm.srcReader != nil {
		b, err := ioutil.ReadAll(vm.srcReader)
		if err != nil {
			return "", err
		}
		src = string(b)
	}
	if vm.srcCleaned {
		return recleanSymbols(src), nil
	}
	return clean(src), nil
}

// exec drives the fetch-execute loop until an effect halts the machine. The
// context is only consulted between steps; the machine itself has no
// internal watchdog.
func (vm *VM) exec(ctx context.Context) {
	if vm.logfn != nil {
		defer vm.withLogPrefix("\t")()
	}
	for {
		vm.step()
		vm.haltif(ctx.Err())
	}
}

// step fetches the command under the program counter, advances it, then
// applies the command's effect; flow effects overwrite the counter again.
func (vm *VM) step() {
	at := vm.pc
	if at < 0 || at >= len(vm.prog.commands) {
		vm.halt(faultError{at, errEndOfProgram})
	}
	cmd := vm.prog.commands[at]
	vm.pc++
	if vm.logfn != nil {
		vm.logf("exec @%v %v -- s:%v c:%v", at, cmd, vm.stack, vm.calls)
	}
	if err := instEffects[cmd.in.kind](vm, cmd); err != nil {
		vm.halt(faultError{at, err})
	}
}

// instEffects gives every catalog entry its run time effect, indexed by
// instruction kind.
var instEffects = [numInsts]func(vm *VM, cmd command) error{
	instPush:  (*VM).opPush,
	instCopy:  (*VM).opCopy,
	instSlide: (*VM).opSlide,
	instDup:   (*VM).opDup,
	instSwap:  (*VM).opSwap,
	instDrop:  (*VM).opDrop,

	instAdd: (*VM).opAdd,
	instSub: (*VM).opSub,
	instMul: (*VM).opMul,
	instDiv: (*VM).opDiv,
	instMod: (*VM).opMod,

	instStore: (*VM).opStore,
	instFetch: (*VM).opFetch,

	instOutc: (*VM).opOutc,
	instOutn: (*VM).opOutn,
	instInc:  (*VM).opInc,
	instInn:  (*VM).opInn,

	instMark: (*VM).opMark,
	instCall: (*VM).opCall,
	instJump: (*VM).opJump,
	instJz:   (*VM).opJz,
	instJn:   (*VM).opJn,
	instRet:  (*VM).opRet,
	instExit: (*VM).opExit,
}

func (vm *VM) push(val int) {
	vm.stack = append(vm.stack, val)
}

func (vm *VM) pop() (int, error) {
	i := len(vm.stack) - 1
	if i < 0 {
		return 0, errStackUnderflow
	}
	val := vm.stack[i]
	vm.stack = vm.stack[:i]
	return val, nil
}

// pop2 pops the top element into a and the second into b.
func (vm *VM) pop2() (a, b int, err error) {
	if a, err = vm.pop(); err == nil {
		b, err = vm.pop()
	}
	return a, b, err
}

//// Stack manipulation

func (vm *VM) opPush(cmd command) error {
	vm.push(cmd.num)
	return nil
}

func (vm *VM) opCopy(cmd command) error {
	n := cmd.num
	if n < 0 || n >= len(vm.stack) {
		return errStackUnderflow
	}
	vm.push(vm.stack[len(vm.stack)-n-1])
	return nil
}

// opSlide discards elements below the top, keeping the top in place. A
// non-positive count slides away everything below the top.
func (vm *VM) opSlide(cmd command) error {
	if len(vm.stack) == 0 {
		return nil
	}
	below := len(vm.stack) - 1
	n := cmd.num
	if n <= 0 || n > below {
		n = below
	}
	top := vm.stack[below]
	vm.stack = append(vm.stack[:below-n], top)
	return nil
}

func (vm *VM) opDup(cmd command) error {
	if len(vm.stack) == 0 {
		return errStackUnderflow
	}
	vm.push(vm.stack[len(vm.stack)-1])
	return nil
}

func (vm *VM) opSwap(cmd command) error {
	i := len(vm.stack) - 1
	if i < 1 {
		return errStackUnderflow
	}
	vm.stack[i], vm.stack[i-1] = vm.stack[i-1], vm.stack[i]
	return nil
}

func (vm *VM) opDrop(cmd command) error {
	_, err := vm.pop()
	return err
}

//// Arithmetic

func (vm *VM) opAdd(cmd command) error {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}
	vm.push(b + a)
	return nil
}

func (vm *VM) opSub(cmd command) error {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}
	vm.push(b - a)
	return nil
}

func (vm *VM) opMul(cmd command) error {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}
	vm.push(b * a)
	return nil
}

func (vm *VM) opDiv(cmd command) error {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}
	if a == 0 {
		return errDivByZero
	}
	vm.push(floorDiv(b, a))
	return nil
}

func (vm *VM) opMod(cmd command) error {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}
	if a == 0 {
		return errDivByZero
	}
	vm.push(floorMod(b, a))
	return nil
}

// Division rounds toward negative infinity and the remainder takes the
// divisor's sign, matching the language's floored division convention.
func floorDiv(b, a int) int {
	q := b / a
	if b%a != 0 && (b < 0) != (a < 0) {
		q--
	}
	return q
}

func floorMod(b, a int) int {
	m := b % a
	if m != 0 && (m < 0) != (a < 0) {
		m += a
	}
	return m
}

//// Heap access

func (vm *VM) opStore(cmd command) error {
	val, addr, err := vm.pop2()
	if err != nil {
		return err
	}
	vm.heap[addr] = val
	return nil
}

func (vm *VM) opFetch(cmd command) error {
	addr, err := vm.pop()
	if err != nil {
		return err
	}
	val, ok := vm.heap[addr]
	if !ok {
		return heapAddrError(addr)
	}
	vm.push(val)
	return nil
}

//// I/O

func (vm *VM) opOutc(cmd command) error {
	val, err := vm.pop()
	if err != nil {
		return err
	}
	return writeRune(vm.out, rune(val))
}

func (vm *VM) opOutn(cmd command) error {
	val, err := vm.pop()
	if err != nil {
		return err
	}
	_, err = io.WriteString(vm.out, strconv.Itoa(val))
	return err
}

func (vm *VM) opInc(cmd command) error {
	r, err := vm.readRune()
	if err == io.EOF {
		return errEndOfInput
	} else if err != nil {
		return err
	}
	addr, err := vm.pop()
	if err != nil {
		return err
	}
	vm.heap[addr] = int(r)
	return nil
}

func (vm *VM) opInn(cmd command) error {
	line, err := vm.readLine()
	if err == io.EOF {
		return errEndOfInput
	} else if err != nil {
		return err
	}
	val, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return err
	}
	addr, err := vm.pop()
	if err != nil {
		return err
	}
	vm.heap[addr] = val
	return nil
}

//// Flow control

// opMark never runs in a well built program: marks are stripped during
// parse, so one surviving into the run loop is an internal defect.
func (vm *VM) opMark(cmd command) error {
	return errLeftoverMark
}

func (vm *VM) opCall(cmd command) error {
	ret := vm.pc
	if err := vm.jump(cmd.label); err != nil {
		return err
	}
	vm.calls = append(vm.calls, ret)
	return nil
}

func (vm *VM) opJump(cmd command) error {
	return vm.jump(cmd.label)
}

func (vm *VM) opJz(cmd command) error {
	val, err := vm.pop()
	if err != nil {
		return err
	}
	if val == 0 {
		return vm.jump(cmd.label)
	}
	return nil
}

func (vm *VM) opJn(cmd command) error {
	val, err := vm.pop()
	if err != nil {
		return err
	}
	if val < 0 {
		return vm.jump(cmd.label)
	}
	return nil
}

func (vm *VM) opRet(cmd command) error {
	i := len(vm.calls) - 1
	if i < 0 {
		return errCallUnderflow
	}
	vm.pc, vm.calls = vm.calls[i], vm.calls[:i]
	return nil
}

func (vm *VM) opExit(cmd command) error {
	vm.halt(nil)
	return nil
}

func (vm *VM) jump(label string) error {
	idx, err := vm.prog.resolve(label)
	if err != nil {
		return err
	}
	vm.pc = idx
	return nil
}

//// Halting

// halt flushes buffered output and aborts the run loop by panicking with a
// vmHaltError; the isolator in Run recovers it into an error return. halt
// with a nil error is a successful exit.
func (vm *VM) halt(err error) {
	if ferr := vm.out.Flush(); err == nil {
		err = ferr
	}
	if err == nil {
		vm.logf("halt")
	} else {
		vm.logf("halt error: %v", err)
	}
	panic(vmHaltError{err})
}

func (vm *VM) haltif(err error) {
	if err != nil {
		vm.halt(err)
	}
}

type vmHaltError struct{ error }

func (err vmHaltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}
func (err vmHaltError) Unwrap() error { return err.error }

var (
	errStackUnderflow = errors.New("stack underflow")
	errDivByZero      = errors.New("integer divide by zero")
	errCallUnderflow  = errors.New("return with no matching call")
	errEndOfInput     = errors.New("unexpected EOF on input")
	errLeftoverMark   = errors.New("leftover label mark in executable stream")
)

type heapAddrError int

func (addr heapAddrError) Error() string { return fmt.Sprintf("unknown heap address %v", int(addr)) }

// faultError tags a run time fault with the program counter it happened at.
type faultError struct {
	pc  int
	err error
}

func (fe faultError) Error() string { return fmt.Sprintf("fault @%v: %v", fe.pc, fe.err) }
func (fe faultError) Unwrap() error { return fe.err }

package main

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//// program building helpers, in canonical s/t/n notation

func opc(k instKind) string { return instTable[k].code }

func encodeNumber(n int) string {
	sign := "s"
	if n < 0 {
		sign, n = "t", -n
	}
	if n == 0 {
		return sign + "n"
	}
	bits := strconv.FormatInt(int64(n), 2)
	bits = strings.ReplaceAll(bits, "0", "s")
	bits = strings.ReplaceAll(bits, "1", "t")
	return sign + bits + "n"
}

func push(n int) string           { return opc(instPush) + encodeNumber(n) }
func copyn(n int) string          { return opc(instCopy) + encodeNumber(n) }
func slide(n int) string          { return opc(instSlide) + encodeNumber(n) }
func mark(label string) string    { return opc(instMark) + label + "n" }
func call(label string) string    { return opc(instCall) + label + "n" }
func jump(label string) string    { return opc(instJump) + label + "n" }
func jz(label string) string      { return opc(instJz) + label + "n" }
func jn(label string) string      { return opc(instJn) + label + "n" }
func prog(parts ...string) string { return strings.Join(parts, "") }

// raw expands canonical notation back into actual whitespace characters.
func raw(src string) string {
	return strings.NewReplacer("s", " ", "t", "\t", "n", "\n").Replace(src)
}

func TestVM_stack(t *testing.T) {
	vmTestCases{
		vmTest("exit only").
			withProgram(opc(instExit)).
			expectOutput(""),

		vmTest("empty program faults").
			withProgram("").
			expectError(errEndOfProgram),

		vmTest("push dup sub leaves zero").
			withProgram(prog(push(1), opc(instDup), opc(instSub), opc(instExit))).
			expectStack(0),

		vmTest("swap").
			withProgram(prog(push(1), push(2), opc(instSwap), opc(instExit))).
			expectStack(2, 1),

		vmTest("swap underflow").
			withProgram(prog(push(1), opc(instSwap))).
			expectError(errStackUnderflow),

		vmTest("drop").
			withProgram(prog(push(1), push(2), opc(instDrop), opc(instExit))).
			expectStack(1),

		vmTest("drop underflow").
			withProgram(opc(instDrop)).
			expectError(errStackUnderflow),

		vmTest("dup underflow").
			withProgram(opc(instDup)).
			expectError(errStackUnderflow),

		vmTest("copy reaches down the stack").
			withProgram(prog(push(10), push(20), push(30), copyn(2), opc(instExit))).
			expectStack(10, 20, 30, 10),

		vmTest("copy too deep").
			withProgram(prog(push(1), copyn(3))).
			expectError(errStackUnderflow),

		vmTest("copy negative").
			withProgram(prog(push(1), copyn(-1))).
			expectError(errStackUnderflow),

		vmTest("slide keeps top").
			withProgram(prog(push(1), push(2), push(3), slide(1), opc(instExit))).
			expectStack(1, 3),

		vmTest("slide zero clears below top").
			withProgram(prog(push(1), push(2), push(3), slide(0), opc(instExit))).
			expectStack(3),

		vmTest("slide negative clears below top").
			withProgram(prog(push(1), push(2), push(3), slide(-2), opc(instExit))).
			expectStack(3),

		vmTest("slide past depth clears below top").
			withProgram(prog(push(1), push(2), push(3), slide(9), opc(instExit))).
			expectStack(3),
	}.run(t)
}

func TestVM_arith(t *testing.T) {
	vmTestCases{
		vmTest("one plus one").
			withProgram(prog(push(1), push(1), opc(instAdd), opc(instOutn), opc(instExit))).
			expectOutput("2"),

		vmTest("subtract order").
			withProgram(prog(push(10), push(3), opc(instSub), opc(instOutn), opc(instExit))).
			expectOutput("7"),

		vmTest("multiply").
			withProgram(prog(push(6), push(7), opc(instMul), opc(instOutn), opc(instExit))).
			expectOutput("42"),

		vmTest("divide floors").
			withProgram(prog(push(7), push(2), opc(instDiv), opc(instOutn), opc(instExit))).
			expectOutput("3"),

		vmTest("divide floors negative dividend").
			withProgram(prog(push(-7), push(2), opc(instDiv), opc(instOutn), opc(instExit))).
			expectOutput("-4"),

		vmTest("divide floors negative divisor").
			withProgram(prog(push(7), push(-2), opc(instDiv), opc(instOutn), opc(instExit))).
			expectOutput("-4"),

		vmTest("modulo takes divisor sign").
			withProgram(prog(push(-7), push(2), opc(instMod), opc(instOutn), opc(instExit))).
			expectOutput("1"),

		vmTest("modulo negative divisor").
			withProgram(prog(push(7), push(-2), opc(instMod), opc(instOutn), opc(instExit))).
			expectOutput("-1"),

		vmTest("divide by zero").
			withProgram(prog(push(1), push(0), opc(instDiv))).
			expectError(errDivByZero),

		vmTest("modulo by zero").
			withProgram(prog(push(1), push(0), opc(instMod))).
			expectError(errDivByZero),

		vmTest("add underflow").
			withProgram(prog(push(1), opc(instAdd))).
			expectError(errStackUnderflow),
	}.run(t)
}

func TestVM_heap(t *testing.T) {
	vmTestCases{
		vmTest("store fetch round trip").
			withProgram(prog(
				push(5), push(42), opc(instStore),
				push(5), opc(instFetch), opc(instOutn), opc(instExit))).
			expectOutput("42").
			expectHeapAt(5, 42),

		vmTest("negative address").
			withProgram(prog(
				push(-3), push(9), opc(instStore),
				push(-3), opc(instFetch), opc(instOutn), opc(instExit))).
			expectOutput("9"),

		vmTest("fetch unknown address").
			withProgram(prog(push(5), opc(instFetch))).
			expectError(heapAddrError(5)),

		vmTest("store underflow").
			withProgram(prog(push(1), opc(instStore))).
			expectError(errStackUnderflow),
	}.run(t)
}

func TestVM_io(t *testing.T) {
	vmTestCases{
		vmTest("output character").
			withProgram(prog(push('H'), opc(instOutc), opc(instExit))).
			expectOutput("H"),

		vmTest("output number zero").
			withProgram(prog(push(0), opc(instOutn), opc(instExit))).
			expectOutput("0"),

		vmTest("input character").
			withProgram(prog(
				push(5), opc(instInc),
				push(5), opc(instFetch), opc(instOutc), opc(instExit))).
			withInput("A").
			expectOutput("A").
			expectHeapAt(5, 'A'),

		vmTest("input character at EOF").
			withProgram(prog(push(5), opc(instInc))).
			withInput("").
			expectError(errEndOfInput),

		vmTest("input number").
			withProgram(prog(
				push(5), opc(instInn),
				push(5), opc(instFetch), opc(instOutn), opc(instExit))).
			withInput("42\n").
			expectOutput("42"),

		vmTest("input number on last line").
			withProgram(prog(
				push(5), opc(instInn),
				push(5), opc(instFetch), opc(instOutn), opc(instExit))).
			withInput("-17").
			expectOutput("-17"),

		vmTest("input number at EOF").
			withProgram(prog(push(5), opc(instInn))).
			withInput("").
			expectError(errEndOfInput),

		vmTest("input number malformed").
			withProgram(prog(push(5), opc(instInn))).
			withInput("forty two\n").
			expectError(strconv.ErrSyntax),
	}.run(t)
}

func TestVM_flow(t *testing.T) {
	vmTestCases{
		vmTest("call and return").
			withProgram(prog(
				call("t"), opc(instExit),
				mark("t"), push(7), opc(instOutn), opc(instRet))).
			expectOutput("7"),

		vmTest("nested calls").
			withProgram(prog(
				call("s"), opc(instExit),
				mark("s"), call("t"), opc(instRet),
				mark("t"), push(1), opc(instOutn), opc(instRet))).
			expectOutput("1"),

		vmTest("return without call").
			withProgram(opc(instRet)).
			expectError(errCallUnderflow),

		vmTest("jump if zero taken").
			withProgram(prog(
				push(0), jz("t"),
				push(5), opc(instOutn), opc(instExit),
				mark("t"), push(9), opc(instOutn), opc(instExit))).
			expectOutput("9").
			expectStack(),

		vmTest("jump if zero not taken").
			withProgram(prog(
				push(1), jz("t"),
				push(5), opc(instOutn), opc(instExit),
				mark("t"), push(9), opc(instOutn), opc(instExit))).
			expectOutput("5"),

		vmTest("jump if negative taken").
			withProgram(prog(
				push(-1), jn("t"),
				push(5), opc(instOutn), opc(instExit),
				mark("t"), push(9), opc(instOutn), opc(instExit))).
			expectOutput("9"),

		vmTest("jump if negative not taken on zero").
			withProgram(prog(
				push(0), jn("t"),
				push(5), opc(instOutn), opc(instExit),
				mark("t"), push(9), opc(instOutn), opc(instExit))).
			expectOutput("5"),

		vmTest("undefined label faults at the jump").
			withProgram(prog(jump("t"))).
			expectError(undefinedLabelError("t")),

		vmTest("undefined label unreached is fine").
			withProgram(prog(opc(instExit), jump("t"))).
			expectOutput(""),

		vmTest("empty label is a label").
			withProgram(prog(jump(""), opc(instExit), mark(""), push(3), opc(instOutn), opc(instExit))).
			expectOutput("3"),

		vmTest("duplicate label").
			withProgram(prog(mark("t"), mark("t"), opc(instExit))).
			expectError(duplicateLabelError("t")).
			expectOutput(""),

		vmTest("jump to end of program runs off").
			withProgram(prog(jump("t"), mark("t"))).
			expectError(errEndOfProgram),

		vmTest("backward jump spins until aborted").
			withProgram(prog(mark("t"), jump("t"))).
			withTimeout(100 * time.Millisecond).
			expectError(context.DeadlineExceeded),
	}.run(t)
}

func TestVM_rawSource(t *testing.T) {
	vmTestCases{
		vmTest("comment characters are ignored").
			withRawProgram("push.one:" + raw(push(1)) + "push.another:" + raw(push(1)) +
				"add:" + raw(opc(instAdd)) + "print:" + raw(opc(instOutn)) + "done:" + raw(opc(instExit))).
			expectOutput("2"),

		vmTest("cleaned mode drops stray bytes").
			withProgram(prog(push(2), opc(instOutn), opc(instExit)) + "\n").
			expectOutput("2"),
	}.run(t)
}

// A mark command surviving into the run loop means parse failed at its one
// job of stripping them; the engine treats it as an internal defect.
func TestVM_leftoverMark(t *testing.T) {
	vm := New()
	vm.prog = &program{
		commands: []command{{in: &instTable[instMark], label: "t"}},
		labels:   map[string]int{"t": 0},
	}
	vm.heap = make(map[int]int)

	err := isolate("test", func() error {
		vm.exec(context.Background())
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errLeftoverMark), "expected leftover mark fault, got %+v", err)
}

//// test case DSL

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	for _, vmt := range vmts {
		t.Run(vmt.name, vmt.run)
	}
}

func vmTest(name string) (vmt vmTestCase) {
	vmt.name = name
	return vmt
}

type vmTestCase struct {
	name    string
	opts    []VMOption
	timeout time.Duration
	wantErr error
	expect  []func(t *testing.T, vm *VM)
}

func (vmt vmTestCase) withProgram(src string) vmTestCase {
	vmt.opts = append(vmt.opts, WithProgramText(src), WithCleanedProgram())
	return vmt
}

func (vmt vmTestCase) withRawProgram(src string) vmTestCase {
	vmt.opts = append(vmt.opts, WithProgramText(src))
	return vmt
}

func (vmt vmTestCase) withInput(input string) vmTestCase {
	vmt.opts = append(vmt.opts, WithInput(strings.NewReader(input)))
	return vmt
}

func (vmt vmTestCase) withTimeout(timeout time.Duration) vmTestCase {
	vmt.timeout = timeout
	return vmt
}

func (vmt vmTestCase) expectError(err error) vmTestCase {
	vmt.wantErr = err
	return vmt
}

func (vmt vmTestCase) expectOutput(output string) vmTestCase {
	var out strings.Builder
	vmt.opts = append(vmt.opts, WithOutput(&out))
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, output, out.String(), "expected output")
	})
	return vmt
}

func (vmt vmTestCase) expectStack(values ...int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		if values == nil {
			values = []int{}
		}
		got := vm.stack
		if got == nil {
			got = []int{}
		}
		assert.Equal(t, values, got, "expected stack values")
	})
	return vmt
}

func (vmt vmTestCase) expectHeapAt(addr, value int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		got, ok := vm.heap[addr]
		if assert.True(t, ok, "expected heap address %v to be set", addr) {
			assert.Equal(t, value, got, "expected heap value @%v", addr)
		}
	})
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	vm := New(vmt.opts...)
	defer vm.Close()

	timeout := vmt.timeout
	if timeout == 0 {
		timeout = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := vm.Run(ctx)
	if vmt.wantErr != nil {
		assert.True(t, errors.Is(err, vmt.wantErr), "expected error: %v\ngot: %+v", vmt.wantErr, err)
	} else {
		assert.NoError(t, err, "unexpected VM run error")
	}

	if t.Failed() {
		vmt.dumpToTest(t, vm)
		return
	}
	for _, expect := range vmt.expect {
		expect(t, vm)
	}
}

func (vmt vmTestCase) dumpToTest(t *testing.T, vm *VM) {
	var out strings.Builder
	vmDumper{vm: vm, out: &out}.dump()
	t.Logf("vm dump:\n%s", out.String())
}

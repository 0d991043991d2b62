package main

import (
	"fmt"
	"io"
	"sort"
)

// vmDumper writes a program listing with label points interleaved, plus the
// machine state once a run has started. Tests dump it on failure; the same
// listing renders under trace logging.
type vmDumper struct {
	vm  *VM
	out io.Writer
}

func (dump vmDumper) dump() {
	if prog := dump.vm.prog; prog == nil {
		fmt.Fprintf(dump.out, "# no program\n")
	} else {
		dump.dumpProgram(prog)
	}
	fmt.Fprintf(dump.out, "# pc=%v\n", dump.vm.pc)
	fmt.Fprintf(dump.out, "# stack=%v\n", dump.vm.stack)
	fmt.Fprintf(dump.out, "# calls=%v\n", dump.vm.calls)
	dump.dumpHeap()
}

func (dump vmDumper) dumpProgram(prog *program) {
	marks := make(map[int][]string, len(prog.labels))
	for label, idx := range prog.labels {
		marks[idx] = append(marks[idx], label)
	}
	for i := 0; i <= len(prog.commands); i++ {
		labels := marks[i]
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(dump.out, "%q:\n", label)
		}
		if i < len(prog.commands) {
			fmt.Fprintf(dump.out, "\t@%v %v\n", i, prog.commands[i])
		}
	}
}

func (dump vmDumper) dumpHeap() {
	if len(dump.vm.heap) == 0 {
		return
	}
	addrs := make([]int, 0, len(dump.vm.heap))
	for addr := range dump.vm.heap {
		addrs = append(addrs, addr)
	}
	sort.Ints(addrs)
	for _, addr := range addrs {
		fmt.Fprintf(dump.out, "# heap[%v]=%v\n", addr, dump.vm.heap[addr])
	}
}

package main

// Each instruction belongs to one of five families, selected by an
// "instruction modification parameter" prefix on the wire.
type imp int

const (
	impStack imp = iota
	impArith
	impHeap
	impIO
	impFlow
)

// argKind says what, if anything, follows an instruction code on the wire.
type argKind int

const (
	argNone argKind = iota
	argNumber
	argLabel
)

type instKind int

const (
	instPush instKind = iota
	instCopy
	instSlide
	instDup
	instSwap
	instDrop

	instAdd
	instSub
	instMul
	instDiv
	instMod

	instStore
	instFetch

	instOutc
	instOutn
	instInc
	instInn

	instMark
	instCall
	instJump
	instJz
	instJn
	instRet
	instExit

	numInsts
)

// inst is one catalog entry: a name for dumps and logs, the family, the full
// prefix code (family prefix plus operation code) over the s/t/n alphabet,
// and the operand kind.
type inst struct {
	kind instKind
	name string
	imp  imp
	code string
	arg  argKind
}

// instTable is the closed instruction catalog, built once and never mutated.
// Codes are prefix-free across the whole table, so greedy decoding never
// backtracks across instruction boundaries.
var instTable = [numInsts]inst{
	instPush:  {instPush, "push", impStack, "ss", argNumber},
	instCopy:  {instCopy, "copy", impStack, "sts", argNumber},
	instSlide: {instSlide, "slide", impStack, "stn", argNumber},
	instDup:   {instDup, "dup", impStack, "sns", argNone},
	instSwap:  {instSwap, "swap", impStack, "snt", argNone},
	instDrop:  {instDrop, "drop", impStack, "snn", argNone},

	instAdd: {instAdd, "add", impArith, "tsss", argNone},
	instSub: {instSub, "sub", impArith, "tsst", argNone},
	instMul: {instMul, "mul", impArith, "tssn", argNone},
	instDiv: {instDiv, "div", impArith, "tsts", argNone},
	instMod: {instMod, "mod", impArith, "tstt", argNone},

	instStore: {instStore, "store", impHeap, "tts", argNone},
	instFetch: {instFetch, "fetch", impHeap, "ttt", argNone},

	instOutc: {instOutc, "outc", impIO, "tnss", argNone},
	instOutn: {instOutn, "outn", impIO, "tnst", argNone},
	instInc:  {instInc, "inc", impIO, "tnts", argNone},
	instInn:  {instInn, "inn", impIO, "tntt", argNone},

	instMark: {instMark, "mark", impFlow, "nss", argLabel},
	instCall: {instCall, "call", impFlow, "nst", argLabel},
	instJump: {instJump, "jump", impFlow, "nsn", argLabel},
	instJz:   {instJz, "jz", impFlow, "nts", argLabel},
	instJn:   {instJn, "jn", impFlow, "ntt", argLabel},
	instRet:  {instRet, "ret", impFlow, "ntn", argNone},
	instExit: {instExit, "exit", impFlow, "nnn", argNone},
}

var (
	instByCode = make(map[string]*inst, numInsts)
	maxCodeLen int
)

func init() {
	for i := range instTable {
		in := &instTable[i]
		instByCode[in.code] = in
		if len(in.code) > maxCodeLen {
			maxCodeLen = len(in.code)
		}
	}
}

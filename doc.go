/* Package main: an interpreter for a whitespace-only stack machine language.

The language carries meaning in exactly three characters -- space, tab and
linefeed -- and treats everything else in a source file as commentary. Each
instruction is spelled as a short prefix code over that alphabet: a family
prefix (stack manipulation, arithmetic, heap access, I/O, or flow control)
followed by an operation code, optionally followed by a signed binary number
or a linefeed-terminated label.

The interpreter is built from four small pieces, wired in a straight line:

    raw text -> clean -> decode/parse -> program -> run loop -> output

clean (clean.go) maps raw text onto a canonical one-byte-per-symbol alphabet
so the rest of the pipeline never sees anything but s, t and n. The decoder
(decode.go) greedily matches instruction codes against the closed catalog in
inst.go -- the codes are prefix-free, so a shortest-first scan is unambiguous
-- and decodes trailing number and label operands. parse assembles the
executable program (program.go), stripping label marks into a label table as
it goes, so the run loop never sees them. The machine itself (vm.go) is a
plain fetch-execute loop over an operand stack, a sparse heap and a call
stack, with faults delivered as tagged errors.

The machine is deliberately watchdog-free: a program that spins forever
spins forever. Embedders bound a run externally through the context handed
to Run, the way main.go's -timeout flag does.
*/
package main

package main

import "fmt"

// command is a decoded instruction occurrence. Operand fields are only
// meaningful when the instruction's operand kind says so; parse is the sole
// producer and always matches them up.
type command struct {
	in    *inst
	num   int
	label string
}

func (cmd command) String() string {
	switch cmd.in.arg {
	case argNumber:
		return fmt.Sprintf("%v %v", cmd.in.name, cmd.num)
	case argLabel:
		return fmt.Sprintf("%v %q", cmd.in.name, cmd.label)
	}
	return cmd.in.name
}

// program is an immutable executable command sequence plus the label table
// built while decoding. Each label maps to the index of the command that
// immediately follows its mark.
type program struct {
	commands []command
	labels   map[string]int
}

func newProgram() *program {
	return &program{labels: make(map[string]int)}
}

// add appends an executable command. Label marks are not appended: their
// label is bound to the index the next executable command will get.
// Redefining a label is a build error.
func (prog *program) add(cmd command) error {
	if cmd.in.kind == instMark {
		if _, defined := prog.labels[cmd.label]; defined {
			return duplicateLabelError(cmd.label)
		}
		prog.labels[cmd.label] = len(prog.commands)
		return nil
	}
	prog.commands = append(prog.commands, cmd)
	return nil
}

// resolve looks a label up at use time; whether a label exists is only
// checked when a jump or call actually reaches it.
func (prog *program) resolve(label string) (int, error) {
	idx, defined := prog.labels[label]
	if !defined {
		return 0, undefinedLabelError(label)
	}
	return idx, nil
}

type duplicateLabelError string
type undefinedLabelError string

func (label duplicateLabelError) Error() string { return fmt.Sprintf("label %q redefined", string(label)) }
func (label undefinedLabelError) Error() string { return fmt.Sprintf("undefined label %q", string(label)) }

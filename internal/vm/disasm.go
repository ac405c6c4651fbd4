package vm

import (
	"fmt"
	"sort"
	"strings"
)

// Disassemble returns a human-readable representation of the bytecode
func Disassemble(chunk *Chunk, name string) string {
	return DisassembleWithFunctions(chunk, nil, name)
}

// DisassembleWithFunctions also labels function entry points.
func DisassembleWithFunctions(chunk *Chunk, functions FunctionTable, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	entries := make(map[int][]string)
	for fn, addr := range functions {
		entries[addr] = append(entries[addr], fn)
	}

	for offset := range chunk.Code {
		if names, ok := entries[offset]; ok {
			sort.Strings(names)
			for _, fn := range names {
				sb.WriteString(fmt.Sprintf("%s:\n", fn))
			}
		}
		disassembleInstruction(&sb, chunk, offset)
	}

	return sb.String()
}

// disassembleInstruction writes one instruction line
func disassembleInstruction(sb *strings.Builder, chunk *Chunk, offset int) {
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	// Print line number
	if offset > 0 && chunk.LineAt(offset) == chunk.LineAt(offset-1) {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", chunk.LineAt(offset)))
	}

	ins := chunk.Code[offset]
	name := ins.Op.String()

	switch {
	case ins.Op == OP_PUSH:
		if ins.Operand >= 0 && ins.Operand < len(chunk.Constants) {
			sb.WriteString(fmt.Sprintf("%-14s %4d '%s'\n", name, ins.Operand, chunk.Constants[ins.Operand].Inspect()))
		} else {
			sb.WriteString(fmt.Sprintf("%-14s %4d <bad constant>\n", name, ins.Operand))
		}
	case ins.Op.IsJump():
		sb.WriteString(fmt.Sprintf("%-14s %4d -> %04d\n", name, offset, ins.Operand))
	case ins.Op.HasOperand():
		sb.WriteString(fmt.Sprintf("%-14s %4d\n", name, ins.Operand))
	default:
		sb.WriteString(name + "\n")
	}
}

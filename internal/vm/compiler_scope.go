package vm

import "fmt"

// Local slots

// declareLocal binds name to a slot. An existing binding wins.
func (c *Compiler) declareLocal(name string) int {
	for i, l := range c.locals {
		if l == name {
			return i
		}
	}
	c.locals = append(c.locals, name)
	return len(c.locals) - 1
}

// pushLocal always appends a fresh slot.
func (c *Compiler) pushLocal(name string) int {
	c.locals = append(c.locals, name)
	return len(c.locals) - 1
}

func (c *Compiler) popLocal() {
	c.locals = c.locals[:len(c.locals)-1]
}

// resolveLocal returns the most recently declared slot named name.
func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i] == name {
			return i, true
		}
	}
	return -1, false
}

// Globals

func (c *Compiler) globalSlot(name string) int {
	if slot, ok := c.globals[name]; ok {
		return slot
	}
	slot := len(c.globalNames)
	c.globals[name] = slot
	c.globalNames = append(c.globalNames, name)
	return slot
}

// Labels

func (c *Compiler) newLabel() int {
	c.labels = append(c.labels, placeholder)
	return len(c.labels) - 1
}

// emitJumpTo emits a jump to label, patching immediately if the label is
// already resolved (backward jump).
func (c *Compiler) emitJumpTo(op Opcode, label int, line int) int {
	if addr := c.labels[label]; addr != placeholder {
		return c.emitArg(op, addr, line)
	}
	pos := c.emitArg(op, placeholder, line)
	c.patches[label] = append(c.patches[label], pos)
	return pos
}

// markLabel resolves label to the next instruction address.
func (c *Compiler) markLabel(label int) {
	addr := c.chunk.Len()
	c.labels[label] = addr
	for _, pos := range c.patches[label] {
		c.chunk.Code[pos].Operand = addr
	}
	delete(c.patches, label)
}

func (c *Compiler) checkLabels() error {
	for id, addr := range c.labels {
		if addr == placeholder {
			return &CompileError{Message: fmt.Sprintf("internal error: label %d never resolved", id)}
		}
	}
	for _, ins := range c.chunk.Code {
		if ins.Op.IsJump() && ins.Operand == placeholder {
			return &CompileError{Message: "internal error: unpatched jump"}
		}
	}
	return nil
}

// Loops

func (c *Compiler) enterLoop(exitLabel int) {
	c.loopStack = append(c.loopStack, LoopContext{exitLabel: exitLabel})
}

func (c *Compiler) leaveLoop() {
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
}

package vm

import (
	"errors"
	"fmt"
)

// setGlobal stores v in slot, growing the globals as needed.
func (vm *VM) setGlobal(slot int, v Value) {
	for len(vm.globals) <= slot {
		vm.globals = append(vm.globals, NilVal())
		vm.globalDefined = append(vm.globalDefined, false)
	}
	vm.globals[slot] = v
	vm.globalDefined[slot] = true
}

// RegisterBuiltin makes b callable by name from this VM only. A builtin of
// the same name is replaced.
func (vm *VM) RegisterBuiltin(b *Builtin) {
	if !vm.ownBuiltins {
		own := make(map[string]*Builtin, len(vm.builtins)+1)
		for name, fn := range vm.builtins {
			own[name] = fn
		}
		vm.builtins = own
		vm.ownBuiltins = true
	}
	vm.builtins[b.Name] = b
}

// PresetGlobal stores v into a global slot at the start of every Run.
func (vm *VM) PresetGlobal(slot int, v Value) {
	if vm.presets == nil {
		vm.presets = make(map[int]Value)
	}
	vm.presets[slot] = v.Copy()
}

// Call runs a compiled function of the last program with args and returns
// its result. Globals and top-level locals left by Run are visible to it.
func (vm *VM) Call(name string, args ...Value) (Value, error) {
	if vm.chunk == nil {
		return NilVal(), errors.New("no program loaded")
	}
	addr, ok := vm.functions[name]
	if !ok {
		return NilVal(), fmt.Errorf("function %s not found", name)
	}

	vm.halted = false
	vm.steps = 0
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]

	start := len(vm.locals)
	for _, a := range args {
		vm.locals = append(vm.locals, a.Copy())
	}
	vm.frames = append(vm.frames, CallFrame{
		ReturnIP:    len(vm.chunk.Code) + 1,
		LocalsStart: start,
		LocalsCount: len(args),
		Function:    name,
		CallIP:      -1,
	})
	vm.ip = addr
	if err := vm.execute(len(vm.chunk.Code)); err != nil {
		vm.locals = vm.locals[:start]
		return NilVal(), err
	}
	if len(vm.stack) == 0 {
		return NilVal(), nil
	}
	return vm.stack[len(vm.stack)-1], nil
}

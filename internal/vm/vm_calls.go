package vm

// call handles OP_CALL. The stack holds [name, arg0..argN-1].
func (vm *VM) call(argc int) error {
	if argc < 0 {
		return vm.runtimeError("invalid argument count %d", argc)
	}
	callee := vm.peek(argc)
	if callee.Type != ValString {
		return vm.runtimeError("Function name must be a string")
	}
	name := callee.Str

	if addr, ok := vm.functions[name]; ok {
		return vm.callFunction(name, addr, argc)
	}

	b, ok := vm.builtins[name]
	if !ok {
		return vm.runtimeError("Unknown function: %s", name)
	}
	if err := b.checkArity(argc); err != nil {
		return err
	}
	args := vm.popN(argc)
	vm.pop() // name
	result, err := b.Fn(vm, args)
	if err != nil {
		return err
	}
	vm.push(result)
	vm.ip++
	return nil
}

// callFunction moves the arguments into a new locals window and jumps.
func (vm *VM) callFunction(name string, addr, argc int) error {
	if len(vm.frames) >= MaxFrames {
		return errStackOverflow
	}
	args := vm.popN(argc)
	vm.pop() // name

	start := len(vm.locals)
	vm.locals = append(vm.locals, args...)
	vm.frames = append(vm.frames, CallFrame{
		ReturnIP:    vm.ip + 1,
		LocalsStart: start,
		LocalsCount: argc,
		Function:    name,
		CallIP:      vm.ip,
	})
	vm.ip = addr
	return nil
}

// doReturn pops the result, discards the frame's locals and resumes the
// caller. Without a frame it halts.
func (vm *VM) doReturn() {
	frame := vm.currentFrame()
	if frame == nil {
		vm.halted = true
		vm.ip = len(vm.chunk.Code)
		return
	}
	result := vm.pop()
	f := *frame
	vm.frames = vm.frames[:len(vm.frames)-1]

	for i := f.LocalsStart; i < len(vm.locals); i++ {
		vm.locals[i] = Value{}
	}
	vm.locals = vm.locals[:f.LocalsStart]
	vm.push(result)
	vm.ip = f.ReturnIP
}

// callModule handles OP_CALL_MODULE. The stack holds [modfn, args...].
func (vm *VM) callModule(argc int) error {
	if argc < 0 {
		return vm.runtimeError("invalid argument count %d", argc)
	}
	callee := vm.peek(argc)
	if callee.Type != ValModuleFunction {
		return vm.runtimeError("Module call target must be a module function")
	}
	mod, ok := nativeModules[callee.Str]
	if !ok {
		return vm.runtimeError("Unknown module: %s", callee.Str)
	}
	b, ok := mod[callee.Func]
	if !ok {
		return vm.runtimeError("Unknown function: %s.%s", callee.Str, callee.Func)
	}
	if err := b.checkArity(argc); err != nil {
		return err
	}
	args := vm.popN(argc)
	vm.pop()
	result, err := b.Fn(vm, args)
	if err != nil {
		return err
	}
	vm.push(result)
	vm.ip++
	return nil
}

package vm

// executeOp executes a single instruction and advances ip.
func (vm *VM) executeOp(ins Instruction) error {
	switch ins.Op {
	case OP_PUSH:
		vm.push(vm.readConstant(ins.Operand))

	case OP_POP:
		vm.pop()

	case OP_DUP:
		vm.push(vm.peek(0))

	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOD, OP_POW:
		vm.checkStack(2)
		b := vm.pop()
		a := vm.pop()
		result, err := arithmetic(ins.Op, a, b)
		if err != nil {
			return err
		}
		vm.push(result)

	case OP_NEG:
		v := vm.pop()
		if v.Type != ValNumber {
			return vm.runtimeError("Expected number")
		}
		vm.push(NumberVal(-v.Num))

	case OP_NOT:
		vm.push(BoolVal(!vm.pop().IsTruthy()))

	case OP_EQ, OP_NE, OP_LT, OP_LE, OP_GT, OP_GE:
		vm.checkStack(2)
		b := vm.pop()
		a := vm.pop()
		result, err := compare(ins.Op, a, b)
		if err != nil {
			return err
		}
		vm.push(BoolVal(result))

	case OP_AND:
		vm.checkStack(2)
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolVal(a.IsTruthy() && b.IsTruthy()))

	case OP_OR:
		vm.checkStack(2)
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolVal(a.IsTruthy() || b.IsTruthy()))

	case OP_GET_LOCAL:
		idx := vm.localBase() + ins.Operand
		if ins.Operand < 0 || idx >= len(vm.locals) {
			return vm.runtimeError("Local variable %d not found", ins.Operand)
		}
		vm.push(vm.locals[idx])

	case OP_SET_LOCAL:
		if ins.Operand < 0 {
			return vm.runtimeError("Local variable %d not found", ins.Operand)
		}
		idx := vm.localBase() + ins.Operand
		for len(vm.locals) <= idx {
			vm.locals = append(vm.locals, NilVal())
		}
		vm.locals[idx] = vm.peek(0)

	case OP_GET_GLOBAL:
		v, ok := vm.Global(ins.Operand)
		if !ok {
			return vm.runtimeError("Global variable %d not defined", ins.Operand)
		}
		vm.push(v)

	case OP_SET_GLOBAL:
		slot := ins.Operand
		if slot < 0 {
			return vm.runtimeError("Global variable %d not defined", slot)
		}
		vm.setGlobal(slot, vm.peek(0))

	case OP_JUMP:
		vm.ip = ins.Operand
		return nil

	case OP_JUMP_IF_FALSE:
		if !vm.pop().IsTruthy() {
			vm.ip = ins.Operand
			return nil
		}

	case OP_JUMP_IF_TRUE:
		if vm.pop().IsTruthy() {
			vm.ip = ins.Operand
			return nil
		}

	case OP_CALL:
		return vm.call(ins.Operand)

	case OP_CALL_MODULE:
		return vm.callModule(ins.Operand)

	case OP_RETURN:
		vm.doReturn()
		return nil

	case OP_MAKE_ARRAY:
		if ins.Operand < 0 {
			return vm.runtimeError("invalid array size %d", ins.Operand)
		}
		vm.push(ArrayVal(vm.popN(ins.Operand)))

	case OP_GET_INDEX:
		vm.checkStack(2)
		idx := vm.pop()
		coll := vm.pop()
		v, err := getIndex(coll, idx)
		if err != nil {
			return err
		}
		vm.push(v)

	case OP_SET_INDEX:
		vm.checkStack(3)
		val := vm.pop()
		idx := vm.pop()
		arr := vm.pop()
		v, err := setIndex(arr, idx, val)
		if err != nil {
			return err
		}
		vm.push(v)

	case OP_PRINT:
		vm.write(vm.pop().String())

	case OP_HALT:
		vm.halted = true
		vm.ip = len(vm.chunk.Code)
		return nil

	case OP_DB_USE, OP_DB_SKIP, OP_DB_SEEK:
		vm.pop()

	case OP_DB_REPLACE:
		vm.checkStack(2)
		vm.pop()
		vm.pop()

	case OP_DB_GOTOP, OP_DB_GOBOTTOM:
		// no dataset engine

	default:
		return vm.runtimeError("unknown opcode %d", ins.Op)
	}

	vm.ip++
	return nil
}

func (vm *VM) localBase() int {
	if f := vm.currentFrame(); f != nil {
		return f.LocalsStart
	}
	return 0
}

// Package vm implements the bytecode compiler and stack virtual machine.
package vm

// Opcode represents a single VM instruction
type Opcode byte

const (
	// Stack manipulation
	OP_PUSH Opcode = iota // Push constant from pool
	OP_POP                // Discard top of stack
	OP_DUP                // Duplicate top of stack

	// Arithmetic
	OP_ADD // + (numbers, strings, number/string mix)
	OP_SUB // -
	OP_MUL // *
	OP_DIV // /
	OP_MOD // %
	OP_POW // ^
	OP_NEG // Unary minus

	// Comparison
	OP_EQ // ==
	OP_NE // !=
	OP_LT // <
	OP_LE // <=
	OP_GT // >
	OP_GE // >=

	// Logic
	OP_NOT // NOT
	OP_AND // AND (both operands evaluated)
	OP_OR  // OR (both operands evaluated)

	// Variables
	OP_GET_LOCAL  // Get frame-relative local slot
	OP_SET_LOCAL  // Set frame-relative local slot, value stays on stack
	OP_GET_GLOBAL // Get global slot
	OP_SET_GLOBAL // Set global slot, value stays on stack

	// Control flow
	OP_JUMP          // Unconditional jump to absolute address
	OP_JUMP_IF_FALSE // Pop condition, jump if falsy
	OP_JUMP_IF_TRUE  // Pop condition, jump if truthy
	OP_CALL          // Call by name: [name, args...] -> [result]
	OP_CALL_MODULE   // Call native module function: [modfn, args...] -> [result]
	OP_RETURN        // Return from function (halts without a frame)

	// Arrays
	OP_MAKE_ARRAY // Pop N values into a new array
	OP_GET_INDEX  // [coll, idx] -> [elem]
	OP_SET_INDEX  // [arr, idx, val] -> [arr']

	// Output
	OP_PRINT // Pop and write rendered value

	OP_HALT

	// Database stubs
	OP_DB_USE
	OP_DB_SKIP
	OP_DB_GOTOP
	OP_DB_GOBOTTOM
	OP_DB_SEEK
	OP_DB_REPLACE
)

// OpcodeNames maps opcodes to their string names (for debugging)
var OpcodeNames = map[Opcode]string{
	OP_PUSH:          "PUSH",
	OP_POP:           "POP",
	OP_DUP:           "DUP",
	OP_ADD:           "ADD",
	OP_SUB:           "SUBTRACT",
	OP_MUL:           "MULTIPLY",
	OP_DIV:           "DIVIDE",
	OP_MOD:           "MODULO",
	OP_POW:           "POWER",
	OP_NEG:           "NEGATE",
	OP_EQ:            "EQUAL",
	OP_NE:            "NOT_EQUAL",
	OP_LT:            "LESS",
	OP_LE:            "LESS_EQUAL",
	OP_GT:            "GREATER",
	OP_GE:            "GREATER_EQUAL",
	OP_NOT:           "NOT",
	OP_AND:           "AND",
	OP_OR:            "OR",
	OP_GET_LOCAL:     "GET_LOCAL",
	OP_SET_LOCAL:     "SET_LOCAL",
	OP_GET_GLOBAL:    "GET_GLOBAL",
	OP_SET_GLOBAL:    "SET_GLOBAL",
	OP_JUMP:          "JUMP",
	OP_JUMP_IF_FALSE: "JUMP_IF_FALSE",
	OP_JUMP_IF_TRUE:  "JUMP_IF_TRUE",
	OP_CALL:          "CALL",
	OP_CALL_MODULE:   "CALL_MODULE",
	OP_RETURN:        "RETURN",
	OP_MAKE_ARRAY:    "MAKE_ARRAY",
	OP_GET_INDEX:     "GET_INDEX",
	OP_SET_INDEX:     "SET_INDEX",
	OP_PRINT:         "PRINT",
	OP_HALT:          "HALT",
	OP_DB_USE:        "DB_USE",
	OP_DB_SKIP:       "DB_SKIP",
	OP_DB_GOTOP:      "DB_GOTOP",
	OP_DB_GOBOTTOM:   "DB_GOBOTTOM",
	OP_DB_SEEK:       "DB_SEEK",
	OP_DB_REPLACE:    "DB_REPLACE",
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// HasOperand reports whether the opcode carries an integer operand.
func (op Opcode) HasOperand() bool {
	switch op {
	case OP_PUSH, OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_GLOBAL, OP_SET_GLOBAL,
		OP_JUMP, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUE, OP_CALL, OP_CALL_MODULE, OP_MAKE_ARRAY:
		return true
	}
	return false
}

// IsJump reports whether the operand is an instruction address.
func (op Opcode) IsJump() bool {
	return op == OP_JUMP || op == OP_JUMP_IF_FALSE || op == OP_JUMP_IF_TRUE
}

// StackEffect is the net change in operand stack depth caused by ins when
// it completes normally. RETURN and HALT leave the current frame and report 0.
func StackEffect(ins Instruction) int {
	switch ins.Op {
	case OP_PUSH, OP_DUP, OP_GET_LOCAL, OP_GET_GLOBAL:
		return 1
	case OP_POP, OP_PRINT, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUE,
		OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOD, OP_POW,
		OP_EQ, OP_NE, OP_LT, OP_LE, OP_GT, OP_GE, OP_AND, OP_OR,
		OP_GET_INDEX, OP_DB_USE, OP_DB_SKIP, OP_DB_SEEK:
		return -1
	case OP_SET_INDEX, OP_DB_REPLACE:
		return -2
	case OP_CALL, OP_CALL_MODULE:
		return -ins.Operand
	case OP_MAKE_ARRAY:
		return 1 - ins.Operand
	}
	return 0
}

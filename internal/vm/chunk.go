package vm

// Instruction is an opcode plus its integer operand. Operand is zero for
// opcodes that take none.
type Instruction struct {
	Op      Opcode `cbor:"1,keyasint"`
	Operand int    `cbor:"2,keyasint,omitempty"`
}

// placeholder marks a jump operand that has not been patched yet.
const placeholder = -1

// Chunk represents a sequence of bytecode instructions
type Chunk struct {
	// Code is the instruction stream
	Code []Instruction `cbor:"1,keyasint"`

	// Constants pool - literals, function names, etc.
	Constants []Value `cbor:"2,keyasint"`

	// Lines maps instruction index to source line number (for errors)
	Lines []int `cbor:"3,keyasint"`

	// File is the source file name
	File string `cbor:"4,keyasint,omitempty"`
}

// NewChunk creates a new empty chunk
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]Instruction, 0, 256),
		Constants: make([]Value, 0, 64),
		Lines:     make([]int, 0, 256),
	}
}

// WriteOp appends an operand-less instruction and returns its address
func (c *Chunk) WriteOp(op Opcode, line int) int {
	return c.WriteOpArg(op, 0, line)
}

// WriteOpArg appends an instruction with an operand and returns its address
func (c *Chunk) WriteOpArg(op Opcode, operand int, line int) int {
	c.Code = append(c.Code, Instruction{Op: op, Operand: operand})
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// AddConstant adds a constant to the pool and returns its index
func (c *Chunk) AddConstant(value Value) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// WriteConstant writes OP_PUSH for a new constant
func (c *Chunk) WriteConstant(value Value, line int) int {
	return c.WriteOpArg(OP_PUSH, c.AddConstant(value), line)
}

// Len returns the number of instructions in the chunk
func (c *Chunk) Len() int {
	return len(c.Code)
}

// LineAt returns the source line of the instruction at ip, or 0.
func (c *Chunk) LineAt(ip int) int {
	if ip >= 0 && ip < len(c.Lines) {
		return c.Lines[ip]
	}
	return 0
}

// FunctionTable maps user function names to entry addresses.
type FunctionTable map[string]int

// NameAt returns the function whose body contains ip, or "".
func (ft FunctionTable) NameAt(ip int) string {
	best, bestAddr := "", -1
	for name, addr := range ft {
		if addr <= ip && (addr > bestAddr || (addr == bestAddr && name < best)) {
			best, bestAddr = name, addr
		}
	}
	return best
}

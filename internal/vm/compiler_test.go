package vm

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dcfrancisco/marina/internal/ast"
	"github.com/dcfrancisco/marina/internal/token"
)

func opsOf(chunk *Chunk) []Opcode {
	ops := make([]Opcode, len(chunk.Code))
	for i, ins := range chunk.Code {
		ops[i] = ins.Op
	}
	return ops
}

func TestCompileLocalDeclaration(t *testing.T) {
	chunk, _ := compile(t, "LOCAL x := 10 + 20")
	want := []Opcode{OP_PUSH, OP_PUSH, OP_ADD, OP_SET_LOCAL, OP_POP, OP_HALT}
	if got := opsOf(chunk); !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
}

func TestCompileScopesShareGlobals(t *testing.T) {
	c := NewCompiler()
	chunk, _, err := c.Compile(parse(t, "STATIC a := 1\nPRIVATE b := 2\nPUBLIC c := 3\nPUBLIC a := 4"))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.GlobalNames(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("globals = %v", got)
	}
	var slots []int
	for _, ins := range chunk.Code {
		if ins.Op == OP_SET_GLOBAL {
			slots = append(slots, ins.Operand)
		}
	}
	if !reflect.DeepEqual(slots, []int{0, 1, 2, 0}) {
		t.Errorf("global slots = %v", slots)
	}
}

func TestCompileLocalFirstSeenWins(t *testing.T) {
	chunk, _ := compile(t, "LOCAL x := 1\nLOCAL y := 2\nLOCAL x := 3")
	var slots []int
	for _, ins := range chunk.Code {
		if ins.Op == OP_SET_LOCAL {
			slots = append(slots, ins.Operand)
		}
	}
	if !reflect.DeepEqual(slots, []int{0, 1, 0}) {
		t.Errorf("local slots = %v", slots)
	}
}

func TestCompileFunction(t *testing.T) {
	chunk, functions := compile(t, "FUNCTION Add(a, b)\nRETURN a + b\n? Add(1, 2)")
	addr, ok := functions["Add"]
	if !ok {
		t.Fatal("Add missing from function table")
	}
	if addr != 1 {
		t.Errorf("entry = %d, want 1 (after the guard jump)", addr)
	}
	guard := chunk.Code[0]
	if guard.Op != OP_JUMP {
		t.Fatalf("first instruction = %s, want JUMP", guard.Op)
	}
	// body: GET_LOCAL 0, GET_LOCAL 1, ADD, RETURN, implicit PUSH NIL, RETURN
	if guard.Operand != addr+6 {
		t.Errorf("guard jumps to %d, want %d", guard.Operand, addr+6)
	}
	body := opsOf(chunk)[addr : addr+6]
	want := []Opcode{OP_GET_LOCAL, OP_GET_LOCAL, OP_ADD, OP_RETURN, OP_PUSH, OP_RETURN}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("body = %v, want %v", body, want)
	}
}

func TestCompileCallPushesNameFirst(t *testing.T) {
	chunk, _ := compile(t, "Foo(1, 2)")
	want := []Opcode{OP_PUSH, OP_PUSH, OP_PUSH, OP_CALL, OP_POP, OP_HALT}
	if got := opsOf(chunk); !reflect.DeepEqual(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	if name := chunk.Constants[chunk.Code[0].Operand]; name.Type != ValString || name.Str != "Foo" {
		t.Errorf("callee constant = %v", name)
	}
	if chunk.Code[3].Operand != 2 {
		t.Errorf("argc = %d", chunk.Code[3].Operand)
	}
}

func TestCompilePrintIntrinsic(t *testing.T) {
	chunk, _ := compile(t, "? 1, 2")
	// 1, PRINT, " ", PRINT, 2, PRINT, "\n", PRINT
	want := []Opcode{OP_PUSH, OP_PRINT, OP_PUSH, OP_PRINT, OP_PUSH, OP_PRINT, OP_PUSH, OP_PRINT, OP_HALT}
	if got := opsOf(chunk); !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}

	chunk, _ = compile(t, "?? 1")
	want = []Opcode{OP_PUSH, OP_PRINT, OP_HALT}
	if got := opsOf(chunk); !reflect.DeepEqual(got, want) {
		t.Errorf("?? ops = %v, want %v", got, want)
	}
}

func TestCompileCase(t *testing.T) {
	chunk, _ := compile(t, "CASE x\nCASE 1\n? 1\nENDCASE")
	ops := opsOf(chunk)
	want := []Opcode{
		OP_GET_GLOBAL,
		OP_DUP, OP_PUSH, OP_EQ, OP_JUMP_IF_FALSE, OP_POP,
		OP_PUSH, OP_PRINT, OP_PUSH, OP_PRINT,
		OP_JUMP,
		OP_POP,
		OP_HALT,
	}
	if !reflect.DeepEqual(ops, want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	if next := chunk.Code[4].Operand; next != 11 {
		t.Errorf("JUMP_IF_FALSE -> %d, want 11", next)
	}
	if end := chunk.Code[10].Operand; end != 12 {
		t.Errorf("JUMP -> %d, want 12", end)
	}
}

func TestCompileSetIndexStoresBack(t *testing.T) {
	chunk, _ := compile(t, "LOCAL a := {1}\na[0] := 5")
	ops := opsOf(chunk)
	want := []Opcode{OP_GET_LOCAL, OP_PUSH, OP_PUSH, OP_SET_LOCAL, OP_SET_INDEX, OP_SET_LOCAL, OP_POP, OP_GET_LOCAL, OP_POP, OP_HALT}
	if got := ops[len(ops)-len(want):]; !reflect.DeepEqual(got, want) {
		t.Errorf("ops = %v, want suffix %v", ops, want)
	}
	// a is slot 0; the scratch slot follows it
	n := len(chunk.Code)
	if scratch, store := chunk.Code[n-7].Operand, chunk.Code[n-5].Operand; scratch != 1 || store != 0 {
		t.Errorf("scratch slot %d, store-back slot %d", scratch, store)
	}
}

func TestCompileSetIndexArity(t *testing.T) {
	tok := token.Token{Type: token.IDENT, Lexeme: "__SET_INDEX__", Line: 3}
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.ExpressionStatement{Token: tok, Expression: &ast.CallExpression{
			Token:     tok,
			Function:  "__SET_INDEX__",
			Arguments: []ast.Expression{&ast.NumberLiteral{Token: tok, Value: 1}},
		}},
	}}
	chunk, _, err := Compile(prog)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if chunk != nil {
		t.Error("no chunk should be returned on error")
	}
	if !strings.Contains(err.Error(), "Internal error: __SET_INDEX__ requires 3 args") {
		t.Errorf("err = %v", err)
	}
}

func TestCompileExitOutsideLoop(t *testing.T) {
	tests := []string{
		"EXIT",
		"IF TRUE\nEXIT\nENDIF",
		// a loop around the call site does not count
		"LOOP\nFUNCTION F()\nEXIT\nRETURN 1\nENDLOOP",
	}
	for _, input := range tests {
		_, _, err := Compile(parse(t, input))
		var ce *CompileError
		if !errors.As(err, &ce) {
			t.Errorf("%q: err = %v, want *CompileError", input, err)
			continue
		}
		if !strings.Contains(ce.Message, "EXIT outside of loop") {
			t.Errorf("%q: message = %q", input, ce.Message)
		}
	}
}

func TestCompileJumpsArePatched(t *testing.T) {
	input := `FUNCTION F(n)
LOCAL r := 0
FOR i := 1 TO n STEP 2
IF i == 5
EXIT
ELSEIF i == 3
r := r + 1
ELSE
r := r + 2
ENDIF
NEXT
WHILE r < 10
r++
IF r == 7
EXIT
ENDIF
ENDDO
DO
r--
WHILE r > 20
CASE r
CASE 1
r := 0
CASE 2
r := 1
OTHERWISE
LOOP
EXIT
ENDLOOP
ENDCASE
RETURN r
? F(10)`
	chunk, _ := compile(t, input)
	for i, ins := range chunk.Code {
		if ins.Op.IsJump() && (ins.Operand < 0 || ins.Operand > len(chunk.Code)) {
			t.Errorf("instruction %d (%s) has unpatched target %d", i, ins.Op, ins.Operand)
		}
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	input := "PUBLIC g := 1\nFUNCTION F(a)\nRETURN a * g\nFOR i := 1 TO 3\n? F(i), {i, \"x\"}\nNEXT"
	first, firstFns := compile(t, input)
	for i := 0; i < 5; i++ {
		again, againFns := compile(t, input)
		if !reflect.DeepEqual(first, again) || !reflect.DeepEqual(firstFns, againFns) {
			t.Fatal("compiling the same program twice produced different output")
		}
		a, err := cborEncMode.Marshal(first)
		if err != nil {
			t.Fatal(err)
		}
		b, err := cborEncMode.Marshal(again)
		if err != nil {
			t.Fatal(err)
		}
		if string(a) != string(b) {
			t.Fatal("encoded chunks differ")
		}
	}
}

// Straight-line statements must leave the stack depth unchanged.
func TestStackEffectsBalance(t *testing.T) {
	inputs := []string{
		"LOCAL x := 1 + 2 * 3",
		"x := {1, 2, {3}}",
		"Foo(1, 2, 3)",
		"? 1, 2, 3",
		"LOCAL a := {1}\na[0] := 2",
		"math.max(1, 2)",
		"USE db\nDBSKIP 2\nDBGOTOP\nDBGOBOTTOM\nDBSEEK 1\nREPLACE f WITH 2",
		"x := NOT (1 < 2) AND TRUE",
	}
	for _, input := range inputs {
		chunk, _ := compile(t, input)
		depth := 0
		for _, ins := range chunk.Code {
			depth += StackEffect(ins)
			if depth < 0 {
				t.Errorf("%q: stack depth went negative at %s", input, ins.Op)
			}
		}
		if depth != 0 {
			t.Errorf("%q: net stack effect %d, want 0", input, depth)
		}
	}
}

func TestCompileForUsesFreshLocal(t *testing.T) {
	c := NewCompiler()
	if _, _, err := c.Compile(parse(t, "LOCAL i := 100\nFOR i := 1 TO 2\nNEXT\n? i")); err != nil {
		t.Fatal(err)
	}
	if len(c.locals) != 1 {
		t.Errorf("locals after loop = %v, want only the declared local", c.locals)
	}
	if got := runVM(t, "LOCAL i := 100\nFOR i := 1 TO 2\nNEXT\n? i"); got != "100\n" {
		t.Errorf("output = %q, want outer i untouched", got)
	}
}

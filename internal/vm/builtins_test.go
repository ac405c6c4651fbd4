package vm

import (
	"strings"
	"testing"
)

func TestStringBuiltins(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`? Replicate("ab", 3)`, "ababab\n"},
		{`? Replicate(7, 2)`, "77\n"},
		{`? "[" + Space(3) + "]"`, "[   ]\n"},
		{`? Len("héllo")`, "5\n"},
		{`? SubStr("Hello World", 7, 5)`, "World\n"},
		{`? SubStr("Hello", 0, 2)`, "He\n"},
		{`? SubStr("Hello", 4, 10)`, "lo\n"},
		{`? "[" + SubStr("Hi", 9, 1) + "]"`, "[]\n"},
		{`? "[" + Trim("  x  ") + "]"`, "[x]\n"},
		{`? "[" + AllTrim("  x  ") + "]"`, "[x]\n"},
		{`? "[" + LTrim("  x  ") + "]"`, "[x  ]\n"},
		{`? "[" + RTrim("  x  ") + "]"`, "[  x]\n"},
		{`? Chr(65)`, "A\n"},
		{`? Chr(256) == Chr(255)`, "TRUE\n"},
		{`? Asc(Chr(-3))`, "0\n"},
		{`? SubStr("abc", 2, 2^30)`, "bc\n"},
		{`? Len(Space(-5))`, "0\n"},
		{`? Asc("A")`, "65\n"},
		{`? Asc("")`, "0\n"},
		{`? Upper("straße")`, "STRASSE\n"},
		{`? Lower("ÀB")`, "àb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := runVM(t, tt.input); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStringBuiltinLimits(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`? SubStr("abc", 1, 10^19)`, "Count out of range"},
		{`? SubStr("abc", 10^19, 1)`, "Count out of range"},
		{`? Replicate("ab", 10^19)`, "Count out of range"},
		{`? Replicate("ab", 2^30)`, "String too long"},
		{`? Space(2^25)`, "String too long"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			runVMExpectErrorContains(t, tt.input, tt.want)
		})
	}
}

func TestVal(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`? Val("42")`, "42\n"},
		{`? Val("  3.5 ")`, "3.5\n"},
		{`? Val("-12abc")`, "-12\n"},
		{`? Val("abc")`, "0\n"},
		{`? Val("")`, "0\n"},
		{`? Val(".5")`, "0.5\n"},
		{`? Val("7.")`, "7\n"},
		{`? Val(9)`, "9\n"},
		{`? Val(NIL)`, "0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := runVM(t, tt.input); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCursorBuiltins(t *testing.T) {
	chunk, functions := compile(t, "SetPos(2, 5)\nSavePos()\nGotoXY(1, 9)\nRestorePos()\nClearScreen()\nOutStd(\"x\")")
	machine, out := newTestVM("")
	if err := machine.Run(chunk, functions); err != nil {
		t.Fatal(err)
	}
	want := "\x1b[3;6H" + "\x1b[s" + "\x1b[10;2H" + "\x1b[u" + "\x1b[2J\x1b[H" + "x"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if row, col := machine.Cursor(); row != 0 || col != 0 {
		t.Errorf("cursor = %d,%d after ClearScreen", row, col)
	}
}

func TestCursorShadowState(t *testing.T) {
	chunk, functions := compile(t, "DevPos(4, 7)\nSavePos()\nSetPos(0, 0)\nRestorePos()")
	machine, out := newTestVM("")
	machine.SetANSI(false)
	if err := machine.Run(chunk, functions); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("no escapes expected with ANSI off, got %q", out.String())
	}
	if row, col := machine.Cursor(); row != 4 || col != 7 {
		t.Errorf("cursor = %d,%d, want 4,7", row, col)
	}
}

func TestInkey(t *testing.T) {
	chunk, functions := compile(t, "? Inkey()\n? Inkey(10)\n? Inkey()")
	machine, out := newTestVM("AB")
	if err := machine.Run(chunk, functions); err != nil {
		t.Fatal(err)
	}
	if out.String() != "65\n66\n0\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestGetInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		stdin string
		want  string
	}{
		{"pads", `? "[" + GetInput("     ") + "]"`, "ab\n", "[ab   ]"},
		{"truncates", `? "[" + GetInput("   ") + "]"`, "abcdef\n", "[abc]"},
		{"eof_returns_default", `? "[" + GetInput("dflt") + "]"`, "", "[dflt]"},
		{"no_newline", `? "[" + GetInput("xx") + "]"`, "q", "[q ]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, functions := compile(t, tt.input)
			machine, out := newTestVM(tt.stdin)
			machine.SetANSI(false)
			if err := machine.Run(chunk, functions); err != nil {
				t.Fatal(err)
			}
			if !strings.HasSuffix(out.String(), tt.want+"\n") {
				t.Errorf("output = %q, want suffix %q", out.String(), tt.want)
			}
		})
	}
}

func TestGetInputPositionsAndPrompts(t *testing.T) {
	chunk, functions := compile(t, `x := GetInput("ab", 1, 2, TRUE, "Name: ")`)
	machine, out := newTestVM("z\n")
	if err := machine.Run(chunk, functions); err != nil {
		t.Fatal(err)
	}
	want := "\x1b[2;3H" + "Name: " + "ab" + "\x1b[2D"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestNativeModules(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"? math.max(3, 9, 4)", "9\n"},
		{"? math.min(3, 9, 4)", "3\n"},
		{"? math.int(-3.7)", "-3\n"},
		{"? math.abs(-2)", "2\n"},
		{"? math.sqrt(16)", "4\n"},
		{"? math.round(2.567, 2)", "2.57\n"},
		{"? math.round(2.5)", "3\n"},
		{`? str.repeat("-", 4)`, "----\n"},
		{`? str.len("abc")`, "3\n"},
		{`? str.upper("abc")`, "ABC\n"},
		{`? str.lower("ABC")`, "abc\n"},
		{`console.print("a", 1)`, "a1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := runVM(t, tt.input); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConsoleEscapes(t *testing.T) {
	chunk, functions := compile(t, "console.setColor(4)\nconsole.resetColor()\nconsole.setPos(3, 4)\nconsole.hideCursor()\nconsole.showCursor()")
	machine, out := newTestVM("")
	if err := machine.Run(chunk, functions); err != nil {
		t.Fatal(err)
	}
	want := "\x1b[31m\x1b[0m\x1b[3;4H\x1b[?25l\x1b[?25h"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestTuiReadInt(t *testing.T) {
	chunk, functions := compile(t, "? tui.readInt(1, 5)")
	machine, out := newTestVM("abc\n9\n3\n")
	if err := machine.Run(chunk, functions); err != nil {
		t.Fatal(err)
	}
	want := "Please enter a number between 1 and 5\nPlease enter a number between 1 and 5\n3\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestDetectANSI(t *testing.T) {
	if !DetectANSI(ANSIAlways, nil) {
		t.Error("always should enable escapes")
	}
	if DetectANSI(ANSINever, nil) {
		t.Error("never should disable escapes")
	}
	t.Setenv("NO_COLOR", "1")
	if DetectANSI(ANSIAuto, nil) {
		t.Error("NO_COLOR should disable escapes in auto mode")
	}
}

func TestBuiltinArityMessages(t *testing.T) {
	tests := []struct {
		b    *Builtin
		argc int
		want string
	}{
		{builtinTable["Len"], 2, "Len requires 1 argument (string)"},
		{builtinTable["ClearScreen"], 1, "ClearScreen requires 0 arguments"},
		{builtinTable["Inkey"], 2, "Inkey requires 0-1 arguments (optional timeout)"},
		{nativeModules["math"]["max"], 1, "max requires at least 2 arguments"},
	}
	for _, tt := range tests {
		err := tt.b.checkArity(tt.argc)
		if err == nil || err.Error() != tt.want {
			t.Errorf("%s(%d): err = %v, want %q", tt.b.Name, tt.argc, err, tt.want)
		}
	}
}

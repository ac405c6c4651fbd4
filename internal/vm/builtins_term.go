package vm

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// ANSI modes accepted by DetectANSI
const (
	ANSIAuto   = "auto"
	ANSIAlways = "always"
	ANSINever  = "never"
)

// DetectANSI decides whether cursor escapes should be written to f.
// In auto mode NO_COLOR, TERM=dumb or a non-terminal disable them.
func DetectANSI(mode string, f *os.File) bool {
	switch strings.ToLower(mode) {
	case ANSIAlways:
		return true
	case ANSINever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r interface{}) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (vm *VM) escape(seq string) {
	if vm.ansi {
		vm.write(seq)
	}
}

func (vm *VM) moveCursor(row, col int) {
	vm.row, vm.col = row, col
	vm.escape(fmt.Sprintf("\x1b[%d;%dH", row+1, col+1))
}

func builtinSetPos(vm *VM, args []Value) (Value, error) {
	row, err := argCount(args[0])
	if err != nil {
		return NilVal(), err
	}
	col, err := argCount(args[1])
	if err != nil {
		return NilVal(), err
	}
	vm.moveCursor(row, col)
	return NilVal(), nil
}

func builtinGotoXY(vm *VM, args []Value) (Value, error) {
	col, err := argCount(args[0])
	if err != nil {
		return NilVal(), err
	}
	row, err := argCount(args[1])
	if err != nil {
		return NilVal(), err
	}
	vm.moveCursor(row, col)
	return NilVal(), nil
}

func builtinOutStd(vm *VM, args []Value) (Value, error) {
	vm.write(args[0].String())
	return NilVal(), nil
}

func builtinClearScreen(vm *VM, _ []Value) (Value, error) {
	vm.escape("\x1b[2J\x1b[H")
	vm.row, vm.col = 0, 0
	return NilVal(), nil
}

func builtinSavePos(vm *VM, _ []Value) (Value, error) {
	vm.savedRow, vm.savedCol = vm.row, vm.col
	vm.escape("\x1b[s")
	return NilVal(), nil
}

func builtinRestorePos(vm *VM, _ []Value) (Value, error) {
	vm.row, vm.col = vm.savedRow, vm.savedCol
	vm.escape("\x1b[u")
	return NilVal(), nil
}

// builtinInkey reads one byte. Errors and timeouts yield 0.
func builtinInkey(vm *VM, args []Value) (Value, error) {
	timeout := vm.inkeyTimeout
	if len(args) == 1 {
		n, err := argCount(args[0])
		if err != nil {
			return NilVal(), err
		}
		timeout = n
	}

	if f, ok := vm.raw.(*os.File); ok && vm.in.Buffered() == 0 {
		if term.IsTerminal(int(f.Fd())) {
			if state, err := term.MakeRaw(int(f.Fd())); err == nil {
				defer func() { _ = term.Restore(int(f.Fd()), state) }()
			}
		}
		if timeout > 0 {
			if err := f.SetReadDeadline(time.Now().Add(time.Duration(timeout) * time.Millisecond)); err == nil {
				defer func() { _ = f.SetReadDeadline(time.Time{}) }()
			}
		}
	}

	b, err := vm.in.ReadByte()
	if err != nil {
		return NumberVal(0), nil
	}
	return NumberVal(float64(b)), nil
}

// builtinGetInput implements GetInput(default, [row], [col], [say], [prompt]).
// The line read is padded or truncated to the width of default.
func builtinGetInput(vm *VM, args []Value) (Value, error) {
	var def string
	if args[0].Type == ValString {
		def = args[0].Str
	}
	row, col := vm.row, vm.col
	if len(args) >= 2 {
		n, err := argCount(args[1])
		if err != nil {
			return NilVal(), err
		}
		row = n
	}
	if len(args) >= 3 {
		n, err := argCount(args[2])
		if err != nil {
			return NilVal(), err
		}
		col = n
	}
	var prompt string
	if len(args) >= 5 && args[4].Type == ValString {
		prompt = args[4].Str
	}

	if len(args) >= 2 {
		vm.moveCursor(row, col)
	}
	vm.write(prompt)
	vm.write(def)
	if width := runeLen(def); width > 0 {
		vm.escape(fmt.Sprintf("\x1b[%dD", width))
	}

	line, err := vm.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return StringVal(def), nil
	}
	line = strings.TrimRight(line, "\r\n")
	return StringVal(fitWidth(line, runeLen(def))), nil
}

// fitWidth pads s with spaces or truncates it to width characters.
func fitWidth(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}

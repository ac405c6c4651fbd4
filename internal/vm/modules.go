package vm

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nativeModules holds the functions reachable as module.func(args).
var nativeModules = map[string]map[string]*Builtin{
	"console": {
		"print":      {Name: "print", MinArgs: 0, MaxArgs: -1, Fn: consolePrint},
		"setPos":     {Name: "setPos", MinArgs: 2, MaxArgs: 2, Usage: "(row, col)", Fn: consoleSetPos},
		"setColor":   {Name: "setColor", MinArgs: 1, MaxArgs: 1, Usage: "(color code)", Fn: consoleSetColor},
		"resetColor": {Name: "resetColor", Fn: escapeFn("\x1b[0m")},
		"hideCursor": {Name: "hideCursor", Fn: escapeFn("\x1b[?25l")},
		"showCursor": {Name: "showCursor", Fn: escapeFn("\x1b[?25h")},
	},
	"tui": {
		"box":     {Name: "box", MinArgs: 4, MaxArgs: 5, Usage: "(row, col, height, width, [title])", Fn: tuiBox},
		"readInt": {Name: "readInt", MinArgs: 2, MaxArgs: 2, Usage: "(min, max)", Fn: tuiReadInt},
	},
	"math": {
		"max":   {Name: "max", MinArgs: 2, MaxArgs: -1, Fn: mathFold(math.Max)},
		"min":   {Name: "min", MinArgs: 2, MaxArgs: -1, Fn: mathFold(math.Min)},
		"int":   {Name: "int", MinArgs: 1, MaxArgs: 1, Fn: mathUnary(math.Trunc)},
		"abs":   {Name: "abs", MinArgs: 1, MaxArgs: 1, Fn: mathUnary(math.Abs)},
		"sqrt":  {Name: "sqrt", MinArgs: 1, MaxArgs: 1, Fn: mathUnary(math.Sqrt)},
		"round": {Name: "round", MinArgs: 1, MaxArgs: 2, Usage: "(n, [decimals])", Fn: mathRound},
	},
	"str": {
		"repeat": {Name: "repeat", MinArgs: 2, MaxArgs: 2, Usage: "(string, count)", Fn: strRepeat},
		"len":    {Name: "len", MinArgs: 1, MaxArgs: 1, Fn: builtinLen},
		"upper":  {Name: "upper", MinArgs: 1, MaxArgs: 1, Fn: strCase(func(s string) string { return cases.Upper(language.Und).String(s) })},
		"lower":  {Name: "lower", MinArgs: 1, MaxArgs: 1, Fn: strCase(func(s string) string { return cases.Lower(language.Und).String(s) })},
	},
}

// ModuleNames returns the native module names, sorted.
func ModuleNames() []string {
	names := make([]string, 0, len(nativeModules))
	for name := range nativeModules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModuleFunctions returns the functions of module, sorted.
func ModuleFunctions(module string) []string {
	mod := nativeModules[module]
	names := make([]string, 0, len(mod))
	for name := range mod {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupModuleFunction returns function fn of a native module.
func LookupModuleFunction(module, fn string) (*Builtin, bool) {
	b, ok := nativeModules[module][fn]
	return b, ok
}

// console

func consolePrint(vm *VM, args []Value) (Value, error) {
	for _, arg := range args {
		vm.write(arg.String())
	}
	return NilVal(), nil
}

// consoleSetPos takes 1-based coordinates, unlike SetPos.
func consoleSetPos(vm *VM, args []Value) (Value, error) {
	row, err := argCount(args[0])
	if err != nil {
		return NilVal(), fmt.Errorf("Row must be a number")
	}
	col, err := argCount(args[1])
	if err != nil {
		return NilVal(), fmt.Errorf("Column must be a number")
	}
	vm.escape(fmt.Sprintf("\x1b[%d;%dH", row, col))
	return NilVal(), nil
}

// Clipper colour numbers to ANSI foreground codes
var clipperColors = [16]int{30, 34, 32, 36, 31, 35, 33, 37, 90, 94, 92, 96, 91, 95, 93, 97}

func consoleSetColor(vm *VM, args []Value) (Value, error) {
	n, err := argNumber(args[0])
	if err != nil {
		return NilVal(), fmt.Errorf("Color must be a number")
	}
	code := 37
	if c := int(n); c >= 0 && c < len(clipperColors) {
		code = clipperColors[c]
	}
	vm.escape(fmt.Sprintf("\x1b[%dm", code))
	return NilVal(), nil
}

func escapeFn(seq string) BuiltinFunc {
	return func(vm *VM, _ []Value) (Value, error) {
		vm.escape(seq)
		return NilVal(), nil
	}
}

// tui

func tuiBox(vm *VM, args []Value) (Value, error) {
	dims := make([]int, 4)
	for i := range dims {
		n, err := argCount(args[i])
		if err != nil {
			return NilVal(), err
		}
		dims[i] = n
	}
	row, col, height, width := dims[0], dims[1], dims[2], dims[3]
	if height < 2 || width < 2 {
		return NilVal(), fmt.Errorf("box must be at least 2x2")
	}
	at := func(r, c int) string { return fmt.Sprintf("\x1b[%d;%dH", r, c) }
	inner := strings.Repeat("─", width-2)

	var sb strings.Builder
	sb.WriteString(at(row, col) + "┌" + inner + "┐")
	if len(args) == 5 && args[4].Type == ValString && args[4].Str != "" {
		title := " " + args[4].Str + " "
		pos := col + (width-runeLen(title))/2
		sb.WriteString(at(row, pos) + title)
	}
	for i := 1; i < height-1; i++ {
		sb.WriteString(at(row+i, col) + "│")
		sb.WriteString(at(row+i, col+width-1) + "│")
	}
	sb.WriteString(at(row+height-1, col) + "└" + inner + "┘")
	vm.escape(sb.String())
	return NilVal(), nil
}

func tuiReadInt(vm *VM, args []Value) (Value, error) {
	lo, err := argNumber(args[0])
	if err != nil {
		return NilVal(), fmt.Errorf("Min must be a number")
	}
	hi, err := argNumber(args[1])
	if err != nil {
		return NilVal(), fmt.Errorf("Max must be a number")
	}
	for {
		line, err := vm.in.ReadString('\n')
		if n, convErr := strconv.Atoi(strings.TrimSpace(line)); convErr == nil && float64(n) >= lo && float64(n) <= hi {
			return NumberVal(float64(n)), nil
		}
		if err != nil {
			return NilVal(), fmt.Errorf("Failed to read input: %w", err)
		}
		vm.write(fmt.Sprintf("Please enter a number between %s and %s\n", FormatNumber(lo), FormatNumber(hi)))
	}
}

// math

func mathFold(pick func(a, b float64) float64) BuiltinFunc {
	return func(_ *VM, args []Value) (Value, error) {
		acc, err := argNumber(args[0])
		if err != nil {
			return NilVal(), fmt.Errorf("Arguments must be numbers")
		}
		for _, arg := range args[1:] {
			n, err := argNumber(arg)
			if err != nil {
				return NilVal(), fmt.Errorf("Arguments must be numbers")
			}
			acc = pick(acc, n)
		}
		return NumberVal(acc), nil
	}
}

func mathUnary(fn func(float64) float64) BuiltinFunc {
	return func(_ *VM, args []Value) (Value, error) {
		n, err := argNumber(args[0])
		if err != nil {
			return NilVal(), fmt.Errorf("Argument must be a number")
		}
		return NumberVal(fn(n)), nil
	}
}

func mathRound(_ *VM, args []Value) (Value, error) {
	n, err := argNumber(args[0])
	if err != nil {
		return NilVal(), fmt.Errorf("Argument must be a number")
	}
	decimals := 0
	if len(args) == 2 {
		if decimals, err = argCount(args[1]); err != nil {
			return NilVal(), err
		}
	}
	scale := math.Pow(10, float64(decimals))
	return NumberVal(math.Round(n*scale) / scale), nil
}

// str

func strRepeat(_ *VM, args []Value) (Value, error) {
	count, err := argCount(args[1])
	if err != nil {
		return NilVal(), fmt.Errorf("Count must be a number")
	}
	return StringVal(strings.Repeat(args[0].String(), count)), nil
}

func strCase(fn func(string) string) BuiltinFunc {
	return func(_ *VM, args []Value) (Value, error) {
		if args[0].Type != ValString {
			return NilVal(), fmt.Errorf("Argument must be a string")
		}
		return StringVal(fn(args[0].Str)), nil
	}
}

package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BuiltinFunc implements a builtin. Arguments arrive in call order.
type BuiltinFunc func(vm *VM, args []Value) (Value, error)

// Builtin is a native function with an arity contract.
type Builtin struct {
	Name    string
	MinArgs int
	MaxArgs int    // -1 for variadic
	Usage   string // shown in arity errors, e.g. "(row, col)"
	Fn      BuiltinFunc
}

func (b *Builtin) checkArity(argc int) error {
	if argc >= b.MinArgs && (b.MaxArgs < 0 || argc <= b.MaxArgs) {
		return nil
	}
	var count string
	switch {
	case b.MaxArgs == b.MinArgs && b.MinArgs == 1:
		count = "1 argument"
	case b.MaxArgs == b.MinArgs:
		count = fmt.Sprintf("%d arguments", b.MinArgs)
	case b.MaxArgs < 0:
		count = fmt.Sprintf("at least %d arguments", b.MinArgs)
	default:
		count = fmt.Sprintf("%d-%d arguments", b.MinArgs, b.MaxArgs)
	}
	if b.Usage != "" {
		return fmt.Errorf("%s requires %s %s", b.Name, count, b.Usage)
	}
	return fmt.Errorf("%s requires %s", b.Name, count)
}

var builtinTable = map[string]*Builtin{}

func register(b *Builtin) {
	builtinTable[b.Name] = b
}

// BuiltinNames lists the registered builtins.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinTable))
	for name := range builtinTable {
		names = append(names, name)
	}
	return names
}

// LookupBuiltin returns the builtin registered under name.
func LookupBuiltin(name string) (*Builtin, bool) {
	b, ok := builtinTable[name]
	return b, ok
}

func init() {
	register(&Builtin{Name: "SetPos", MinArgs: 2, MaxArgs: 2, Usage: "(row, col)", Fn: builtinSetPos})
	register(&Builtin{Name: "DevPos", MinArgs: 2, MaxArgs: 2, Usage: "(row, col)", Fn: builtinSetPos})
	register(&Builtin{Name: "GotoXY", MinArgs: 2, MaxArgs: 2, Usage: "(col, row)", Fn: builtinGotoXY})
	register(&Builtin{Name: "OutStd", MinArgs: 1, MaxArgs: 1, Usage: "(string)", Fn: builtinOutStd})
	register(&Builtin{Name: "ClearScreen", Fn: builtinClearScreen})
	register(&Builtin{Name: "SavePos", Fn: builtinSavePos})
	register(&Builtin{Name: "RestorePos", Fn: builtinRestorePos})
	register(&Builtin{Name: "Inkey", MinArgs: 0, MaxArgs: 1, Usage: "(optional timeout)", Fn: builtinInkey})
	register(&Builtin{Name: "GetInput", MinArgs: 1, MaxArgs: 5, Fn: builtinGetInput})

	register(&Builtin{Name: "Replicate", MinArgs: 2, MaxArgs: 2, Usage: "(string, count)", Fn: builtinReplicate})
	register(&Builtin{Name: "Space", MinArgs: 1, MaxArgs: 1, Usage: "(count)", Fn: builtinSpace})
	register(&Builtin{Name: "Len", MinArgs: 1, MaxArgs: 1, Usage: "(string)", Fn: builtinLen})
	register(&Builtin{Name: "SubStr", MinArgs: 3, MaxArgs: 3, Usage: "(string, start, length)", Fn: builtinSubStr})
	register(&Builtin{Name: "Trim", MinArgs: 1, MaxArgs: 1, Usage: "(string)", Fn: trimmer("Trim", strings.TrimSpace)})
	register(&Builtin{Name: "AllTrim", MinArgs: 1, MaxArgs: 1, Usage: "(string)", Fn: trimmer("AllTrim", strings.TrimSpace)})
	register(&Builtin{Name: "LTrim", MinArgs: 1, MaxArgs: 1, Usage: "(string)", Fn: trimmer("LTrim", func(s string) string {
		return strings.TrimLeftFunc(s, unicode.IsSpace)
	})})
	register(&Builtin{Name: "RTrim", MinArgs: 1, MaxArgs: 1, Usage: "(string)", Fn: trimmer("RTrim", func(s string) string {
		return strings.TrimRightFunc(s, unicode.IsSpace)
	})})
	register(&Builtin{Name: "Chr", MinArgs: 1, MaxArgs: 1, Usage: "(ASCII code)", Fn: builtinChr})
	register(&Builtin{Name: "Asc", MinArgs: 1, MaxArgs: 1, Usage: "(string)", Fn: builtinAsc})
	register(&Builtin{Name: "Val", MinArgs: 1, MaxArgs: 1, Fn: builtinVal})
	register(&Builtin{Name: "Upper", MinArgs: 1, MaxArgs: 1, Usage: "(string)", Fn: builtinUpper})
	register(&Builtin{Name: "Lower", MinArgs: 1, MaxArgs: 1, Usage: "(string)", Fn: builtinLower})
}

// Argument helpers

func argNumber(v Value) (float64, error) {
	if v.Type != ValNumber {
		return 0, fmt.Errorf("Expected number")
	}
	return v.Num, nil
}

// maxStringLen bounds strings built by Replicate and Space.
const maxStringLen = 1 << 24

// argCount reads a count or position. Negative values count as 0.
func argCount(v Value) (int, error) {
	n, err := argNumber(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || n > math.MaxInt32 {
		return 0, fmt.Errorf("Count out of range: %s", FormatNumber(n))
	}
	if n < 0 {
		return 0, nil
	}
	return int(n), nil
}

func repeatString(s string, count int) (Value, error) {
	if len(s) > 0 && count > maxStringLen/len(s) {
		return NilVal(), fmt.Errorf("String too long")
	}
	return StringVal(strings.Repeat(s, count)), nil
}

// String builtins

func builtinReplicate(_ *VM, args []Value) (Value, error) {
	count, err := argCount(args[1])
	if err != nil {
		return NilVal(), err
	}
	var text string
	switch args[0].Type {
	case ValString, ValNumber:
		text = args[0].String()
	default:
		return NilVal(), fmt.Errorf("Replicate requires a string or number")
	}
	return repeatString(text, count)
}

func builtinSpace(_ *VM, args []Value) (Value, error) {
	count, err := argCount(args[0])
	if err != nil {
		return NilVal(), err
	}
	return repeatString(" ", count)
}

func builtinLen(_ *VM, args []Value) (Value, error) {
	switch args[0].Type {
	case ValString:
		return NumberVal(float64(runeLen(args[0].Str))), nil
	case ValArray:
		return NumberVal(float64(len(args[0].Items))), nil
	}
	return NilVal(), fmt.Errorf("Len requires a string or array")
}

// builtinSubStr is 1-based; a start of 0 behaves like 1.
func builtinSubStr(_ *VM, args []Value) (Value, error) {
	if args[0].Type != ValString {
		return NilVal(), fmt.Errorf("SubStr requires a string")
	}
	start, err := argCount(args[1])
	if err != nil {
		return NilVal(), err
	}
	length, err := argCount(args[2])
	if err != nil {
		return NilVal(), err
	}
	if start > 0 {
		start--
	}
	runes := []rune(args[0].Str)
	if start >= len(runes) {
		return StringVal(""), nil
	}
	end := len(runes)
	if length < end-start {
		end = start + length
	}
	return StringVal(string(runes[start:end])), nil
}

func trimmer(name string, trim func(string) string) BuiltinFunc {
	return func(_ *VM, args []Value) (Value, error) {
		if args[0].Type != ValString {
			return NilVal(), fmt.Errorf("%s requires a string", name)
		}
		return StringVal(trim(args[0].Str)), nil
	}
}

func builtinChr(_ *VM, args []Value) (Value, error) {
	n, err := argNumber(args[0])
	if err != nil {
		return NilVal(), err
	}
	// Codes saturate to 0..255.
	switch {
	case math.IsNaN(n) || n < 0:
		n = 0
	case n > 255:
		n = 255
	}
	return StringVal(string(rune(byte(n)))), nil
}

func builtinAsc(_ *VM, args []Value) (Value, error) {
	if args[0].Type != ValString {
		return NilVal(), fmt.Errorf("Asc requires a string")
	}
	for _, r := range args[0].Str {
		return NumberVal(float64(r)), nil
	}
	return NumberVal(0), nil
}

// builtinVal parses the longest leading numeric prefix; anything else is 0.
func builtinVal(_ *VM, args []Value) (Value, error) {
	switch args[0].Type {
	case ValNumber:
		return args[0], nil
	case ValString:
		return NumberVal(parseLeadingNumber(args[0].Str)), nil
	}
	return NumberVal(0), nil
}

func parseLeadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return n
}

func builtinUpper(_ *VM, args []Value) (Value, error) {
	if args[0].Type != ValString {
		return NilVal(), fmt.Errorf("Upper requires a string")
	}
	return StringVal(cases.Upper(language.Und).String(args[0].Str)), nil
}

func builtinLower(_ *VM, args []Value) (Value, error) {
	if args[0].Type != ValString {
		return NilVal(), fmt.Errorf("Lower requires a string")
	}
	return StringVal(cases.Lower(language.Und).String(args[0].Str)), nil
}

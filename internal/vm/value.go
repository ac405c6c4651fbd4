package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType identifies the variant stored in a Value
type ValueType uint8

const (
	ValNil ValueType = iota
	ValNumber
	ValString
	ValBool
	ValArray
	ValFunction
	ValModuleFunction
)

var valueTypeNames = [...]string{
	ValNil:            "NIL",
	ValNumber:         "Number",
	ValString:         "String",
	ValBool:           "Boolean",
	ValArray:          "Array",
	ValFunction:       "Function",
	ValModuleFunction: "ModuleFunction",
}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "Unknown"
}

// Value is a tagged union. Values are copied on every move between the
// stack, locals and globals; Items is never mutated in place.
type Value struct {
	Type  ValueType `cbor:"1,keyasint"`
	Num   float64   `cbor:"2,keyasint,omitempty"`
	Str   string    `cbor:"3,keyasint,omitempty"`
	Bool  bool      `cbor:"4,keyasint,omitempty"`
	Items []Value   `cbor:"5,keyasint,omitempty"`

	// Function and ModuleFunction payload. Str holds the function name
	// (or module name), Func the module member.
	Arity int    `cbor:"6,keyasint,omitempty"`
	Addr  int    `cbor:"7,keyasint,omitempty"`
	Func  string `cbor:"8,keyasint,omitempty"`
}

// Constructors

func NilVal() Value {
	return Value{Type: ValNil}
}

func NumberVal(n float64) Value {
	return Value{Type: ValNumber, Num: n}
}

func StringVal(s string) Value {
	return Value{Type: ValString, Str: s}
}

func BoolVal(b bool) Value {
	return Value{Type: ValBool, Bool: b}
}

// ArrayVal wraps items without copying; callers hand over ownership.
func ArrayVal(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Type: ValArray, Items: items}
}

func FunctionVal(name string, arity, addr int) Value {
	return Value{Type: ValFunction, Str: name, Arity: arity, Addr: addr}
}

func ModuleFunctionVal(module, function string) Value {
	return Value{Type: ValModuleFunction, Str: module, Func: function}
}

// TypeName returns the user-facing name of the variant
func (v Value) TypeName() string {
	return v.Type.String()
}

// IsTruthy implements the language's truthiness rules.
func (v Value) IsTruthy() bool {
	switch v.Type {
	case ValNil:
		return false
	case ValBool:
		return v.Bool
	case ValNumber:
		return v.Num != 0
	case ValString:
		return v.Str != ""
	case ValArray:
		return len(v.Items) > 0
	default:
		return true
	}
}

// Equals is structural equality. Different variants are never equal.
func (v Value) Equals(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValNil:
		return true
	case ValNumber:
		return v.Num == other.Num
	case ValString:
		return v.Str == other.Str
	case ValBool:
		return v.Bool == other.Bool
	case ValArray:
		if len(v.Items) != len(other.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equals(other.Items[i]) {
				return false
			}
		}
		return true
	case ValFunction:
		return v.Str == other.Str && v.Arity == other.Arity && v.Addr == other.Addr
	case ValModuleFunction:
		return v.Str == other.Str && v.Func == other.Func
	}
	return false
}

// Copy returns a deep copy of v.
func (v Value) Copy() Value {
	if v.Type != ValArray {
		return v
	}
	items := make([]Value, len(v.Items))
	for i, item := range v.Items {
		items[i] = item.Copy()
	}
	v.Items = items
	return v
}

func (v Value) String() string {
	switch v.Type {
	case ValNil:
		return "NIL"
	case ValNumber:
		return FormatNumber(v.Num)
	case ValString:
		return v.Str
	case ValBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case ValArray:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, item := range v.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(item.String())
		}
		sb.WriteByte('}')
		return sb.String()
	case ValFunction:
		return fmt.Sprintf("<function %s(%d)>", v.Str, v.Arity)
	case ValModuleFunction:
		return fmt.Sprintf("<module function %s.%s>", v.Str, v.Func)
	}
	return "<unknown>"
}

// Inspect renders v for disassembly: strings are quoted.
func (v Value) Inspect() string {
	if v.Type == ValString {
		return strconv.Quote(v.Str)
	}
	return v.String()
}

// FormatNumber prints integral values without a decimal point.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case n == math.Trunc(n) && math.Abs(n) < 1e18:
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

package vm

import (
	"fmt"
	"math"
	"unicode/utf8"
)

func arithmetic(op Opcode, a, b Value) (Value, error) {
	if op == OP_ADD {
		return addValues(a, b)
	}
	if a.Type != ValNumber || b.Type != ValNumber {
		return NilVal(), fmt.Errorf("Expected number")
	}
	x, y := a.Num, b.Num
	switch op {
	case OP_SUB:
		return NumberVal(x - y), nil
	case OP_MUL:
		return NumberVal(x * y), nil
	case OP_DIV:
		if y == 0 {
			return NilVal(), fmt.Errorf("Division by zero")
		}
		return NumberVal(x / y), nil
	case OP_MOD:
		if y == 0 {
			return NilVal(), fmt.Errorf("Division by zero")
		}
		return NumberVal(math.Mod(x, y)), nil
	case OP_POW:
		return NumberVal(math.Pow(x, y)), nil
	}
	return NilVal(), fmt.Errorf("unknown arithmetic opcode %s", op)
}

// addValues adds numbers and concatenates strings; a number mixed with a
// string is rendered and concatenated.
func addValues(a, b Value) (Value, error) {
	switch {
	case a.Type == ValNumber && b.Type == ValNumber:
		return NumberVal(a.Num + b.Num), nil
	case a.Type == ValString && b.Type == ValString,
		a.Type == ValString && b.Type == ValNumber,
		a.Type == ValNumber && b.Type == ValString:
		return StringVal(a.String() + b.String()), nil
	}
	return NilVal(), fmt.Errorf("Cannot add these types")
}

func compare(op Opcode, a, b Value) (bool, error) {
	switch op {
	case OP_EQ:
		return a.Equals(b), nil
	case OP_NE:
		return !a.Equals(b), nil
	}
	if a.Type != ValNumber || b.Type != ValNumber {
		return false, fmt.Errorf("Expected number")
	}
	switch op {
	case OP_LT:
		return a.Num < b.Num, nil
	case OP_LE:
		return a.Num <= b.Num, nil
	case OP_GT:
		return a.Num > b.Num, nil
	case OP_GE:
		return a.Num >= b.Num, nil
	}
	return false, fmt.Errorf("unknown comparison opcode %s", op)
}

func indexOf(idx Value) (int, error) {
	if idx.Type != ValNumber {
		return 0, fmt.Errorf("Expected number")
	}
	return int(idx.Num), nil
}

// getIndex reads element i of an array, or character i of a string.
func getIndex(coll, idx Value) (Value, error) {
	i, err := indexOf(idx)
	if err != nil {
		return NilVal(), err
	}
	switch coll.Type {
	case ValArray:
		if i < 0 || i >= len(coll.Items) {
			return NilVal(), fmt.Errorf("Index %d out of bounds", i)
		}
		return coll.Items[i].Copy(), nil
	case ValString:
		if i >= 0 {
			n := 0
			for _, r := range coll.Str {
				if n == i {
					return StringVal(string(r)), nil
				}
				n++
			}
		}
		return NilVal(), fmt.Errorf("Index %d out of bounds", i)
	}
	return NilVal(), fmt.Errorf("Cannot index non-array value")
}

// setIndex returns a copy of arr with element i replaced.
func setIndex(arr, idx, val Value) (Value, error) {
	i, err := indexOf(idx)
	if err != nil {
		return NilVal(), err
	}
	if arr.Type != ValArray {
		return NilVal(), fmt.Errorf("Cannot index non-array value")
	}
	if i < 0 || i >= len(arr.Items) {
		return NilVal(), fmt.Errorf("Index %d out of bounds", i)
	}
	items := make([]Value, len(arr.Items))
	copy(items, arr.Items)
	items[i] = val
	return ArrayVal(items), nil
}

// runeLen counts characters rather than bytes.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func (vm *VM) write(s string) {
	if vm.out == nil || s == "" {
		return
	}
	_, _ = fmt.Fprint(vm.out, s)
}

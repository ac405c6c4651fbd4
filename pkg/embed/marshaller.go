package marina

import (
	"fmt"
	"reflect"

	"github.com/dcfrancisco/marina/internal/vm"
)

// Marshaller handles conversion between Go and marina values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

var valueType = reflect.TypeOf(vm.Value{})

// ToValue converts a Go value to a marina value. Numbers become NUMBER,
// slices and arrays become ARRAY.
func (m *Marshaller) ToValue(val interface{}) (vm.Value, error) {
	if val == nil {
		return vm.NilVal(), nil
	}
	if v, ok := val.(vm.Value); ok {
		return v, nil
	}

	v := reflect.ValueOf(val)
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return vm.NilVal(), nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return vm.NumberVal(float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return vm.NumberVal(float64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return vm.NumberVal(v.Float()), nil
	case reflect.Bool:
		return vm.BoolVal(v.Bool()), nil
	case reflect.String:
		return vm.StringVal(v.String()), nil
	case reflect.Slice, reflect.Array:
		return m.sliceToArray(v)
	default:
		return vm.NilVal(), fmt.Errorf("unsupported Go type %s", v.Type())
	}
}

func (m *Marshaller) sliceToArray(v reflect.Value) (vm.Value, error) {
	items := make([]vm.Value, v.Len())
	for i := 0; i < v.Len(); i++ {
		item, err := m.ToValue(v.Index(i).Interface())
		if err != nil {
			return vm.NilVal(), fmt.Errorf("element %d: %w", i, err)
		}
		items[i] = item
	}
	return vm.ArrayVal(items), nil
}

// FromValue converts a marina value to a Go value.
// targetType is optional; if provided, tries to convert to that type.
func (m *Marshaller) FromValue(val vm.Value, targetType reflect.Type) (interface{}, error) {
	if targetType == valueType {
		return val, nil
	}

	switch val.Type {
	case vm.ValNil:
		return nil, nil
	case vm.ValNumber:
		if targetType != nil {
			switch targetType.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
				reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
				reflect.Float32:
				return reflect.ValueOf(val.Num).Convert(targetType).Interface(), nil
			}
		}
		return val.Num, nil
	case vm.ValString:
		return val.Str, nil
	case vm.ValBool:
		return val.Bool, nil
	case vm.ValArray:
		return m.arrayToSlice(val, targetType)
	case vm.ValFunction:
		return val.Str, nil
	case vm.ValModuleFunction:
		return val.Str + "." + val.Func, nil
	default:
		return nil, fmt.Errorf("unsupported type for conversion: %s", val.TypeName())
	}
}

func (m *Marshaller) arrayToSlice(val vm.Value, targetType reflect.Type) (interface{}, error) {
	// If targetType is nil, default to []interface{}
	elemType := reflect.TypeOf((*interface{})(nil)).Elem()
	if targetType != nil && targetType.Kind() == reflect.Slice {
		elemType = targetType.Elem()
	}

	slice := reflect.MakeSlice(reflect.SliceOf(elemType), 0, len(val.Items))
	for _, item := range val.Items {
		goVal, err := m.FromValue(item, elemType)
		if err != nil {
			return nil, err
		}
		if goVal == nil {
			slice = reflect.Append(slice, reflect.Zero(elemType))
			continue
		}
		rv := reflect.ValueOf(goVal)
		switch {
		case rv.Type().AssignableTo(elemType):
			slice = reflect.Append(slice, rv)
		case rv.Type().ConvertibleTo(elemType):
			slice = reflect.Append(slice, rv.Convert(elemType))
		default:
			return nil, fmt.Errorf("cannot convert %s to %s", rv.Type(), elemType)
		}
	}
	return slice.Interface(), nil
}

package marina_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dcfrancisco/marina/internal/vm"
	marina "github.com/dcfrancisco/marina/pkg/embed"
)

func TestEmbedAPI(t *testing.T) {
	var out bytes.Buffer
	m := marina.New()
	m.SetOutput(&out)

	if err := m.Bind("Double", func(x int) int { return x * 2 }); err != nil {
		t.Fatal(err)
	}
	if err := m.Bind("Join", func(sep string, parts ...string) string {
		return strings.Join(parts, sep)
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.Set("limit", 10); err != nil {
		t.Fatal(err)
	}

	code := `
PUBLIC doubled := Double(21)
PUBLIC joined := Join("-", "a", "b", "c")
PUBLIC over := doubled > limit
? joined
`
	if err := m.Eval(code); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if out.String() != "a-b-c\n" {
		t.Errorf("output = %q", out.String())
	}

	tests := []struct {
		name string
		want interface{}
	}{
		{"doubled", float64(42)},
		{"joined", "a-b-c"},
		{"over", true},
		{"limit", float64(10)},
	}
	for _, tt := range tests {
		got, err := m.Get(tt.name)
		if err != nil {
			t.Errorf("Get(%s): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%s) = %v (%T), want %v", tt.name, got, got, tt.want)
		}
	}

	if _, err := m.Get("missing"); err == nil {
		t.Error("expected error for unknown variable")
	}
}

func TestBindErrors(t *testing.T) {
	m := marina.New()
	m.SetOutput(&bytes.Buffer{})

	if err := m.Bind("NotAFunc", 42); err == nil {
		t.Error("expected error binding a non-function")
	}
	if err := m.Bind("Bad", func() (int, string) { return 0, "" }); err == nil {
		t.Error("expected error for a second result that is not an error")
	}

	if err := m.Bind("Fail", func(msg string) (int, error) { return 0, errors.New(msg) }); err != nil {
		t.Fatal(err)
	}
	err := m.Eval(`? Fail("boom")`)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Eval error = %v, want boom", err)
	}

	err = m.Eval(`? Fail()`)
	if err == nil {
		t.Error("expected arity error")
	}
}

func TestCallFunction(t *testing.T) {
	m := marina.New()
	m.SetOutput(&bytes.Buffer{})

	code := `
PUBLIC base := 100

FUNCTION Add(a, b)
RETURN a + b + base

FUNCTION Names()
RETURN {"x", "y"}
`
	if err := m.Eval(code); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	res, err := m.Call("Add", 2, 3)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res != float64(105) {
		t.Errorf("Add = %v, want 105", res)
	}

	res, err = m.Call("Names")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !reflect.DeepEqual(res, []interface{}{"x", "y"}) {
		t.Errorf("Names = %#v", res)
	}

	if _, err := m.Call("Nope"); err == nil {
		t.Error("expected error for unknown function")
	}
}

func TestCallBeforeEval(t *testing.T) {
	m := marina.New()
	if _, err := m.Call("Main"); err == nil {
		t.Error("expected error before any program ran")
	}
	if _, err := m.Get("x"); err == nil {
		t.Error("expected error before any program ran")
	}
}

func TestEvalCompileError(t *testing.T) {
	m := marina.New()
	err := m.Eval("LOCAL y := )")
	if err == nil || !strings.Contains(err.Error(), "errors during compilation") {
		t.Errorf("Eval error = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greet.prg")
	src := "FUNCTION Main()\n? \"hi from file\"\nRETURN NIL\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	m := marina.New()
	m.SetOutput(&out)
	if err := m.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if out.String() != "hi from file\n" {
		t.Errorf("output = %q", out.String())
	}

	if err := m.LoadFile(filepath.Join(t.TempDir(), "missing.prg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadBundle(t *testing.T) {
	if err := marina.New().LoadBundle([]byte("junk")); err == nil {
		t.Error("expected error for invalid bundle")
	}
}

func TestMarshaller(t *testing.T) {
	m := marina.NewMarshaller()

	tests := []struct {
		name   string
		in     interface{}
		target reflect.Type
		want   interface{}
	}{
		{"int", 7, reflect.TypeOf(0), 7},
		{"int64", int64(7), reflect.TypeOf(int64(0)), int64(7)},
		{"uint8", uint8(3), nil, float64(3)},
		{"float32", float32(1.5), reflect.TypeOf(float32(0)), float32(1.5)},
		{"string", "abc", nil, "abc"},
		{"bool", true, nil, true},
		{"nil", nil, nil, nil},
		{"slice", []int{1, 2}, reflect.TypeOf([]int{}), []int{1, 2}},
		{"generic_slice", []string{"a"}, nil, []interface{}{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := m.ToValue(tt.in)
			if err != nil {
				t.Fatalf("ToValue: %v", err)
			}
			got, err := m.FromValue(v, tt.target)
			if err != nil {
				t.Fatalf("FromValue: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}

	n := 5
	pn := &n
	var nilPtr *int
	pointers := []struct {
		name string
		in   interface{}
		want vm.Value
	}{
		{"pointer", &n, vm.NumberVal(5)},
		{"pointer_to_pointer", &pn, vm.NumberVal(5)},
		{"nil_pointer", nilPtr, vm.NilVal()},
		{"pointer_to_slice", &[]string{"a"}, vm.ArrayVal([]vm.Value{vm.StringVal("a")})},
	}
	for _, tt := range pointers {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ToValue(tt.in)
			if err != nil {
				t.Fatalf("ToValue: %v", err)
			}
			if !got.Equals(tt.want) {
				t.Errorf("got %s, want %s", got.Inspect(), tt.want.Inspect())
			}
		})
	}

	if _, err := m.ToValue(struct{}{}); err == nil {
		t.Error("expected error for struct")
	}
}

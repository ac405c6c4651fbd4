package vm

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestBundleRoundTripRuns(t *testing.T) {
	src := "PUBLIC greet := \"hi\"\nFUNCTION Main()\n? greet, {1, 2}, 1.5, NIL, TRUE\nRETURN NIL"
	chunk, functions := compile(t, src)

	bundle := NewBundle(chunk, functions, "greet.prg")
	data, err := bundle.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if !IsBundle(data) {
		t.Fatal("serialized data should start with the bundle magic")
	}

	loaded, err := DeserializeBundle(data)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.BuildID != bundle.BuildID || loaded.SourceFile != "greet.prg" {
		t.Errorf("metadata = %+v", loaded)
	}
	if _, err := uuid.Parse(loaded.BuildID); err != nil {
		t.Errorf("build id %q is not a UUID", loaded.BuildID)
	}
	if !reflect.DeepEqual(loaded.Functions, functions) {
		t.Errorf("functions = %v, want %v", loaded.Functions, functions)
	}

	machine, out := newTestVM("")
	if err := machine.Run(loaded.Chunk, loaded.Functions); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hi {1, 2} 1.5 NIL TRUE\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestDeserializeBundleRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"short", []byte("MRN"), "too short"},
		{"magic", []byte("XXXX\x01abc"), "invalid magic"},
		{"version", []byte("MRNB\x09abc"), "unsupported bundle version"},
		{"payload", append([]byte("MRNB\x01"), 0xff, 0xff), "cbor decoding failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeserializeBundle(tt.data)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestBundleEncodingIsCanonical(t *testing.T) {
	chunk, functions := compile(t, "FUNCTION A()\nRETURN 1\nFUNCTION B()\nRETURN 2\nFUNCTION C()\nRETURN 3")
	b := &Bundle{Chunk: chunk, Functions: functions, BuildID: uuid.NewString(), CompiledAt: 1}
	first, err := b.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := b.Serialize()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("serializing the same bundle twice produced different bytes")
		}
	}
}

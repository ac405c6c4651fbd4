package vm

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// bundleMagic prefixes every serialized bundle
var bundleMagic = []byte{'M', 'R', 'N', 'B'}

const bundleVersion byte = 0x01

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Bundle is a compiled program ready to run without its source.
type Bundle struct {
	Chunk      *Chunk        `cbor:"1,keyasint"`
	Functions  FunctionTable `cbor:"2,keyasint"`
	SourceFile string        `cbor:"3,keyasint,omitempty"`
	BuildID    string        `cbor:"4,keyasint"`
	CompiledAt int64         `cbor:"5,keyasint"`

	// Globals names the global slots in slot order
	Globals []string `cbor:"6,keyasint,omitempty"`
}

// NewBundle wraps a compiled chunk with a fresh build id.
func NewBundle(chunk *Chunk, functions FunctionTable, sourceFile string) *Bundle {
	return &Bundle{
		Chunk:      chunk,
		Functions:  functions,
		SourceFile: sourceFile,
		BuildID:    uuid.NewString(),
		CompiledAt: time.Now().Unix(),
	}
}

// Serialize converts a Bundle to binary format.
// Format:
// - Magic number (4 bytes): "MRNB"
// - Version (1 byte): 0x01
// - Canonical CBOR-encoded Bundle
func (b *Bundle) Serialize() ([]byte, error) {
	payload, err := cborEncMode.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("bundle cbor encoding failed: %w", err)
	}
	buf := new(bytes.Buffer)
	buf.Write(bundleMagic)
	buf.WriteByte(bundleVersion)
	buf.Write(payload)
	return buf.Bytes(), nil
}

// IsBundle reports whether data starts with the bundle magic.
func IsBundle(data []byte) bool {
	return len(data) >= len(bundleMagic) && bytes.Equal(data[:len(bundleMagic)], bundleMagic)
}

// DeserializeBundle reads a bundle written by Serialize.
func DeserializeBundle(data []byte) (*Bundle, error) {
	if len(data) < len(bundleMagic)+1 {
		return nil, fmt.Errorf("bytecode data too short")
	}
	if !IsBundle(data) {
		return nil, fmt.Errorf("invalid magic number, expected MRNB")
	}
	if version := data[len(bundleMagic)]; version != bundleVersion {
		return nil, fmt.Errorf("unsupported bundle version %d", version)
	}

	var b Bundle
	if err := cbor.Unmarshal(data[len(bundleMagic)+1:], &b); err != nil {
		return nil, fmt.Errorf("bundle cbor decoding failed: %w", err)
	}
	if b.Chunk == nil {
		return nil, fmt.Errorf("bundle has no chunk")
	}
	if _, err := uuid.Parse(b.BuildID); err != nil {
		return nil, fmt.Errorf("bundle has invalid build id: %w", err)
	}
	if b.Functions == nil {
		b.Functions = FunctionTable{}
	}
	return &b, nil
}

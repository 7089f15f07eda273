package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"schemevm/types"
	"schemevm/vm"
)

// buildContainer assembles a minimal valid container (§4.8): marker,
// version, one phrase with an empty constant vector and the given code.
func buildContainer(code []uint16) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "schemevm 1 #() %d\n", len(code))
	for _, w := range code {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], w)
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func newEngine() *vm.VM {
	return vm.New(types.NewModule("test"), nil)
}

func TestLoadRunsAPhrase(t *testing.T) {
	code := []uint16{uint16(vm.OP_IM_ONE), uint16(vm.OP_END_OF_CODE)}
	data := buildContainer(code)
	if err := Load(bytes.NewReader(data), newEngine(), false); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadRejectsBadMarker(t *testing.T) {
	data := []byte("not-schemevm 1 #()x0\n")
	if err := Load(bytes.NewReader(data), newEngine(), false); err == nil {
		t.Fatal("expected an error for a wrong runtime marker")
	}
}

func TestLoadEmbedded(t *testing.T) {
	code := []uint16{uint16(vm.OP_IM_ONE), uint16(vm.OP_END_OF_CODE)}
	if err := LoadEmbedded("#()", code, newEngine()); err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
}

package trace

import (
	"bytes"
	"strings"
	"testing"

	"schemevm/types"
)

func TestNewDisabledIsNoop(t *testing.T) {
	var buf bytes.Buffer
	tr := NewDisabled()
	tr.Dispatch("OP_RETURN", 3)
	tr.Call("f", 2, false)
	tr.Return("f", types.SmallInt(1))
	tr.HandlerPop()
	if buf.Len() != 0 {
		t.Fatalf("disabled tracer wrote %q", buf.String())
	}
}

func TestDispatchWritesAndFilters(t *testing.T) {
	var buf bytes.Buffer
	tr := New([]string{"OP_INVOKE*"}, &buf)

	tr.Dispatch("OP_RETURN", 0)
	if buf.Len() != 0 {
		t.Fatalf("filtered-out event was written: %q", buf.String())
	}

	tr.Dispatch("OP_INVOKE", 4)
	if got := buf.String(); !strings.Contains(got, "OP_INVOKE") {
		t.Fatalf("matching event missing from output: %q", got)
	}
}

func TestNewWithNoFiltersMatchesEverything(t *testing.T) {
	var buf bytes.Buffer
	tr := New(nil, &buf)
	tr.Dispatch("anything", 1)
	if buf.Len() == 0 {
		t.Fatal("expected output with no filters configured")
	}
}

func TestCallLogsTailVsRegular(t *testing.T) {
	var buf bytes.Buffer
	tr := New(nil, &buf)

	tr.Call("loop", 1, true)
	if got := buf.String(); !strings.Contains(got, "tail-call") {
		t.Fatalf("expected tail-call marker, got %q", got)
	}

	buf.Reset()
	tr.Call("loop", 1, false)
	if got := buf.String(); strings.Contains(got, "tail-call") {
		t.Fatalf("non-tail call should not say tail-call, got %q", got)
	}
}

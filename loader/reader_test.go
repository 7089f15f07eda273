package loader

import (
	"strings"
	"testing"

	"schemevm/types"
)

func readOne(t *testing.T, src string) types.Value {
	t.Helper()
	rd := NewReader(strings.NewReader(src))
	v, err := rd.ReadDatum()
	if err != nil {
		t.Fatalf("ReadDatum(%q): %v", src, err)
	}
	return v
}

func TestReadDatumLiterals(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"42", "42"},
		{"-7", "-7"},
		{"#t", "#t"},
		{"#f", "#f"},
		{"#\\a", "#\\a"},
		{"#\\space", "#\\ "},
		{"\"hi\\n\"", "\"hi\n\""},
		{"foo", "foo"},
		{"(1 2 3)", "(1 2 3)"},
		{"(1 . 2)", "(1 . 2)"},
		{"#(1 2 3)", "#(1 2 3)"},
		{"'x", "(quote x)"},
	}
	for _, c := range cases {
		got := readOne(t, c.src).String()
		if got != c.want {
			t.Errorf("ReadDatum(%q).String() = %q, want %q", c.src, got, c.want)
		}
	}
}

func TestReadDatumEOFAtBoundary(t *testing.T) {
	rd := NewReader(strings.NewReader("  "))
	if _, err := rd.ReadDatum(); err == nil {
		t.Fatal("expected an error reading past exhausted whitespace-only input")
	}
}

func TestReadListRejectsUnterminated(t *testing.T) {
	rd := NewReader(strings.NewReader("(1 2"))
	if _, err := rd.ReadDatum(); err == nil {
		t.Fatal("expected an error for an unterminated list")
	}
}

func TestReadDatumSkipsComments(t *testing.T) {
	got := readOne(t, "; a comment\n42")
	if !got.Equal(types.SmallInt(42)) {
		t.Fatalf("got %v, want 42", got)
	}
}

// Package conformance drives spec.md §8's end-to-end scenarios,
// adapted from the teacher's conformance/schema.go: same TestSuite/
// TestCase/Expectation trio. There is no Scheme-source-to-bytecode
// compiler in this repository (see asm.go), so a TestCase's Code field
// is documentation only — the Scheme form the scenario represents — not
// something this package reads and evaluates; the actual bytecode (or
// direct vm.Apply calls) live in runner.go's Scenarios(), matched to a
// TestCase by Name.
package conformance

// TestSuite is one YAML test file: a named group of scenarios sharing a
// description.
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Tests       []TestCase `yaml:"tests"`
}

// TestCase is a single scenario: a Scheme form to evaluate and what
// running it should produce.
type TestCase struct {
	// Name identifies which runner.go Scenario implements this case.
	Name   string      `yaml:"name"`
	Skip   interface{} `yaml:"skip,omitempty"` // bool or string
	Code   string      `yaml:"code"`           // the Scheme form being tested, for documentation only
	Expect Expectation `yaml:"expect"`
}

// Expectation describes the expected outcome of running a TestCase's
// Code. Exactly one of Value or Condition should be set.
type Expectation struct {
	Value     interface{} `yaml:"value,omitempty"`     // printed-form match against the result
	Condition string      `yaml:"condition,omitempty"` // ConditionKind name, e.g. "wrong-number-of-arguments"
}

// IsSkipped reports whether this test should be skipped, and why.
func (tc *TestCase) IsSkipped() (bool, string) {
	if tc.Skip == nil {
		return false, ""
	}
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}

package conformance

import "testing"

// TestScenarios runs every scenario runner.go implements against its
// matching testdata/*.yaml expectation, grounded on the teacher's
// conformance_test.go (LoadAllTests, run, assert) shape.
func TestScenarios(t *testing.T) {
	cases, err := LoadAll("")
	if err != nil {
		t.Fatalf("loading testdata: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("no conformance cases loaded")
	}

	scenarios := map[string]Scenario{}
	for _, s := range Scenarios() {
		scenarios[s.Name] = s
	}

	for _, lc := range cases {
		tc := lc.Case
		t.Run(tc.Name, func(t *testing.T) {
			scenario, ok := scenarios[tc.Name]
			if !ok {
				t.Fatalf("no runner.go Scenario named %q (code: %s)", tc.Name, tc.Code)
			}
			result, err := scenario.Run()
			if tc.Expect.Condition != "" {
				if err == nil {
					t.Fatalf("expected condition %q, got result %v", tc.Expect.Condition, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s: %v", tc.Code, err)
			}
			want, _ := tc.Expect.Value.(string)
			if got := result.String(); got != want {
				t.Fatalf("%s: got %q, want %q", tc.Code, got, want)
			}
		})
	}
}

// TestScenariosCoverAllCases guards against a scenario silently losing
// its testdata counterpart (or vice versa) as both evolve.
func TestScenariosCoverAllCases(t *testing.T) {
	cases, err := LoadAll("")
	if err != nil {
		t.Fatalf("loading testdata: %v", err)
	}
	have := map[string]bool{}
	for _, lc := range cases {
		have[lc.Case.Name] = true
	}
	for _, s := range Scenarios() {
		if !have[s.Name] {
			t.Errorf("scenario %q has no matching testdata case", s.Name)
		}
	}
}

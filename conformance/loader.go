// loader.go walks a directory of YAML suites and loads them, adapted
// from the teacher's conformance/loader.go (TestPath candidate-path
// resolution plus filepath.Walk), trimmed to one fixed testdata/
// directory since this module has no sibling source-repo layout to
// search relative to.
package conformance

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TestDataDir is the directory of YAML suites relative to this package.
const TestDataDir = "testdata"

// LoadedCase is a TestCase paired with the suite and file it came from.
type LoadedCase struct {
	File  string
	Suite string
	Case  TestCase
}

// LoadAll walks dir (TestDataDir when called with "") for *.yaml suites
// and returns every non-skipped test case, warning to stderr and
// continuing past any file that fails to parse rather than aborting
// the whole run over one bad fixture.
func LoadAll(dir string) ([]LoadedCase, error) {
	if dir == "" {
		dir = TestDataDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("conformance: test directory %s: %w", abs, err)
	}

	var cases []LoadedCase
	err = filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}
		suite, err := loadSuite(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "conformance: skipping %s: %v\n", path, err)
			return nil
		}
		for _, tc := range suite.Tests {
			if skip, reason := tc.IsSkipped(); skip {
				fmt.Fprintf(os.Stderr, "conformance: %s/%s skipped: %s\n", suite.Name, tc.Name, reason)
				continue
			}
			cases = append(cases, LoadedCase{File: path, Suite: suite.Name, Case: tc})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func loadSuite(path string) (*TestSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}
	return &suite, nil
}

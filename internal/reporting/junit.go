package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one artifact section.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one evaluated case.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
}

// JUnitFailure is a case the model got wrong.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

// JUnitError is a case that could not be evaluated.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit maps each section with case outcomes to a test suite.
func ConvertToJUnit(a *Artifact) *JUnitTestSuites {
	out := &JUnitTestSuites{Name: fmt.Sprintf("skill-evals %s", a.Kind)}

	for _, s := range a.Sections {
		if len(s.Outcomes) == 0 {
			continue
		}
		suite := JUnitTestSuite{
			Name:       fmt.Sprintf("%s/%s", a.Kind, s.Name),
			Tests:      len(s.Outcomes),
			Timestamp:  a.CreatedAt.Format(time.RFC3339),
			Properties: properties(a),
		}
		for _, o := range s.Outcomes {
			tc := JUnitTestCase{Name: o.ID, Classname: o.Group}
			switch {
			case o.Error != "":
				tc.Error = &JUnitError{Message: o.Error, Type: "EvaluationError"}
				suite.Errors++
			case o.Failure != "":
				tc.Failure = &JUnitFailure{Message: o.Failure, Type: string(a.Kind)}
				suite.Failures++
			}
			suite.TestCases = append(suite.TestCases, tc)
		}
		out.Tests += suite.Tests
		out.Failures += suite.Failures
		out.Errors += suite.Errors
		out.TestSuites = append(out.TestSuites, suite)
	}
	return out
}

func properties(a *Artifact) []JUnitProperty {
	props := []JUnitProperty{
		{Name: "run_id", Value: a.RunID},
		{Name: "model", Value: a.Model},
	}
	if a.JudgeModel != "" {
		props = append(props, JUnitProperty{Name: "judge_model", Value: a.JudgeModel})
	}

	// Sort for deterministic output
	keys := make([]string, 0, len(a.Params))
	for k := range a.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		props = append(props, JUnitProperty{Name: k, Value: a.Params[k]})
	}
	return props
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(a *Artifact, path string) error {
	suites := ConvertToJUnit(a)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating JUnit directory: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0o644)
}

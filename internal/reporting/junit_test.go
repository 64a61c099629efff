package reporting

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArtifact(t *testing.T) *Artifact {
	t.Helper()
	a := NewArtifact(KindEffectiveness, "sonnet")
	a.JudgeModel = "sonnet"
	a.Params["skill"] = "akka-net-aspire"

	rs := newEffectivenessResults([2]int{2, 4}, [2]int{4, 2})
	rs.Record(effectivenessFailure("broken"))
	s, err := EffectivenessSection("effectiveness", rs, nil)
	require.NoError(t, err)
	a.Sections = append(a.Sections, s, Section{Name: "no-cases", Summary: map[string]float64{}})
	return a
}

func TestConvertToJUnit(t *testing.T) {
	suites := ConvertToJUnit(newTestArtifact(t))

	assert.Equal(t, 3, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	require.Len(t, suites.TestSuites, 1)

	suite := suites.TestSuites[0]
	assert.Equal(t, "effectiveness/effectiveness", suite.Name)
	require.Len(t, suite.TestCases, 3)
	assert.Nil(t, suite.TestCases[0].Failure)
	require.NotNil(t, suite.TestCases[1].Failure)
	assert.Contains(t, suite.TestCases[1].Failure.Message, "baseline 4 beat enhanced 2")
	require.NotNil(t, suite.TestCases[2].Error)
	assert.Contains(t, suite.TestCases[2].Error.Message, "JUDGE ERROR")

	var names []string
	for _, p := range suite.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"run_id", "model", "judge_model", "skill"}, names)
}

func TestWriteJUnitXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "junit.xml")
	require.NoError(t, WriteJUnitXML(newTestArtifact(t), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), xml.Header))

	var parsed JUnitTestSuites
	require.NoError(t, xml.Unmarshal(data, &parsed))
	assert.Equal(t, 3, parsed.Tests)
}

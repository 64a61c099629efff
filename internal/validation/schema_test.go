package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateActivationCase(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"minimal", `{"id": "a1", "user_prompt": "How do I test actors?"}`, ""},
		{"full", `{"id": "a1", "user_prompt": "p", "expected_skills": ["akka-net-testing"], "acceptable_skills": [], "should_activate": true}`, ""},
		{"missing prompt", `{"id": "a1"}`, "user_prompt"},
		{"skills not a list", `{"id": "a1", "user_prompt": "p", "expected_skills": "akka"}`, "/expected_skills"},
		{"flag not bool", `{"id": "a1", "user_prompt": "p", "should_activate": "yes"}`, "/should_activate"},
		{"not json", `{"id": `, "JSON parse error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidateActivationCase([]byte(tc.input))
			if tc.wantErr == "" {
				require.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			require.Contains(t, strings.Join(errs, "\n"), tc.wantErr)
		})
	}
}

func TestValidateEffectivenessCase(t *testing.T) {
	require.Empty(t, ValidateEffectivenessCase([]byte(`{"id": "e1", "skill_name": "efcore-patterns", "task": "t", "rubric_file": "efcore.yaml"}`)))

	errs := ValidateEffectivenessCase([]byte(`{"id": "e1", "task": "t"}`))
	require.NotEmpty(t, errs)
	require.Contains(t, strings.Join(errs, "\n"), "skill_name")
}

func TestValidateActivationRecord(t *testing.T) {
	require.Empty(t, ValidateActivationRecord(map[string]any{
		"id":              "c1",
		"user_prompt":     "p",
		"expected_skills": []string{"a", "b"},
	}))
	require.NotEmpty(t, ValidateActivationRecord(map[string]any{"id": "c1"}))
}

func TestValidateRubricBytes(t *testing.T) {
	valid := `skill_name: efcore-patterns
criteria:
  - name: correctness
    weight: 2
    description: Code compiles and runs
`
	require.Empty(t, ValidateRubricBytes([]byte(valid)))

	errs := ValidateRubricBytes([]byte("skill_name: x\ncriteria: []\n"))
	require.NotEmpty(t, errs)
	require.Contains(t, strings.Join(errs, "\n"), "/criteria")

	errs = ValidateRubricBytes([]byte("skill_name: [unclosed"))
	require.Contains(t, strings.Join(errs, "\n"), "YAML parse error")
}

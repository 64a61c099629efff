package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotnet-skills/skill-evals/internal/skill"
	"github.com/dotnet-skills/skill-evals/internal/variants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{"valid kebab-case", "akka-net-testing", false, ""},
		{"valid simple", "skill", false, ""},
		{"empty", "", true, "must not be empty"},
		{"path traversal dots", "../evil", true, "invalid path characters"},
		{"forward slash", "a/b", true, "invalid path characters"},
		{"backslash", "a\\b", true, "invalid path characters"},
		{"dot only", ".", true, "invalid path characters"},
		{"double dot embedded", "foo..bar", true, "invalid path characters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"reference", "Reference"},
		{"examples", "Examples"},
		{"akka-net-testing", "Akka Net Testing"},
		{"snake_case", "Snake Case"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, TitleCase(tc.input))
		})
	}
}

func TestVariants(t *testing.T) {
	dir := t.TempDir()

	created, err := Variants(dir, []string{"akka-net-testing"})
	require.NoError(t, err)
	require.Len(t, created, 4)

	condensed, err := os.ReadFile(filepath.Join(dir, "akka-net-testing", "condensed", "SKILL.md"))
	require.NoError(t, err)
	require.Contains(t, string(condensed), "description: TODO - condensed variant")
	require.Contains(t, string(condensed), "# akka-net-testing (condensed variant)")

	ref, err := os.ReadFile(filepath.Join(dir, "akka-net-testing", "progressive", "reference.md"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(ref), "# Reference\n"))

	// The scaffold parses as a skill so it can be loaded back as a variant.
	s, err := skill.Parse(string(condensed))
	require.NoError(t, err)
	require.Equal(t, "akka-net-testing", s.Name)

	v, err := variants.Load(dir, "akka-net-testing", variants.Progressive)
	require.NoError(t, err)
	require.Equal(t, []string{"examples.md", "reference.md"}, v.ReferenceNames())
}

func TestVariants_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "akka-streams", "condensed", "SKILL.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("authored"), 0o644))

	created, err := Variants(dir, []string{"akka-streams"})
	require.NoError(t, err)
	require.Len(t, created, 3)
	require.NotContains(t, created, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "authored", string(data))

	created, err = Variants(dir, []string{"akka-streams"})
	require.NoError(t, err)
	require.Empty(t, created)
}

func TestVariants_RejectsBadName(t *testing.T) {
	_, err := Variants(t.TempDir(), []string{"../escape"})
	require.Error(t, err)
}

func TestIsInteractive(t *testing.T) {
	require.False(t, IsInteractive(strings.NewReader("")))

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()
	require.False(t, IsInteractive(f))
}

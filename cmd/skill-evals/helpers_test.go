package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newSkillsRepo creates a repository with one SKILL.md per name. Skills
// listed in long get 40 body lines.
func newSkillsRepo(t *testing.T, names []string, long ...string) string {
	t.Helper()
	repo := t.TempDir()
	for _, name := range names {
		body := "# " + name + "\n\nUse this skill for " + name + ".\n"
		for _, l := range long {
			if l == name {
				body += strings.Repeat("- guidance line\n", 40)
			}
		}
		writeFile(t, filepath.Join(repo, "skills", name, "SKILL.md"),
			fmt.Sprintf("---\nname: %s\ndescription: Guidance for %s\n---\n\n%s", name, name, body))
	}
	return repo
}

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SKILL_EVALS_PROVIDER", "")
	t.Setenv("SKILL_LINE_LIMIT", "")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

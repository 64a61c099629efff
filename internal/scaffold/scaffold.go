// Package scaffold creates the placeholder files authors fill in when
// writing condensed and progressive variants of a skill.
package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/skill"
	"github.com/dotnet-skills/skill-evals/internal/variants"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPrefix selects the skills scaffolded when none are named.
const DefaultPrefix = "akka"

// ReferenceFiles are the extra files a progressive variant starts with.
var ReferenceFiles = []string{"reference.md", "examples.md"}

// ValidateName rejects names with path-traversal characters or empty names.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("skill name must not be empty")
	}
	cleaned := filepath.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.Contains(name, "..") ||
		strings.ContainsAny(cleaned, `/\`) {
		return fmt.Errorf("skill name %q contains invalid path characters", name)
	}
	return nil
}

// TitleCase converts a kebab- or snake-case name to Title Case.
func TitleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func variantSkillMD(name string, strategy variants.Strategy) string {
	return fmt.Sprintf("---\nname: %s\ndescription: TODO - %s variant\ninvocable: false\n---\n\n# %s (%s variant)\n\nTODO: Author this variant.\n",
		name, strategy, name, strategy)
}

func referenceMD(file string) string {
	return fmt.Sprintf("# %s\n\nTODO: Move detailed content here from SKILL.md.\n",
		TitleCase(strings.TrimSuffix(file, filepath.Ext(file))))
}

// Variants creates the placeholder tree for every named skill and returns
// the files it wrote. Existing files are left untouched.
func Variants(variantsDir string, names []string) ([]string, error) {
	var created []string
	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return created, err
		}
		for _, strategy := range variants.Authored {
			dir := filepath.Join(variantsDir, name, string(strategy))
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return created, fmt.Errorf("creating %s: %w", dir, err)
			}

			files := [][2]string{{skill.FileName, variantSkillMD(name, strategy)}}
			if strategy == variants.Progressive {
				for _, ref := range ReferenceFiles {
					files = append(files, [2]string{ref, referenceMD(ref)})
				}
			}

			for _, f := range files {
				path := filepath.Join(dir, f[0])
				ok, err := writeIfAbsent(path, f[1])
				if err != nil {
					return created, err
				}
				if ok {
					created = append(created, path)
				}
			}
		}
	}
	return created, nil
}

func writeIfAbsent(path, content string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, f.Close()
}

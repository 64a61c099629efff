package skill

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// FileName is the guidance file expected in every skill directory.
const FileName = "SKILL.md"

var (
	ErrNotFound      = errors.New("SKILL.md not found")
	ErrMissingFields = errors.New("missing required frontmatter fields")
)

// Load reads dir/SKILL.md.
func Load(dir string, opts ...Option) (*Skill, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	s, err := Parse(string(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" || s.Description == "" {
		return nil, fmt.Errorf("%w in %s (name=%q, description=%q)", ErrMissingFields, path, s.Name, s.Description)
	}

	s.Dir = filepath.Base(dir)
	s.Path = path
	return s, nil
}

// LoadAll loads every subdirectory of skillsDir that holds a SKILL.md and
// returns the skills sorted by name.
func LoadAll(skillsDir string, opts ...Option) ([]*Skill, error) {
	entries, err := os.ReadDir(skillsDir)
	if err != nil {
		return nil, fmt.Errorf("reading skills directory: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(skillsDir, e.Name())
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			dirs = append(dirs, dir)
		}
	}

	skills := make([]*Skill, len(dirs))
	var g errgroup.Group
	g.SetLimit(8)
	for i, dir := range dirs {
		g.Go(func() error {
			s, err := Load(dir, opts...)
			if err != nil {
				return err
			}
			skills[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(skills, func(a, b *Skill) int { return strings.Compare(a.Name, b.Name) })
	return skills, nil
}

type pluginManifest struct {
	Skills []string `json:"skills"`
}

// LoadFromPlugin loads the skills registered in a .claude-plugin/plugin.json
// manifest, in manifest order. Entries are relative to the repository root,
// which is the manifest's grandparent directory.
func LoadFromPlugin(pluginJSON string, opts ...Option) ([]*Skill, error) {
	data, err := os.ReadFile(pluginJSON)
	if err != nil {
		return nil, fmt.Errorf("reading plugin manifest: %w", err)
	}
	var m pluginManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing plugin manifest %s: %w", pluginJSON, err)
	}

	root := filepath.Dir(filepath.Dir(pluginJSON))
	skills := make([]*Skill, 0, len(m.Skills))
	for _, p := range m.Skills {
		s, err := Load(filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(p, "./"))), opts...)
		if err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return skills, nil
}

// LoadRepo loads skills from a skills repository checkout, preferring the
// plugin manifest when there is one.
func LoadRepo(repo string, opts ...Option) ([]*Skill, error) {
	manifest := filepath.Join(repo, ".claude-plugin", "plugin.json")
	if _, err := os.Stat(manifest); err == nil {
		return LoadFromPlugin(manifest, opts...)
	}
	return LoadAll(filepath.Join(repo, "skills"), opts...)
}

// Names returns skill names in catalog order.
func Names(skills []*Skill) []string {
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return names
}

// ByName indexes skills by frontmatter name.
func ByName(skills []*Skill) map[string]*Skill {
	m := make(map[string]*Skill, len(skills))
	for _, s := range skills {
		m[s.Name] = s
	}
	return m
}

// NameToDirectory maps frontmatter names to directory names; the two often
// differ (akka-net-best-practices lives in akka-best-practices/).
func NameToDirectory(skills []*Skill) map[string]string {
	m := make(map[string]string, len(skills))
	for _, s := range skills {
		m[s.Name] = s.Dir
	}
	return m
}

// FilterByPrefix keeps skills whose name starts with prefix.
func FilterByPrefix(skills []*Skill, prefix string) []*Skill {
	var out []*Skill
	for _, s := range skills {
		if strings.HasPrefix(s.Name, prefix) {
			out = append(out, s)
		}
	}
	return out
}

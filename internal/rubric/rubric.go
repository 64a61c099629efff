// Package rubric loads the weighted criteria a judge scores responses
// against.
package rubric

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dotnet-skills/skill-evals/internal/validation"
	"gopkg.in/yaml.v3"
)

type Criterion struct {
	Name        string  `yaml:"name" json:"name"`
	Weight      float64 `yaml:"weight" json:"weight"`
	Description string  `yaml:"description" json:"description"`
}

type Rubric struct {
	SkillName string      `yaml:"skill_name" json:"skill_name"`
	Criteria  []Criterion `yaml:"criteria" json:"criteria"`
}

// Parse validates and decodes rubric YAML.
func Parse(data []byte) (*Rubric, error) {
	if problems := validation.ValidateRubricBytes(data); len(problems) > 0 {
		return nil, fmt.Errorf("invalid rubric: %s", strings.Join(problems, "; "))
	}
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding rubric: %w", err)
	}
	return &r, nil
}

// Load reads a rubric file. Relative paths resolve against dir.
func Load(dir, file string) (*Rubric, error) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, file)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rubric: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Format renders the rubric the way the judge sees it.
func (r *Rubric) Format() string {
	lines := []string{"Skill: " + r.SkillName, "Criteria:"}
	for _, c := range r.Criteria {
		lines = append(lines, fmt.Sprintf("  - %s (weight: %s): %s", c.Name, strconv.FormatFloat(c.Weight, 'f', -1, 64), c.Description))
	}
	return strings.Join(lines, "\n")
}

// Cache loads each rubric file once.
type Cache struct {
	dir string

	mu    sync.Mutex
	cache map[string]string
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir, cache: map[string]string{}}
}

// Formatted returns the formatted rubric for file. An empty file name
// yields an empty rubric.
func (c *Cache) Formatted(file string) (string, error) {
	if file == "" {
		return "", nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.cache[file]; ok {
		return s, nil
	}
	r, err := Load(c.dir, file)
	if err != nil {
		return "", err
	}
	s := r.Format()
	c.cache[file] = s
	return s, nil
}

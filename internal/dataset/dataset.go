// Package dataset loads evaluation cases from JSONL (one JSON object per
// line) or, for activation cases, CSV. Every record is checked against its
// schema; bad records are reported by line and the rest still load.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dotnet-skills/skill-evals/internal/validation"
)

// ActivationCase is one prompt with the skills it should activate.
type ActivationCase struct {
	ID               string   `json:"id"`
	UserPrompt       string   `json:"user_prompt"`
	ExpectedSkills   []string `json:"expected_skills"`
	AcceptableSkills []string `json:"acceptable_skills"`
	// ShouldActivate defaults to whether any skill is expected.
	ShouldActivate bool `json:"should_activate"`
}

// EffectivenessCase is one task to run with and without a skill.
type EffectivenessCase struct {
	ID         string `json:"id"`
	SkillName  string `json:"skill_name"`
	Task       string `json:"task"`
	RubricFile string `json:"rubric_file,omitempty"`
}

// LineError reports an unusable record. Line is 1-based; for CSV it counts
// the header.
type LineError struct {
	Path     string
	Line     int
	Problems []string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, strings.Join(e.Problems, "; "))
}

// LoadActivation reads activation cases from a .jsonl or .csv file. When
// some records are invalid it returns the valid cases together with a
// joined error of LineErrors.
func LoadActivation(path string) ([]ActivationCase, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return loadActivationCSV(path)
	}

	var cases []ActivationCase
	err := eachLine(path, func(line int, data []byte) error {
		if problems := validation.ValidateActivationCase(data); len(problems) > 0 {
			return &LineError{Path: path, Line: line, Problems: problems}
		}
		c, err := decodeActivation(data)
		if err != nil {
			return &LineError{Path: path, Line: line, Problems: []string{err.Error()}}
		}
		cases = append(cases, c)
		return nil
	})
	return cases, err
}

func decodeActivation(data []byte) (ActivationCase, error) {
	var raw struct {
		ActivationCase
		ShouldActivate *bool `json:"should_activate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ActivationCase{}, err
	}
	c := raw.ActivationCase
	c.ShouldActivate = resolveShouldActivate(raw.ShouldActivate, c.ExpectedSkills)
	c.normalize()
	return c, nil
}

func resolveShouldActivate(flag *bool, expected []string) bool {
	if flag != nil {
		return *flag
	}
	return len(expected) > 0
}

func (c *ActivationCase) normalize() {
	if c.ExpectedSkills == nil {
		c.ExpectedSkills = []string{}
	}
	if c.AcceptableSkills == nil {
		c.AcceptableSkills = []string{}
	}
}

// LoadEffectiveness reads effectiveness cases from a .jsonl file.
func LoadEffectiveness(path string) ([]EffectivenessCase, error) {
	var cases []EffectivenessCase
	err := eachLine(path, func(line int, data []byte) error {
		if problems := validation.ValidateEffectivenessCase(data); len(problems) > 0 {
			return &LineError{Path: path, Line: line, Problems: problems}
		}
		var c EffectivenessCase
		if err := json.Unmarshal(data, &c); err != nil {
			return &LineError{Path: path, Line: line, Problems: []string{err.Error()}}
		}
		cases = append(cases, c)
		return nil
	})
	return cases, err
}

// FilterBySkill keeps the cases for one skill.
func FilterBySkill(cases []EffectivenessCase, skillName string) []EffectivenessCase {
	var out []EffectivenessCase
	for _, c := range cases {
		if c.SkillName == skillName {
			out = append(out, c)
		}
	}
	return out
}

// eachLine calls fn for every non-blank line. Errors from fn are collected;
// I/O errors stop the scan.
func eachLine(path string, fn func(line int, data []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var errs []error
	for n := 1; scanner.Scan(); n++ {
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		if err := fn(n, data); err != nil {
			errs = append(errs, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("dataset: read %s: %w", path, err)
	}
	return errors.Join(errs...)
}

// loadActivationCSV reads columns id, user_prompt, expected_skills,
// acceptable_skills and should_activate. Skill lists are ';'-separated.
func loadActivationCSV(path string) ([]ActivationCase, error) {
	rows, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}

	var (
		cases []ActivationCase
		errs  []error
	)
	for i, row := range rows {
		line := i + 2
		record := map[string]any{
			"id":                row["id"],
			"user_prompt":       row["user_prompt"],
			"expected_skills":   splitList(row["expected_skills"]),
			"acceptable_skills": splitList(row["acceptable_skills"]),
		}

		var flag *bool
		if v := strings.TrimSpace(row["should_activate"]); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, &LineError{Path: path, Line: line, Problems: []string{fmt.Sprintf("/should_activate: %q is not a boolean", v)}})
				continue
			}
			flag = &b
			record["should_activate"] = b
		}

		if problems := validation.ValidateActivationRecord(record); len(problems) > 0 {
			errs = append(errs, &LineError{Path: path, Line: line, Problems: problems})
			continue
		}

		c := ActivationCase{
			ID:               row["id"],
			UserPrompt:       row["user_prompt"],
			ExpectedSkills:   splitList(row["expected_skills"]),
			AcceptableSkills: splitList(row["acceptable_skills"]),
		}
		c.ShouldActivate = resolveShouldActivate(flag, c.ExpectedSkills)
		cases = append(cases, c)
	}
	return cases, errors.Join(errs...)
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

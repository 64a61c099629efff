// Package reporting turns evaluation results into terminal tables and
// persisted artifacts.
package reporting

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// Kind names the evaluation an artifact came from. It is also the results
// subdirectory the artifact is written to.
type Kind string

const (
	KindActivation    Kind = "activation"
	KindSelection     Kind = "selection"
	KindEffectiveness Kind = "effectiveness"
	KindSizeImpact    Kind = "size-impact"
	KindVariants      Kind = "variants"
)

// ErrKindMismatch is returned when comparing artifacts of different kinds.
var ErrKindMismatch = errors.New("artifacts are of different kinds")

// Artifact is the persisted record of one evaluation run.
type Artifact struct {
	RunID      string            `json:"run_id"`
	Kind       Kind              `json:"kind"`
	CreatedAt  time.Time         `json:"created_at"`
	Model      string            `json:"model"`
	JudgeModel string            `json:"judge_model,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	Sections   []Section         `json:"sections"`
}

// Section is one block of results, such as one mechanism or one strategy.
type Section struct {
	Name       string             `json:"name"`
	Summary    map[string]float64 `json:"summary"`
	Confusions json.RawMessage    `json:"confusions,omitempty"`
	Cases      json.RawMessage    `json:"cases,omitempty"`

	// Outcomes feed the JUnit export and are not persisted.
	Outcomes []CaseOutcome `json:"-"`
}

// CaseOutcome is the pass/fail view of one case.
type CaseOutcome struct {
	ID      string
	Group   string
	Failure string
	Error   string
}

// NewArtifact starts an artifact with a fresh run id.
func NewArtifact(kind Kind, model string) *Artifact {
	return &Artifact{
		RunID:     uuid.NewString(),
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
		Model:     model,
		Params:    map[string]string{},
	}
}

// Section returns the named section, or nil.
func (a *Artifact) Section(name string) *Section {
	for i := range a.Sections {
		if a.Sections[i].Name == name {
			return &a.Sections[i]
		}
	}
	return nil
}

// NewSection builds a section from a typed summary struct and the case
// list. The summary's json field names become the metric names.
func NewSection(name string, summary any, cases any) (Section, error) {
	metrics, err := SummaryMetrics(summary)
	if err != nil {
		return Section{}, fmt.Errorf("section %s: %w", name, err)
	}
	s := Section{Name: name, Summary: metrics}
	if cases != nil {
		raw, err := json.Marshal(cases)
		if err != nil {
			return Section{}, fmt.Errorf("section %s: encoding cases: %w", name, err)
		}
		s.Cases = raw
	}
	return s, nil
}

// SummaryMetrics flattens a summary struct into name -> value using its
// json tags. Non-numeric fields are skipped.
func SummaryMetrics(summary any) (map[string]float64, error) {
	var fields map[string]any
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &fields,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(summary); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}

	out := make(map[string]float64, len(fields))
	for k, v := range fields {
		k, _, _ = strings.Cut(k, ",")
		switch n := v.(type) {
		case int:
			out[k] = float64(n)
		case int64:
			out[k] = float64(n)
		case float64:
			out[k] = n
		case float32:
			out[k] = float64(n)
		}
	}
	return out, nil
}

// MetricNames returns a section's metric names sorted.
func (s *Section) MetricNames() []string {
	names := make([]string, 0, len(s.Summary))
	for k := range s.Summary {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// AutoPath is the default artifact location:
// resultsDir/<kind>/<YYYYmmdd_HHMMSS>_<model>[_k-v...].json.
// Extras with empty values are skipped; slashes in names become dashes.
func AutoPath(resultsDir string, kind Kind, model string, now time.Time, extras ...[2]string) string {
	parts := []string{now.Format("20060102_150405"), sanitize(model)}
	for _, kv := range extras {
		if kv[1] == "" {
			continue
		}
		parts = append(parts, sanitize(kv[0])+"-"+sanitize(kv[1]))
	}
	return filepath.Join(resultsDir, string(kind), strings.Join(parts, "_")+".json")
}

func sanitize(s string) string {
	return strings.NewReplacer("/", "-", "\\", "-", " ", "-", ":", "-").Replace(s)
}

// WriteJSON writes the artifact as indented JSON, gzip-compressed when the
// path ends in .gz. Parent directories are created.
func WriteJSON(a *Artifact, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	if err := Encode(a, f, strings.HasSuffix(path, ".gz")); err != nil {
		return err
	}
	return f.Close()
}

// Encode writes the artifact to w, optionally gzip-compressed.
func Encode(a *Artifact, w io.Writer, compress bool) error {
	if compress {
		zw := gzip.NewWriter(w)
		if err := encode(a, zw); err != nil {
			return err
		}
		return zw.Close()
	}
	return encode(a, w)
}

func encode(a *Artifact, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	return nil
}

// Load reads an artifact written by WriteJSON. Gzip input is detected from
// the stream header.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	var magic [2]byte
	if n, _ := io.ReadFull(f, magic[:]); n == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		defer zr.Close() //nolint:errcheck
		r = zr
	} else if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &a, nil
}

package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// NormalizeSkillList turns whatever shape a model produced for a list of
// skill names into a clean []string. It accepts JSON arrays, comma-joined
// strings, JSON-encoded arrays inside a string, and nil. Entries are trimmed
// of whitespace, quotes and list bullets; empty entries are dropped.
func NormalizeSkillList(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") {
			var arr []any
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				return NormalizeSkillList(arr)
			}
			s = strings.Trim(s, "[]")
		}
		raw = strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			if item == nil {
				continue
			}
			raw = append(raw, fmt.Sprint(item))
		}
	default:
		return []string{}
	}

	out := make([]string, 0, len(raw))
	for _, r := range raw {
		name := strings.Trim(strings.TrimSpace(r), "\"'`")
		name = strings.TrimSpace(strings.TrimLeft(name, "-*• "))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// DecodeArguments decodes tool-call arguments into out, converting loosely
// typed values ("3" into an int and the like).
func DecodeArguments(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

// parseArguments decodes a provider's raw JSON argument string. An empty
// string decodes to an empty map.
func parseArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("decoding tool arguments: %w", err)
	}
	return args, nil
}

// ExtractJSONObject returns the outermost {...} in text, dropping code
// fences and any prose around it.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

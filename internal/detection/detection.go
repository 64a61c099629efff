// Package detection finds which known skill names a response refers to.
package detection

import "strings"

// Detect returns the names from knownNames that occur in text, compared
// case-insensitively. Results keep the order of knownNames, not the order of
// appearance in text, and contain no duplicates. Each name is checked on its
// own, so a longer name is never reported because a shorter one matched.
func Detect(text string, knownNames []string) []string {
	if len(knownNames) == 0 {
		return []string{}
	}

	lowered := strings.ToLower(text)
	seen := make(map[string]bool, len(knownNames))
	matched := []string{}
	for _, name := range knownNames {
		if name == "" || seen[name] {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(name)) {
			seen[name] = true
			matched = append(matched, name)
		}
	}
	return matched
}

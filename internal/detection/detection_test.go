package detection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	catalog := []string{"akka-net-best-practices", "efcore-patterns", "csharp-coding-standards"}

	tests := []struct {
		name  string
		text  string
		known []string
		want  []string
	}{
		{
			name:  "no known names",
			text:  "use akka-net-best-practices",
			known: nil,
			want:  []string{},
		},
		{
			name:  "single match",
			text:  "I'd follow efcore-patterns here.",
			known: catalog,
			want:  []string{"efcore-patterns"},
		},
		{
			name:  "case insensitive",
			text:  "See EFCORE-PATTERNS for details",
			known: catalog,
			want:  []string{"efcore-patterns"},
		},
		{
			name:  "catalog order, not text order",
			text:  "csharp-coding-standards first, then akka-net-best-practices",
			known: catalog,
			want:  []string{"akka-net-best-practices", "csharp-coding-standards"},
		},
		{
			name:  "strict prefix does not match",
			text:  "akka-net is an actor framework",
			known: catalog,
			want:  []string{},
		},
		{
			name:  "repeated mention reported once",
			text:  "efcore-patterns, efcore-patterns, efcore-patterns",
			known: catalog,
			want:  []string{"efcore-patterns"},
		},
		{
			name:  "overlapping names both match",
			text:  "akka-net-testing-patterns",
			known: []string{"akka-net-testing", "akka-net-testing-patterns"},
			want:  []string{"akka-net-testing", "akka-net-testing-patterns"},
		},
		{
			name:  "duplicate known names",
			text:  "efcore-patterns",
			known: []string{"efcore-patterns", "efcore-patterns"},
			want:  []string{"efcore-patterns"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Detect(tt.text, tt.known))
		})
	}
}

package reporting

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dotnet-skills/skill-evals/internal/skill"
)

// SkillInfo is the list-skills view of one skill.
type SkillInfo struct {
	Name      string  `json:"name"`
	Directory string  `json:"directory"`
	Lines     int     `json:"lines"`
	KB        float64 `json:"kb"`
	Tokens    int     `json:"tokens"`
	Oversized bool    `json:"oversized"`
}

func SkillInfos(skills []*skill.Skill, lineLimit int) []SkillInfo {
	dirs := skill.NameToDirectory(skills)
	out := make([]SkillInfo, len(skills))
	for i, s := range skills {
		out[i] = SkillInfo{
			Name:      s.Name,
			Directory: dirs[s.Name],
			Lines:     s.Lines,
			KB:        s.KB(),
			Tokens:    s.Tokens,
			Oversized: s.IsOversized(lineLimit),
		}
	}
	return out
}

// PrintSkills writes the skill size table.
func PrintSkills(w io.Writer, infos []SkillInfo, lineLimit int) {
	t := NewTable(fmt.Sprintf("Skills (%d)", len(infos)),
		Column{Header: "Name"},
		Column{Header: "Directory"},
		Column{Header: "Lines", Align: AlignRight},
		Column{Header: "Size", Align: AlignRight},
		Column{Header: "Tokens", Align: AlignRight},
		Column{Header: fmt.Sprintf("Over %d?", lineLimit)},
	)
	over := 0
	for _, s := range infos {
		flag := ""
		if s.Oversized {
			flag = "YES"
			over++
		}
		t.AddRow(s.Name, s.Directory, strconv.Itoa(s.Lines), fmt.Sprintf("%.1f KB", s.KB), strconv.Itoa(s.Tokens), flag)
	}
	t.Render(w)
	fmt.Fprintf(w, "\n%d of %d skills exceed %d lines\n", over, len(infos), lineLimit) //nolint:errcheck
}

package scaffold

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// IsInteractive reports whether r is a terminal.
func IsInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PickSkills asks the user which skills to scaffold, with selected
// pre-checked.
func PickSkills(in io.Reader, out io.Writer, candidates, selected []string) ([]string, error) {
	chosen := append([]string(nil), selected...)

	options := make([]huh.Option[string], 0, len(candidates))
	for _, name := range candidates {
		options = append(options, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Skills to scaffold").
				Description("Placeholder variants are created for each selected skill").
				Options(options...).
				Value(&chosen),
		),
	).
		WithInput(in).
		WithOutput(out)

	if !IsInteractive(in) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("skill picker failed: %w", err)
	}
	return chosen, nil
}

package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dotnet-skills/skill-evals/internal/dataset"
)

// loadCases runs a dataset loader. Invalid records are logged and skipped
// as long as at least one case survives.
func loadCases[T any](path string, load func(string) ([]T, error)) ([]T, error) {
	if path == "" {
		return nil, configErrorf("--dataset is required")
	}
	cases, err := load(path)
	if err != nil {
		var lineErr *dataset.LineError
		if !errors.As(err, &lineErr) || len(cases) == 0 {
			return nil, configErrorf("loading dataset: %w", err)
		}
		slog.Warn("Skipping invalid dataset records", "path", path, "error", err)
	}
	if len(cases) == 0 {
		return nil, configErrorf("dataset %s has no cases", path)
	}
	return cases, nil
}

func datasetLine(path string, n int) string {
	return fmt.Sprintf("Dataset: %s (%d cases)", path, n)
}

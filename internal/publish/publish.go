// Package publish exports a space as a small tree of markdown files.
package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"momentum-cli/internal/mutate"
)

type WriteOptions struct {
	IncludeDisabled bool
	Overwrite       bool
	ActivityLimit   int
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteSpace writes <toDir>/spaces/<space-id>/index.md and one page per
// action under actions/.
func WriteSpace(ctx context.Context, st mutate.Stores, spaceRef string, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	sp, err := mutate.ResolveSpace(ctx, st, spaceRef)
	if err != nil {
		return WriteResult{}, err
	}
	index, err := RenderSpaceMarkdown(ctx, st, sp.ID, RenderOptions{
		IncludeDisabled: opt.IncludeDisabled,
		ActivityLimit:   opt.ActivityLimit,
	})
	if err != nil {
		return WriteResult{}, err
	}

	spaceDir := filepath.Join(toDir, "spaces", sp.ID)
	actionsDir := filepath.Join(spaceDir, "actions")
	if err := os.MkdirAll(actionsDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	indexPath := filepath.Join(spaceDir, "index.md")
	if err := writeFile(indexPath, []byte(index), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}

	defs, err := mutate.ListActions(ctx, st, sp.ID)
	if err != nil {
		return WriteResult{}, err
	}
	// Stop on the first failing page.
	written := []string{indexPath}
	for _, d := range defs {
		if !d.IsEnabled && !opt.IncludeDisabled {
			continue
		}
		md, err := RenderActionMarkdown(ctx, st, d.ID)
		if err != nil {
			return WriteResult{}, err
		}
		p := filepath.Join(actionsDir, d.ID+".md")
		if err := writeFile(p, []byte(md), opt.Overwrite); err != nil {
			return WriteResult{}, err
		}
		written = append(written, p)
	}
	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return mutate.InvalidInputError{Reason: "file exists (use --overwrite): " + path}
		}
	}
	return os.WriteFile(path, b, 0o644)
}

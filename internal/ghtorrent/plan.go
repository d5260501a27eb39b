package ghtorrent

import (
	"context"
	"fmt"
)

// Plan describes which projects a run keeps.
type Plan struct {
	// First selects the first N projects. It excludes Languages.
	First int
	// Languages selects non-deleted, non-fork projects by language.
	Languages []string
	// MinCommits drops projects with fewer commits.
	MinCommits int
	// Sample keeps at most this many projects (per language with
	// PerLanguage). Zero keeps all.
	Sample      int
	PerLanguage bool
	Seed        uint64
	// Watchers also filters watchers.csv and keeps the starring users.
	Watchers bool
}

// Run selects projects according to p and writes the filtered dataset.
func (d *Dataset) Run(ctx context.Context, p Plan) ([]FileStats, error) {
	var (
		sel *Selection
		err error
	)
	switch {
	case p.First > 0 && len(p.Languages) > 0:
		return nil, fmt.Errorf("ghtorrent: first and languages are mutually exclusive")
	case p.First > 0:
		sel, err = d.SelectFirstProjects(ctx, p.First)
	case len(p.Languages) > 0:
		sel, err = d.SelectLanguageProjects(ctx, p.Languages)
	default:
		return nil, fmt.Errorf("ghtorrent: plan selects no projects")
	}
	if err != nil {
		return nil, err
	}

	if p.MinCommits > 0 || p.Sample > 0 {
		if err := d.AssignCommits(ctx, sel); err != nil {
			return nil, err
		}
	}
	if p.MinCommits > 0 {
		DropSmallProjects(sel, p.MinCommits)
	}
	Sample(sel, p.Sample, p.PerLanguage, p.Seed)

	st, err := d.WriteProjects(ctx, sel)
	if err != nil {
		return []FileStats{st}, err
	}
	rest, err := d.FilterDataset(ctx, sel, p.Watchers)
	return append([]FileStats{st}, rest...), err
}

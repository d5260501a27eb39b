package ghtorrent

import (
	"context"
	"fmt"
	"log"

	"ghtdump/internal/parser/csv"
)

// projects.csv columns used by the filters.
const (
	colProjectID         = 0
	colProjectLanguage   = 5
	colProjectForkedFrom = 7
	colProjectDeleted    = 8
	projectColumns       = 10 // up to updatedAt, which is the last one copied
)

// SelectFirstProjects selects the first n projects of projects.csv.
func (d *Dataset) SelectFirstProjects(ctx context.Context, n int) (*Selection, error) {
	sel := NewSelection()
	if n <= 0 {
		return sel, nil
	}
	_, err := d.step("select-first", func() (FileStats, error) {
		return d.scan(ctx, ProjectsFile, true, func(row []string) (verdict, error) {
			id, err := parseID(row, colProjectID)
			if err != nil {
				return skip, err
			}
			lang := ""
			if len(row) > colProjectLanguage {
				lang = FoldLanguage(row[colProjectLanguage])
			}
			sel.Add(id, lang)
			if sel.Len() >= n {
				return keepLast, nil
			}
			return keep, nil
		})
	})
	return sel, err
}

// SelectLanguageProjects selects projects written in one of langs that are
// neither deleted nor forks. Language names are compared folded.
func (d *Dataset) SelectLanguageProjects(ctx context.Context, langs []string) (*Selection, error) {
	set := LanguageSet(langs)
	if len(set) == 0 {
		return nil, fmt.Errorf("ghtorrent: no languages given")
	}
	sel := NewSelection()
	_, err := d.step("select-language", func() (FileStats, error) {
		return d.scan(ctx, ProjectsFile, true, func(row []string) (verdict, error) {
			if len(row) <= colProjectDeleted {
				return skip, shortRow(len(row), colProjectDeleted+1)
			}
			lang := FoldLanguage(row[colProjectLanguage])
			if !set[lang] || row[colProjectDeleted] == "1" || row[colProjectForkedFrom] != nullID {
				return skip, nil
			}
			id, err := parseID(row, colProjectID)
			if err != nil {
				return skip, err
			}
			sel.Add(id, lang)
			return keep, nil
		})
	})
	if err == nil {
		log.Printf("ghtorrent: select-language: langs=%d projects=%d", len(set), sel.Len())
	}
	return sel, err
}

// AssignCommits loads project_commits.csv and records, for every selected
// project, the distinct commits it contains.
func (d *Dataset) AssignCommits(ctx context.Context, sel *Selection) error {
	records := 0
	_, err := d.step("assign-commits", func() (FileStats, error) {
		return d.scan(ctx, ProjectCommitsFile, false, func(row []string) (verdict, error) {
			if len(row) < 2 {
				return skip, shortRow(len(row), 2)
			}
			pid, err := parseID(row, 0)
			if err != nil {
				return skip, err
			}
			p := sel.Get(pid)
			if p == nil {
				return skip, nil
			}
			cid, err := parseID(row, 1)
			if err != nil {
				return skip, err
			}
			p.addCommit(cid)
			records++
			return keep, nil
		})
	})
	if err != nil {
		return err
	}
	sel.assigned = true
	log.Printf("ghtorrent: assign-commits: records=%d", records)
	return nil
}

// DropSmallProjects removes projects with fewer than cutoff commits and
// returns how many were removed. Commits must have been assigned.
func DropSmallProjects(sel *Selection, cutoff int) int {
	removed := 0
	for id, p := range sel.projects {
		if p.Commits() < cutoff {
			delete(sel.projects, id)
			removed++
		}
	}
	log.Printf("ghtorrent: drop-small: cutoff=%d removed=%d remaining=%d", cutoff, removed, sel.Len())
	return removed
}

// WriteProjects copies the selected rows of projects.csv to the output,
// blanking the description and forked commit columns.
func (d *Dataset) WriteProjects(ctx context.Context, sel *Selection) (FileStats, error) {
	return d.step("projects", func() (st FileStats, err error) {
		out, err := d.create(ProjectsFile, ProjectsHeader)
		if err != nil {
			return st, err
		}
		defer func() { err = out.close(err) }()

		return d.scan(ctx, ProjectsFile, true, func(row []string) (verdict, error) {
			if len(row) < projectColumns {
				return skip, shortRow(len(row), projectColumns)
			}
			id, err := parseID(row, colProjectID)
			if err != nil {
				return skip, err
			}
			if !sel.Has(id) {
				return skip, nil
			}
			if err := out.w.Write(projectRow(row)...); err != nil {
				return abort, err
			}
			return keep, nil
		})
	})
}

func projectRow(row []string) []string {
	return []string{
		row[0],            // id
		csv.Quote(row[1]), // url
		row[2],            // owner id
		csv.Quote(row[3]), // name
		`""`,              // desc
		csv.Quote(row[5]), // language
		csv.Quote(row[6]), // created at
		row[7],            // forked from
		row[8],            // deleted
		csv.Quote(row[9]), // updated at
		`""`,              // forked commit id
	}
}

package ghtorrent

import (
	"context"
	"strconv"

	"ghtdump/internal/bitmap"
	"ghtdump/internal/parser/csv"

	"golang.org/x/sync/errgroup"
)

// FilterDataset writes every table reachable from sel to OutputDir:
// project_commits, commits, commit_parents, users and, with withWatchers,
// watchers. projects.csv is written separately by WriteProjects.
//
// Commit parents may reference commits outside the selection; they are
// copied as found, matching the source data.
func (d *Dataset) FilterDataset(ctx context.Context, sel *Selection, withWatchers bool) ([]FileStats, error) {
	var stats []FileStats

	commits, st, err := d.filterProjectCommits(ctx, sel)
	stats = append(stats, st)
	if err != nil {
		return stats, err
	}

	// The following tables depend only on the project and commit sets, so
	// they are read concurrently. Each collects users into its own bitmap.
	var (
		watcherUsers, commitUsers bitmap.Bitmap
		watchersSt, commitsSt     FileStats
		parentsSt                 FileStats
	)
	g, gctx := errgroup.WithContext(ctx)
	if withWatchers {
		g.Go(func() (err error) {
			watchersSt, err = d.filterWatchers(gctx, sel, &watcherUsers)
			return err
		})
	}
	g.Go(func() (err error) {
		commitsSt, err = d.filterCommits(gctx, commits, &commitUsers)
		return err
	})
	g.Go(func() (err error) {
		parentsSt, err = d.filterCommitParents(gctx, commits)
		return err
	})
	err = g.Wait()
	if withWatchers {
		stats = append(stats, watchersSt)
	}
	stats = append(stats, commitsSt, parentsSt)
	if err != nil {
		return stats, err
	}

	users := &commitUsers
	users.Union(&watcherUsers)
	st, err = d.filterUsers(ctx, users)
	stats = append(stats, st)
	return stats, err
}

// filterProjectCommits writes project_commits.csv and returns the selected
// commits. When commits were assigned in memory the file is written from the
// selection instead of being read again.
func (d *Dataset) filterProjectCommits(ctx context.Context, sel *Selection) (*bitmap.Bitmap, FileStats, error) {
	commits := &bitmap.Bitmap{}
	st, err := d.step("project-commits", func() (st FileStats, err error) {
		out, err := d.create(ProjectCommitsFile, nil)
		if err != nil {
			return st, err
		}
		defer func() { err = out.close(err) }()

		if sel.Assigned() {
			st.File = ProjectCommitsFile
			for _, pid := range sel.IDs() {
				p := strconv.Itoa(pid)
				for _, cid := range sel.Get(pid).CommitIDs() {
					if err := out.w.Write(p, strconv.Itoa(cid)); err != nil {
						return st, err
					}
					commits.Add(cid)
					st.Kept++
				}
			}
			return st, ctx.Err()
		}

		return d.scan(ctx, ProjectCommitsFile, false, func(row []string) (verdict, error) {
			if len(row) < 2 {
				return skip, shortRow(len(row), 2)
			}
			pid, err := parseID(row, 0)
			if err != nil {
				return skip, err
			}
			if !sel.Has(pid) {
				return skip, nil
			}
			cid, err := parseID(row, 1)
			if err != nil {
				return skip, err
			}
			if err := out.w.Write(row[0], row[1]); err != nil {
				return abort, err
			}
			commits.Add(cid)
			return keep, nil
		})
	})
	return commits, st, err
}

// filterWatchers writes the stars of selected projects and collects the
// starring users.
func (d *Dataset) filterWatchers(ctx context.Context, sel *Selection, users *bitmap.Bitmap) (FileStats, error) {
	return d.step("watchers", func() (st FileStats, err error) {
		out, err := d.create(WatchersFile, nil)
		if err != nil {
			return st, err
		}
		defer func() { err = out.close(err) }()

		return d.scan(ctx, WatchersFile, false, func(row []string) (verdict, error) {
			if len(row) < 3 {
				return skip, shortRow(len(row), 3)
			}
			pid, err := parseID(row, 0)
			if err != nil {
				return skip, err
			}
			if !sel.Has(pid) {
				return skip, nil
			}
			uid, err := parseID(row, 1)
			if err != nil {
				return skip, err
			}
			if err := out.w.Write(row[0], row[1], csv.Quote(row[2])); err != nil {
				return abort, err
			}
			users.Add(uid)
			return keep, nil
		})
	})
}

// filterCommits writes the details of selected commits and collects their
// authors and committers.
func (d *Dataset) filterCommits(ctx context.Context, commits, users *bitmap.Bitmap) (FileStats, error) {
	return d.step("commits", func() (st FileStats, err error) {
		out, err := d.create(CommitsFile, nil)
		if err != nil {
			return st, err
		}
		defer func() { err = out.close(err) }()

		return d.scan(ctx, CommitsFile, false, func(row []string) (verdict, error) {
			if len(row) < 6 {
				return skip, shortRow(len(row), 6)
			}
			cid, err := parseID(row, 0)
			if err != nil {
				return skip, err
			}
			if !commits.Has(cid) {
				return skip, nil
			}
			author, hasAuthor, err := parseOptionalID(row, 2)
			if err != nil {
				return skip, err
			}
			committer, hasCommitter, err := parseOptionalID(row, 3)
			if err != nil {
				return skip, err
			}
			// commit id, hash, author, committer, project id, created at
			if err := out.w.Write(row[0], row[1], row[2], row[3], row[4], csv.Quote(row[5])); err != nil {
				return abort, err
			}
			if hasAuthor {
				users.Add(author)
			}
			if hasCommitter {
				users.Add(committer)
			}
			return keep, nil
		})
	})
}

// filterCommitParents copies parent links of selected commits.
func (d *Dataset) filterCommitParents(ctx context.Context, commits *bitmap.Bitmap) (FileStats, error) {
	return d.step("commit-parents", func() (st FileStats, err error) {
		out, err := d.create(CommitParentsFile, nil)
		if err != nil {
			return st, err
		}
		defer func() { err = out.close(err) }()

		return d.scan(ctx, CommitParentsFile, false, func(row []string) (verdict, error) {
			if len(row) < 2 {
				return skip, shortRow(len(row), 2)
			}
			cid, err := parseID(row, 0)
			if err != nil {
				return skip, err
			}
			if !commits.Has(cid) {
				return skip, nil
			}
			if err := out.w.Write(row[0], row[1]); err != nil {
				return abort, err
			}
			return keep, nil
		})
	})
}

// filterUsers writes the collected users, keeping only id, login and
// creation time.
func (d *Dataset) filterUsers(ctx context.Context, users *bitmap.Bitmap) (FileStats, error) {
	return d.step("users", func() (st FileStats, err error) {
		out, err := d.create(UsersFile, UsersHeader)
		if err != nil {
			return st, err
		}
		defer func() { err = out.close(err) }()

		return d.scan(ctx, UsersFile, true, func(row []string) (verdict, error) {
			if len(row) < 4 {
				return skip, shortRow(len(row), 4)
			}
			uid, err := parseID(row, 0)
			if err != nil {
				return skip, err
			}
			if !users.Has(uid) {
				return skip, nil
			}
			if err := out.w.Write(userRow(row)...); err != nil {
				return abort, err
			}
			return keep, nil
		})
	})
}

func userRow(row []string) []string {
	out := make([]string, len(UsersHeader))
	out[0] = row[0]
	out[1] = csv.Quote(row[1]) // login
	out[3] = csv.Quote(row[3]) // created at
	for _, i := range []int{2, 4, 5, 6, 7, 8, 9, 10, 11, 12} {
		out[i] = `""`
	}
	return out
}

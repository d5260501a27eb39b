// Command csvload streams one dump CSV, local or over HTTP, into a database
// table with the backend's bulk path. \N fields are loaded as NULL; -types
// turns chosen columns into integers, booleans or timestamps.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ghtdump/internal/cli"
	"ghtdump/internal/config"
	"ghtdump/internal/datasource"
	"ghtdump/internal/datasource/file"
	"ghtdump/internal/datasource/httpds"
	"ghtdump/internal/metrics"
	"ghtdump/internal/parser/csv"
	"ghtdump/internal/storage"
	"ghtdump/internal/transformer"

	_ "ghtdump/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr); err != nil {
		log.Printf("csvload: %v", err)
		stop()
		os.Exit(1)
	}
}

// result summarizes one load.
type result struct {
	name     string
	read     int
	inserted int64
	rejected int
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("csvload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := config.LoadFromArgs(fs, getenv, args, config.GroupDialect, config.GroupLoad, config.GroupMetrics)
	if err != nil {
		return err
	}
	if err := cli.CheckConfig(stderr, cfg); err != nil {
		return err
	}

	flush := cli.StartMetrics(cfg)
	defer flush()

	skipped, err := cli.OpenSkipLog(cfg)
	if err != nil {
		return err
	}
	defer cli.CloseSkipLog(skipped)

	src, name := source(cfg)
	repo, err := storage.New(ctx, storage.Config{Kind: cfg.DBDriver, DSN: cfg.DSN, Table: cfg.Table})
	if err != nil {
		return err
	}
	defer repo.Close()

	start := time.Now()
	res, err := load(ctx, cfg, src, name, repo, skipped.Add)
	metrics.RecordStep(cfg.Job, "load", err, time.Since(start))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "file=%s table=%s read=%d inserted=%d rejected=%d took=%s\n",
		res.name, cfg.Table, res.read, res.inserted, res.rejected, time.Since(start).Truncate(time.Millisecond))
	return nil
}

// source picks the remote or local input and the name used in logs.
func source(cfg *config.Config) (datasource.Source, string) {
	if cfg.URL != "" {
		client := httpds.NewClient(httpds.Config{Timeout: cfg.HTTPTimeout, MaxRetries: cfg.HTTPRetries})
		return httpds.NewRemote(client, cfg.URL), path.Base(cfg.URL)
	}
	return file.NewLocal(cfg.Input), path.Base(cfg.Input)
}

// compile builds the conversion plan and, with -dedup_key, the key filter.
func compile(cfg *config.Config, cols []string) (*transformer.Plan, *transformer.Dedup, error) {
	types, err := transformer.ParseTypes(cfg.Types)
	if err != nil {
		return nil, nil, err
	}
	plan, err := transformer.Compile(cols, transformer.Spec{Types: types, Normalize: cfg.Normalize})
	if err != nil {
		return nil, nil, err
	}
	keys := cfg.DedupColumns()
	if len(keys) == 0 {
		return plan, nil, nil
	}
	dedup, err := transformer.NewDedup(cols, keys)
	if err != nil {
		return nil, nil, err
	}
	return plan, dedup, nil
}

// tableColumns pairs the plan's column names with their types.
func tableColumns(p *transformer.Plan) []storage.Column {
	names, types := p.Columns(), p.Types()
	out := make([]storage.Column, len(names))
	for i := range names {
		out[i] = storage.Column{Name: names[i], Type: types[i]}
	}
	return out
}

func columnNames(cols []storage.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// load parses src in one goroutine and bulk-copies its rows in another. The
// column list comes from the header row, or c1..cN from the first row's
// width when the input has none.
func load(ctx context.Context, cfg *config.Config, src datasource.Source, name string, repo storage.Repository, reject func(file string, line int, err error)) (result, error) {
	res := result{name: name}

	rc, err := src.Open(ctx)
	if err != nil {
		return res, fmt.Errorf("open source: %w", err)
	}
	defer rc.Close()

	opt := cfg.CSVOptions()
	opt.OnError = func(line int, err error) {
		res.rejected++
		reject(name, line, err)
	}
	lastLines := 0
	opt.OnProgress = func(lines int) {
		metrics.RecordLines(cfg.Job, name, int64(lines-lastLines))
		lastLines = lines
		log.Printf("csvload: file=%s lines=%d", name, lines)
	}
	rd := csv.NewReader(rc, opt)

	rows := make(chan []any, cfg.BatchSize)
	columns := make(chan []storage.Column, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(rows)
		defer close(columns)

		var (
			plan    *transformer.Plan
			dedup   *transformer.Dedup
			planErr error
		)
		_, err := rd.Parse(gctx, func(row []string) csv.Action {
			res.read++
			if plan == nil {
				cols := rd.Header()
				if cols == nil {
					cols = make([]string, len(row))
					for i := range cols {
						cols[i] = "c" + strconv.Itoa(i+1)
					}
				}
				if plan, dedup, planErr = compile(cfg, cols); planErr != nil {
					return csv.Stop
				}
				columns <- tableColumns(plan)
			}

			vals, err := plan.Convert(row)
			if err == nil && dedup != nil {
				err = dedup.Check(row)
			}
			if err != nil {
				res.rejected++
				reject(name, rd.Line(), err)
				return csv.Continue
			}
			select {
			case rows <- vals:
				return csv.Continue
			case <-gctx.Done():
				return csv.Stop
			}
		})
		if planErr != nil {
			return planErr
		}
		return err
	})

	g.Go(func() error {
		cols, ok := <-columns
		if !ok {
			return nil
		}
		if cfg.CreateTable {
			if err := storage.EnsureTable(gctx, cfg.DBDriver, repo, cfg.Table, cols); err != nil {
				return err
			}
		}
		n, err := storage.LoadBatches(gctx, columnNames(cols), rows, cfg.BatchSize, func(ctx context.Context, columns []string, batch [][]any) (int64, error) {
			n, err := repo.CopyFrom(ctx, columns, batch)
			metrics.RecordBatches(cfg.Job, 1)
			metrics.RecordRow(cfg.Job, name, metrics.KindInserted, n)
			return n, err
		})
		res.inserted = n
		return err
	})

	err = g.Wait()
	metrics.RecordLines(cfg.Job, name, int64(rd.Lines()-lastLines))
	metrics.RecordRow(cfg.Job, name, metrics.KindRead, int64(res.read))
	metrics.RecordRow(cfg.Job, name, metrics.KindRejected, int64(res.rejected))
	return res, err
}

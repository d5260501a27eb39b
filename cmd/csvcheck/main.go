// Command csvcheck parses dump CSV files without loading them and reports
// row counts, field-count distribution and rejected rows. Use it to check
// that a dump and a dialect agree before running ghtfilter or csvload.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"ghtdump/internal/cli"
	"ghtdump/internal/config"
	"ghtdump/internal/datasource/file"
	"ghtdump/internal/parser/csv"
	"ghtdump/internal/transformer"
)

// errRejected is returned with -strict when any row was rejected.
var errRejected = errors.New("rows were rejected")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr); err != nil {
		log.Printf("csvcheck: %v", err)
		stop()
		os.Exit(1)
	}
}

// report is the outcome for one file.
type report struct {
	file     string
	rows     int
	lines    int
	rejected int
	widths   map[int]int
	header   []string
	types    string // inferred -types value, with -infer
}

func (r report) String() string {
	ws := make([]int, 0, len(r.widths))
	for w := range r.widths {
		ws = append(ws, w)
	}
	sort.Ints(ws)
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = strconv.Itoa(w) + ":" + strconv.Itoa(r.widths[w])
	}
	s := fmt.Sprintf("file=%s rows=%d lines=%d rejected=%d widths=%s",
		r.file, r.rows, r.lines, r.rejected, strings.Join(parts, ","))
	if r.header != nil {
		s += " header=" + strings.Join(r.header, "|")
	}
	if r.types != "" {
		s += " types=" + r.types
	}
	return s
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("csvcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	strict := fs.Bool("strict", false, "Exit non-zero when any row is rejected")
	limit := fs.Int("limit", 0, "Stop each file after N rows (0 reads everything)")
	infer := fs.Bool("infer", false, "Suggest a csvload -types value from the rows read")
	cfg, err := config.LoadFromArgs(fs, getenv, args, config.GroupDialect)
	if err != nil {
		return err
	}
	if err := cli.CheckConfig(stderr, cfg); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return fmt.Errorf("no input files")
	}

	skipped, err := cli.OpenSkipLog(cfg)
	if err != nil {
		return err
	}
	defer cli.CloseSkipLog(skipped)

	rejected := 0
	for _, name := range files {
		rep, err := check(ctx, cfg, name, *limit, *infer, skipped.Add)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, rep)
		rejected += rep.rejected
	}
	if *strict && rejected > 0 {
		return fmt.Errorf("%w: %d", errRejected, rejected)
	}
	return nil
}

func check(ctx context.Context, cfg *config.Config, name string, limit int, infer bool, reject func(file string, line int, err error)) (report, error) {
	rep := report{file: name, widths: make(map[int]int)}

	rc, err := file.NewLocal(name).Open(ctx)
	if err != nil {
		return rep, fmt.Errorf("open source: %w", err)
	}
	defer rc.Close()

	opt := cfg.CSVOptions()
	opt.OnError = func(line int, err error) {
		rep.rejected++
		reject(name, line, err)
	}
	opt.OnProgress = func(lines int) {
		log.Printf("csvcheck: file=%s lines=%d", name, lines)
	}

	rd := csv.NewReader(rc, opt)
	var inf *transformer.Inferrer
	_, err = rd.Parse(ctx, func(row []string) csv.Action {
		rep.widths[len(row)]++
		if infer {
			if inf == nil {
				inf = transformer.NewInferrer(columnNames(rd.Header(), len(row)))
			}
			inf.Observe(row)
		}
		if limit > 0 && rd.Rows() >= limit {
			return csv.Stop
		}
		return csv.Continue
	})
	rep.rows, rep.lines, rep.header = rd.Rows(), rd.Lines(), rd.Header()
	if inf != nil {
		rep.types = inf.String()
	}
	if err != nil {
		return rep, fmt.Errorf("%s: %w", name, err)
	}
	return rep, nil
}

// Command ghtfilter cuts a GHTorrent CSV dump down to a subset of projects
// (the first N, or those written in given languages) and writes the rows of
// every dependent table that still refer to them.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghtdump/internal/cli"
	"ghtdump/internal/config"
	"ghtdump/internal/datasource/file"
	"ghtdump/internal/ghtorrent"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr); err != nil {
		log.Printf("ghtfilter: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ghtfilter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := config.LoadFromArgs(fs, getenv, args, config.GroupDialect, config.GroupFilter, config.GroupMetrics)
	if err != nil {
		return err
	}
	if err := cli.CheckConfig(stderr, cfg); err != nil {
		return err
	}

	langs := cfg.LanguageList()
	if cfg.LanguagesFile != "" {
		more, err := file.ReadList(ctx, cfg.LanguagesFile)
		if err != nil {
			return fmt.Errorf("languages file: %w", err)
		}
		langs = append(langs, more...)
	}

	flush := cli.StartMetrics(cfg)
	defer flush()

	skipped, err := cli.OpenSkipLog(cfg)
	if err != nil {
		return err
	}
	defer cli.CloseSkipLog(skipped)

	ds := &ghtorrent.Dataset{
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		Options:   cfg.CSVOptions(),
		Job:       cfg.Job,
		OnReject:  skipped.Add,
	}
	plan := ghtorrent.Plan{
		First:       cfg.First,
		Languages:   langs,
		MinCommits:  cfg.MinCommits,
		Sample:      cfg.Sample,
		PerLanguage: cfg.PerLanguage,
		Seed:        cfg.Seed,
		Watchers:    cfg.Watchers,
	}
	log.Printf("ghtfilter: input=%s output=%s first=%d languages=%v min_commits=%d sample=%d",
		cfg.InputDir, cfg.OutputDir, cfg.First, langs, cfg.MinCommits, cfg.Sample)

	start := time.Now()
	stats, err := ds.Run(ctx, plan)
	for _, st := range stats {
		fmt.Fprintln(stdout, st)
	}
	if err != nil {
		return err
	}
	log.Printf("ghtfilter: completed in %s", time.Since(start).Truncate(time.Millisecond))
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/blastpong/internal/fileutil"
	"github.com/lox/blastpong/internal/randutil"
	"github.com/lox/blastpong/internal/simulator"
)

type SimCmd struct {
	ConfigFlags `embed:""`

	Matches  int    `short:"n" help:"Number of matches (overrides config)"`
	Parallel int    `short:"p" help:"Matches played at once (overrides config)"`
	MaxTicks int64  `name:"max-ticks" help:"Tick cap per match (overrides config)"`
	Out      string `help:"Also write the summary as JSON to this file"`
	Verbose  bool   `help:"Log to stderr instead of the log file"`
}

var titleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	Bold(true).
	Padding(0, 1)

func (c *SimCmd) Run() error {
	cfg, logger, closer, err := prepare(&c.ConfigFlags, nil)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	if c.Verbose {
		logger.SetOutput(os.Stderr)
	}

	if c.Matches > 0 {
		cfg.Match.SimMatches = c.Matches
	}
	if c.Parallel > 0 {
		cfg.Match.SimParallel = c.Parallel
	}
	if c.MaxTicks > 0 {
		cfg.Match.MaxTicks = int(c.MaxTicks)
	}
	seed := randutil.Seed(cfg.Match.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println(titleStyle.Render(fmt.Sprintf("blastpong sim: %d matches, seed %d", cfg.Match.SimMatches, seed)))

	start := time.Now()
	stats, err := simulator.New(simulator.Config{
		Matches:  cfg.Match.SimMatches,
		Parallel: cfg.Match.SimParallel,
		Seed:     seed,
		MaxTicks: int64(cfg.Match.MaxTicks),
		Logger:   logger,
	}).Run(ctx)
	if err != nil {
		return err
	}

	simulator.PrintSummary(os.Stdout, stats)
	if c.Out != "" {
		if err := fileutil.WriteJSONAtomic(c.Out, simulator.NewReport(seed, stats)); err != nil {
			return err
		}
		fmt.Printf("Summary written to %s\n", c.Out)
	}
	fmt.Printf("\nCompleted in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

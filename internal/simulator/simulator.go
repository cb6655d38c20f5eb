// Package simulator plays batches of headless AI-versus-AI matches through
// the match orchestrator.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/match"
	"github.com/lox/blastpong/internal/randutil"
	"github.com/lox/blastpong/internal/statistics"
)

// ErrNoMatches is returned when the batch is empty.
var ErrNoMatches = errors.New("simulator: no matches requested")

// Config holds configuration for a batch.
type Config struct {
	Matches  int
	Parallel int
	Seed     int64
	MaxTicks int64
	Logger   *log.Logger
}

// Simulator runs match batches.
type Simulator struct {
	config Config
	logger *log.Logger
}

// New returns a simulator. Parallel below one means one worker.
func New(config Config) *Simulator {
	if config.Parallel < 1 {
		config.Parallel = 1
	}
	if config.MaxTicks <= 0 {
		config.MaxTicks = 100_000
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Simulator{
		config: config,
		logger: config.Logger.WithPrefix("sim"),
	}
}

// Run plays every match and aggregates the results in match order, so the
// outcome depends only on the seed.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if s.config.Matches <= 0 {
		return nil, ErrNoMatches
	}

	results := make([]statistics.MatchResult, s.config.Matches)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Parallel)
	for i := range results {
		seed := randutil.Derive(s.config.Seed, i)
		g.Go(func() error {
			r, err := s.Play(ctx, seed)
			if err != nil {
				return fmt.Errorf("match %d (seed %d): %w", i+1, seed, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &statistics.Statistics{}
	for _, r := range results {
		stats.Add(r)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	s.logger.Info("Batch finished",
		"matches", stats.Matches,
		"left", stats.Wins[0],
		"right", stats.Wins[1],
		"unfinished", stats.Unfinished)
	return stats, nil
}

// Play runs one match to completion or to the tick cap.
func (s *Simulator) Play(ctx context.Context, seed int64) (statistics.MatchResult, error) {
	result := statistics.MatchResult{Seed: seed}

	m, err := match.New(match.Config{
		Role:      game.RoleSinglePlayer,
		Rand:      randutil.New(seed),
		Clock:     quartz.NewReal(),
		Logger:    s.config.Logger,
		Events:    func(e game.Event, _ game.Side) { result.Count(e) },
		Autopilot: true,
	})
	if err != nil {
		return result, err
	}
	if err := m.Start(); err != nil {
		return result, err
	}

	for m.Phase() == game.PhasePlaying && m.State().Tick < s.config.MaxTicks {
		if m.State().Tick%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return result, err
			}
		}
		m.Step(match.Inputs{})
	}

	state := m.State()
	if err := state.Validate(); err != nil {
		return result, fmt.Errorf("invalid final state: %w", err)
	}
	result.Winner = state.Winner
	result.Score = state.Score
	result.Ticks = state.Tick
	s.logger.Debug("Match finished", "seed", seed, "winner", state.Winner, "score", state.Score, "ticks", state.Tick)
	return result, nil
}

// Report is the machine-readable summary of a batch.
type Report struct {
	Seed       int64      `json:"seed"`
	Matches    int        `json:"matches"`
	LeftWins   int        `json:"leftWins"`
	RightWins  int        `json:"rightWins"`
	Unfinished int        `json:"unfinished"`
	MeanMargin float64    `json:"meanMargin"`
	CI95       [2]float64 `json:"ci95"`
	AvgTicks   float64    `json:"avgTicks"`
	PaddleHits int        `json:"paddleHits"`
	Blasts     int        `json:"blasts"`
	Ghosts     int        `json:"ghosts"`
	Triples    int        `json:"triples"`
}

// NewReport summarizes stats for a batch run from seed.
func NewReport(seed int64, stats *statistics.Statistics) Report {
	low, high := stats.ConfidenceInterval95()
	return Report{
		Seed:       seed,
		Matches:    stats.Matches,
		LeftWins:   stats.Wins[0],
		RightWins:  stats.Wins[1],
		Unfinished: stats.Unfinished,
		MeanMargin: stats.Mean(),
		CI95:       [2]float64{low, high},
		AvgTicks:   stats.AverageTicks(),
		PaddleHits: stats.PaddleHits,
		Blasts:     stats.Blasts,
		Ghosts:     stats.Ghosts,
		Triples:    stats.Triples,
	}
}

// PrintSummary writes a human-readable report of stats to w.
func PrintSummary(w io.Writer, stats *statistics.Statistics) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== RESULTS ===\n")
	fmt.Fprintf(w, "Matches played: %d\n", stats.Matches)
	fmt.Fprintf(w, "Left wins: %d (%.1f%%)\n", stats.Wins[0], stats.WinRate(game.SideLeft)*100)
	fmt.Fprintf(w, "Right wins: %d (%.1f%%)\n", stats.Wins[1], stats.WinRate(game.SideRight)*100)
	if stats.Unfinished > 0 {
		fmt.Fprintf(w, "Unfinished: %d\n", stats.Unfinished)
	}

	fmt.Fprintf(w, "\n=== MARGIN (left - right) ===\n")
	fmt.Fprintf(w, "Mean: %.3f points\n", stats.Mean())
	fmt.Fprintf(w, "Median: %.3f points\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.3f\n", stats.StdDev())
	fmt.Fprintf(w, "95%% CI: [%.3f, %.3f]\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.1f, P25=%.1f, P75=%.1f, P95=%.1f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	fmt.Fprintf(w, "\n=== PACE ===\n")
	fmt.Fprintf(w, "Average length: %.0f ticks (%.1fs)\n", stats.AverageTicks(), stats.AverageTicks()/game.TickRate)
	fmt.Fprintf(w, "Longest: %d ticks\n", stats.LongestTicks)

	fmt.Fprintf(w, "\n=== POWERS ===\n")
	fmt.Fprintf(w, "Paddle hits: %d\n", stats.PaddleHits)
	fmt.Fprintf(w, "Blasts: %d, ghosts: %d, triples: %d\n", stats.Blasts, stats.Ghosts, stats.Triples)
}

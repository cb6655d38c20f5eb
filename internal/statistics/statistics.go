// Package statistics aggregates the outcomes of simulated matches.
package statistics

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/lox/blastpong/internal/game"
)

// MatchResult is the outcome of one match.
type MatchResult struct {
	Seed   int64
	Winner game.Side // SideNone when the tick cap was hit
	Score  game.Score
	Ticks  int64

	PaddleHits int
	Blasts     int
	Ghosts     int
	Triples    int
}

// Margin is the left side's points minus the right side's.
func (r MatchResult) Margin() float64 {
	return float64(r.Score.Left - r.Score.Right)
}

// Count tallies one gameplay event.
func (r *MatchResult) Count(e game.Event) {
	switch e {
	case game.EventPaddleHit:
		r.PaddleHits++
	case game.EventBlast:
		r.Blasts++
	case game.EventGhost:
		r.Ghosts++
	case game.EventTriple:
		r.Triples++
	}
}

// Statistics accumulates match results. Margins are tracked as a running sum
// and sum of squares so means and spreads are cheap to report.
type Statistics struct {
	Matches    int
	Wins       [2]int // indexed left, right
	Unfinished int

	SumMargin  float64
	SumMargin2 float64
	Margins    []float64

	TotalTicks   int64
	LongestTicks int64

	PaddleHits int
	Blasts     int
	Ghosts     int
	Triples    int
}

// Add records one result.
func (s *Statistics) Add(r MatchResult) {
	s.Matches++
	switch r.Winner {
	case game.SideLeft:
		s.Wins[0]++
	case game.SideRight:
		s.Wins[1]++
	default:
		s.Unfinished++
	}

	m := r.Margin()
	s.SumMargin += m
	s.SumMargin2 += m * m
	s.Margins = append(s.Margins, m)

	s.TotalTicks += r.Ticks
	s.LongestTicks = max(s.LongestTicks, r.Ticks)

	s.PaddleHits += r.PaddleHits
	s.Blasts += r.Blasts
	s.Ghosts += r.Ghosts
	s.Triples += r.Triples
}

// WinRate returns the share of matches won by side.
func (s *Statistics) WinRate(side game.Side) float64 {
	if s.Matches == 0 {
		return 0
	}
	switch side {
	case game.SideLeft:
		return float64(s.Wins[0]) / float64(s.Matches)
	case game.SideRight:
		return float64(s.Wins[1]) / float64(s.Matches)
	}
	return 0
}

// Mean returns the average margin.
func (s *Statistics) Mean() float64 {
	if s.Matches == 0 {
		return 0
	}
	return s.SumMargin / float64(s.Matches)
}

// Variance returns the sample variance of the margin.
func (s *Statistics) Variance() float64 {
	if s.Matches < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumMargin2 - float64(s.Matches)*mean*mean) / float64(s.Matches-1)
}

func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistics) StdError() float64 {
	if s.Matches == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Matches))
}

// ConfidenceInterval95 returns the 95% interval around the mean margin.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean, margin := s.Mean(), 1.96*s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median margin.
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile interpolates the margin at p in [0, 1].
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Margins) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Margins)
	slices.Sort(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	if lower+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[lower+1]*weight
}

// AverageTicks returns the mean match length in ticks.
func (s *Statistics) AverageTicks() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.TotalTicks) / float64(s.Matches)
}

// Validate checks that the counters agree with each other.
func (s *Statistics) Validate() error {
	var errs []error
	if s.Matches <= 0 {
		errs = append(errs, fmt.Errorf("invalid match count: %d", s.Matches))
	}
	if got := s.Wins[0] + s.Wins[1] + s.Unfinished; got != s.Matches {
		errs = append(errs, fmt.Errorf("outcomes (%d) do not match match count (%d)", got, s.Matches))
	}
	if len(s.Margins) != s.Matches {
		errs = append(errs, fmt.Errorf("margins (%d) do not match match count (%d)", len(s.Margins), s.Matches))
	}
	var sum float64
	for _, m := range s.Margins {
		sum += m
	}
	if math.Abs(sum-s.SumMargin) > 1e-6 {
		errs = append(errs, fmt.Errorf("margin ledger mismatch: %.6f != %.6f", sum, s.SumMargin))
	}
	return errors.Join(errs...)
}

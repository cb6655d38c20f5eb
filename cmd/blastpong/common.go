package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/muesli/termenv"

	"github.com/lox/blastpong/internal/config"
	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/input"
	"github.com/lox/blastpong/internal/match"
	"github.com/lox/blastpong/internal/posefeed"
	"github.com/lox/blastpong/internal/randutil"
	"github.com/lox/blastpong/internal/tui"
)

// ConfigFlags are shared by every command that reads blastpong.hcl.
type ConfigFlags struct {
	Config   string `short:"c" default:"blastpong.hcl" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	LogFile  string `help:"Log file path (overrides config)"`
	Color    string `help:"Color output: auto, always or never (overrides config)"`
	Seed     int64  `help:"Random seed, 0 for time-based (overrides config)"`
}

// PlayFlags are shared by the interactive commands.
type PlayFlags struct {
	Control  string `help:"Control scheme: keyboard or hand (overrides config)"`
	Pose     string `help:"Hand pose source: '-' for stdin or a file/FIFO path (overrides config)"`
	Mute     bool   `help:"Disable the terminal bell"`
	Debug    bool   `help:"Show the gesture debug line"`
	Headless bool   `help:"Let the computer play the local paddle without a UI"`
}

func (f *ConfigFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if f.LogLevel != "" {
		cfg.UI.LogLevel = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.UI.LogFile = f.LogFile
	}
	if f.Color != "" {
		cfg.UI.Color = f.Color
	}
	if f.Seed != 0 {
		cfg.Match.Seed = f.Seed
	}
	return cfg, nil
}

func (f *PlayFlags) apply(cfg *config.Config) {
	if f.Control != "" {
		cfg.Player.Control = f.Control
	}
	if f.Pose != "" {
		cfg.Player.PoseSource = f.Pose
	}
	if f.Mute {
		cfg.UI.Mute = true
	}
	if f.Debug {
		cfg.UI.ShowDebug = true
	}
}

// setupLogger logs to the configured file since the terminal belongs to the
// UI. The returned closer must be called on exit.
func setupLogger(cfg *config.Config) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(cfg.UI.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	return logger, f, nil
}

func setupColor(mode string) {
	switch mode {
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	case "always":
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// prepare loads, overrides and validates configuration, then sets up logging
// and colors.
func prepare(cf *ConfigFlags, pf *PlayFlags) (*config.Config, *log.Logger, io.Closer, error) {
	cfg, err := cf.load()
	if err != nil {
		return nil, nil, nil, err
	}
	if pf != nil {
		pf.apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer, err := setupLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	setupColor(cfg.UI.Color)
	return cfg, logger, closer, nil
}

// startPoseFeed begins reading poses when hand control is configured. The
// returned source is nil when there is nothing to read. The reader runs
// detached since a blocked read cannot be cancelled.
func startPoseFeed(ctx context.Context, cfg *config.Config, logger *log.Logger) (func() *input.HandPose, error) {
	if cfg.ControlMode() != game.ControlHand || cfg.Player.PoseSource == "" {
		return nil, nil
	}

	var r io.ReadCloser = os.Stdin
	if cfg.Player.PoseSource != "-" {
		f, err := os.Open(cfg.Player.PoseSource)
		if err != nil {
			return nil, fmt.Errorf("opening pose source: %w", err)
		}
		r = f
	}

	feed := posefeed.New(quartz.NewReal(), time.Duration(cfg.Player.PoseMaxAge)*time.Millisecond, logger)
	go func() {
		defer func() { _ = r.Close() }()
		if err := feed.Run(ctx, r); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Pose feed stopped", "error", err)
		}
		received, rejected := feed.Stats()
		logger.Info("Pose feed finished", "received", received, "rejected", rejected)
	}()
	return feed.Latest, nil
}

// newRand returns the match random source for the configured seed.
func newRand(cfg *config.Config, logger *log.Logger) game.Rand {
	seed := randutil.Seed(cfg.Match.Seed)
	logger.Info("Seeding match", "seed", seed)
	return randutil.New(seed)
}

// play runs m until it ends, either in the terminal UI or headless.
// Keys are read from the terminal device when ttyInput is set, leaving stdin
// to the pose feed.
func play(ctx context.Context, m *match.Match, sounds *tui.Sounds, opts tui.Options, headless, ttyInput bool, logger *log.Logger) (match.Status, error) {
	if headless {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		r := &match.Runner{
			Match: m,
			Frame: func(s game.Snapshot, _ match.Status) {
				if s.Phase == game.PhaseFinished {
					cancel()
				}
			},
		}
		status, err := r.Run(ctx)
		final := m.State()
		logger.Info("Headless match over", "winner", final.Winner, "score", final.Score, "ticks", final.Tick)
		fmt.Printf("Final score %d - %d\n", final.Score.Left, final.Score.Right)
		return status, err
	}

	opts.Match = m
	opts.Sounds = sounds
	opts.Bell = os.Stdout
	opts.Logger = logger
	model := tui.New(opts)

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if ttyInput {
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	p := tea.NewProgram(model, progOpts...)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return match.Status{}, fmt.Errorf("running UI: %w", err)
	}
	return model.Status(), nil
}

func reportStatus(status match.Status) {
	if status.Notice != "" {
		fmt.Println(status.Notice)
	}
}

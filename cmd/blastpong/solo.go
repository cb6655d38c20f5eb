package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/coder/quartz"

	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/match"
	"github.com/lox/blastpong/internal/tui"
)

type SoloCmd struct {
	ConfigFlags `embed:""`
	PlayFlags   `embed:""`
}

func (c *SoloCmd) Run() error {
	cfg, logger, closer, err := prepare(&c.ConfigFlags, &c.PlayFlags)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poses, err := startPoseFeed(ctx, cfg, logger)
	if err != nil {
		return err
	}

	sounds := tui.NewSounds(cfg.SoundEnabled() && !c.Headless)
	m, err := match.New(match.Config{
		Role:      game.RoleSinglePlayer,
		Control:   cfg.ControlMode(),
		Rand:      newRand(cfg, logger),
		Clock:     quartz.NewReal(),
		Logger:    logger,
		Events:    sounds.Sink,
		Autopilot: c.Headless,
	})
	if err != nil {
		return err
	}
	if c.Headless {
		if err := m.Start(); err != nil {
			return err
		}
	}

	status, err := play(ctx, m, sounds, tui.Options{
		Pose:      poses,
		ShowDebug: cfg.UI.ShowDebug,
	}, c.Headless, cfg.Player.PoseSource == "-", logger)
	if err != nil {
		return err
	}
	reportStatus(status)
	return nil
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/blastpong/internal/config"
	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/match"
	"github.com/lox/blastpong/internal/netsync"
	"github.com/lox/blastpong/internal/transport"
	"github.com/lox/blastpong/internal/tui"
)

type JoinCmd struct {
	ConfigFlags `embed:""`
	PlayFlags   `embed:""`

	Link string `arg:"" help:"Join link from the host (blastpong://join?...)"`
}

func (c *JoinCmd) Run() error {
	params, err := netsync.ParseJoinLink(c.Link)
	if err != nil {
		return err
	}

	cfg, logger, closer, err := prepare(&c.ConfigFlags, &c.PlayFlags)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	c.adoptLink(cfg, params)
	logger = logger.With("session", params.SessionID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := quartz.NewReal()
	session := netsync.NewSession(game.RoleGuest, params.SessionID, clock, logger)
	session.Connecting()

	dialCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Network.ConnectTimeout)*time.Second)
	conn, err := transport.Dial(dialCtx, params.HostURL, params.SessionID, session, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("joining %s: %w", params.HostURL, err)
	}
	session.Attach(conn)

	poses, err := startPoseFeed(ctx, cfg, logger)
	if err != nil {
		session.Disconnect("error")
		return err
	}

	sounds := tui.NewSounds(cfg.SoundEnabled() && !c.Headless)
	m, err := match.New(match.Config{
		Role:      game.RoleGuest,
		Control:   cfg.ControlMode(),
		Rand:      newRand(cfg, logger),
		Clock:     clock,
		Logger:    logger,
		Events:    sounds.Sink,
		Session:   session,
		Autopilot: c.Headless,
	})
	if err != nil {
		session.Disconnect("error")
		return err
	}

	status, err := play(ctx, m, sounds, tui.Options{
		Pose:      poses,
		ShowDebug: cfg.UI.ShowDebug,
	}, c.Headless, cfg.Player.PoseSource == "-", logger)
	if !status.Ended {
		m.Stop()
	}
	if err != nil {
		return err
	}
	reportStatus(status)
	return nil
}

// adoptLink takes the control mode from the link unless --control was given.
func (c *JoinCmd) adoptLink(cfg *config.Config, params netsync.JoinParams) {
	if c.Control == "" {
		cfg.Player.Control = params.Control.String()
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/match"
	"github.com/lox/blastpong/internal/netsync"
	"github.com/lox/blastpong/internal/sessionid"
	"github.com/lox/blastpong/internal/transport"
	"github.com/lox/blastpong/internal/tui"
)

type HostCmd struct {
	ConfigFlags `embed:""`
	PlayFlags   `embed:""`

	Listen    string `help:"Address to listen on (overrides config)"`
	PublicURL string `name:"public-url" help:"WebSocket URL guests dial (overrides config)"`
}

func (c *HostCmd) Run() error {
	cfg, logger, closer, err := prepare(&c.ConfigFlags, &c.PlayFlags)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	if c.Listen != "" {
		cfg.Network.Listen = c.Listen
	}
	if c.PublicURL != "" {
		cfg.Network.PublicURL = c.PublicURL
	}

	id, err := sessionid.New()
	if err != nil {
		return fmt.Errorf("creating session id: %w", err)
	}
	logger = logger.With("session", id)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clock := quartz.NewReal()
	session := netsync.NewSession(game.RoleHost, id, clock, logger)
	host := transport.NewHost(id, session, logger)
	session.Connecting()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return host.Listen(gctx, cfg.Network.Listen, func(addr net.Addr) {
			logger.Info("Listening", "addr", addr.String())
		})
	})

	sounds := tui.NewSounds(cfg.SoundEnabled() && !c.Headless)
	m, err := match.New(match.Config{
		Role:      game.RoleHost,
		Control:   cfg.ControlMode(),
		Rand:      newRand(cfg, logger),
		Clock:     clock,
		Logger:    logger,
		Events:    sounds.Sink,
		Session:   session,
		Autopilot: c.Headless,
	})
	if err != nil {
		return err
	}

	g.Go(func() error {
		conn, err := host.Accept(gctx)
		if err != nil {
			return err
		}
		session.Attach(conn)
		return nil
	})

	link := netsync.BuildJoinLink(netsync.JoinParams{
		HostURL:   cfg.Network.PublicURL,
		SessionID: id,
		Control:   cfg.ControlMode(),
	})
	if c.Headless {
		fmt.Println(link)
	}

	poses, err := startPoseFeed(ctx, cfg, logger)
	if err != nil {
		return err
	}

	status, err := play(gctx, m, sounds, tui.Options{
		Pose:      poses,
		ShowDebug: cfg.UI.ShowDebug,
		JoinLink:  link,
	}, c.Headless, cfg.Player.PoseSource == "-", logger)
	if !status.Ended {
		m.Stop()
	}

	cancel()
	if werr := g.Wait(); werr != nil && !errors.Is(werr, context.Canceled) && err == nil {
		err = werr
	}
	if err != nil {
		return err
	}
	reportStatus(status)
	return nil
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blastpong/internal/config"
	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/netsync"
)

func TestCLIParses(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)

	_, err = parser.Parse([]string{"host", "--listen", ":9000", "--control", "hand", "--headless"})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cli.Host.Listen)
	assert.Equal(t, "hand", cli.Host.Control)
	assert.True(t, cli.Host.Headless)
	assert.Equal(t, "blastpong.hcl", cli.Host.Config)

	_, err = parser.Parse([]string{"sim", "-n", "10", "-p", "2", "--seed", "42"})
	require.NoError(t, err)
	assert.Equal(t, 10, cli.Sim.Matches)
	assert.Equal(t, 2, cli.Sim.Parallel)
	assert.Equal(t, int64(42), cli.Sim.Seed)
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blastpong.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
player {
  control = "hand"
}
ui {
  log_level = "debug"
}
`), 0o644))

	cf := ConfigFlags{Config: path, LogFile: filepath.Join(dir, "x.log"), Seed: 9}
	cfg, err := cf.load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.UI.LogLevel)
	assert.Equal(t, filepath.Join(dir, "x.log"), cfg.UI.LogFile)
	assert.Equal(t, int64(9), cfg.Match.Seed)

	pf := PlayFlags{Control: "keyboard", Mute: true, Debug: true}
	pf.apply(cfg)
	assert.Equal(t, game.ControlKeyboard, cfg.ControlMode())
	assert.False(t, cfg.SoundEnabled())
	assert.True(t, cfg.UI.ShowDebug)
	require.NoError(t, cfg.Validate())
}

func TestPrepareRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cf := ConfigFlags{Config: filepath.Join(dir, "missing.hcl"), LogFile: filepath.Join(dir, "x.log")}
	pf := PlayFlags{Control: "telepathy"}

	_, _, _, err := prepare(&cf, &pf)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestLinkBuild(t *testing.T) {
	c := LinkCmd{Host: "ws://example.com:7777/play", Control: "hand"}
	link, err := c.build()
	require.NoError(t, err)

	p, err := netsync.ParseJoinLink(link)
	require.NoError(t, err)
	assert.Equal(t, "ws://example.com:7777/play", p.HostURL)
	assert.Equal(t, game.ControlHand, p.Control)

	c.Session = p.SessionID
	again, err := c.build()
	require.NoError(t, err)
	assert.Equal(t, link, again)

	_, err = (&LinkCmd{Host: "http://nope", Control: "keyboard"}).build()
	assert.ErrorIs(t, err, netsync.ErrInvalidJoinLink)

	_, err = (&LinkCmd{Host: "ws://h/play", Control: "keyboard", Session: "short"}).build()
	assert.Error(t, err)
}

func TestJoinControlMode(t *testing.T) {
	params := netsync.JoinParams{HostURL: "ws://h/play", SessionID: "x", Control: game.ControlHand}

	t.Run("link decides without a flag", func(t *testing.T) {
		cfg := config.Default()
		(&JoinCmd{}).adoptLink(cfg, params)
		assert.Equal(t, game.ControlHand, cfg.ControlMode())
	})

	t.Run("flag beats the link", func(t *testing.T) {
		cmd := &JoinCmd{PlayFlags: PlayFlags{Control: "keyboard"}}
		cfg := config.Default()
		cmd.PlayFlags.apply(cfg)
		cmd.adoptLink(cfg, params)
		assert.Equal(t, game.ControlKeyboard, cfg.ControlMode())
	})
}

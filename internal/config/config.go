// Package config loads blastpong.hcl.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/blastpong/internal/game"
)

// DefaultFile is looked up in the working directory.
const DefaultFile = "blastpong.hcl"

// Config is the complete configuration. Every block is optional.
type Config struct {
	Network *NetworkSettings `hcl:"network,block"`
	Player  *PlayerSettings  `hcl:"player,block"`
	UI      *UISettings      `hcl:"ui,block"`
	Match   *MatchSettings   `hcl:"match,block"`
}

// NetworkSettings configures hosting and joining.
type NetworkSettings struct {
	Listen         string `hcl:"listen,optional"`
	PublicURL      string `hcl:"public_url,optional"`
	ConnectTimeout int    `hcl:"connect_timeout,optional"`
}

// PlayerSettings configures local control.
type PlayerSettings struct {
	Control    string `hcl:"control,optional"`
	PoseSource string `hcl:"pose_source,optional"`
	PoseMaxAge int    `hcl:"pose_max_age_ms,optional"`
}

// UISettings configures the terminal front end and logging.
type UISettings struct {
	LogLevel  string `hcl:"log_level,optional"`
	LogFile   string `hcl:"log_file,optional"`
	Mute      bool   `hcl:"mute,optional"`
	ShowDebug bool   `hcl:"show_debug,optional"`
	Color     string `hcl:"color,optional"`
}

// MatchSettings configures randomness and batch simulation.
type MatchSettings struct {
	Seed        int64 `hcl:"seed,optional"`
	SimMatches  int   `hcl:"sim_matches,optional"`
	SimParallel int   `hcl:"sim_parallel,optional"`
	MaxTicks    int   `hcl:"max_ticks,optional"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Network: &NetworkSettings{
			Listen:         ":7777",
			PublicURL:      "ws://localhost:7777/play",
			ConnectTimeout: 10,
		},
		Player: &PlayerSettings{
			Control:    game.ControlKeyboard.String(),
			PoseMaxAge: 250,
		},
		UI: &UISettings{
			LogLevel: "warn",
			LogFile:  "blastpong.log",
			Color:    "auto",
		},
		Match: &MatchSettings{
			SimMatches:  100,
			SimParallel: 4,
			MaxTicks:    100_000,
		},
	}
}

// Load reads filename. A missing file yields the defaults, and any field the
// file leaves out keeps its default.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.fillDefaults(Default())
	return &cfg, nil
}

func (c *Config) fillDefaults(d *Config) {
	if c.Network == nil {
		c.Network = d.Network
	}
	if c.Network.Listen == "" {
		c.Network.Listen = d.Network.Listen
	}
	if c.Network.PublicURL == "" {
		c.Network.PublicURL = d.Network.PublicURL
	}
	if c.Network.ConnectTimeout == 0 {
		c.Network.ConnectTimeout = d.Network.ConnectTimeout
	}

	if c.Player == nil {
		c.Player = d.Player
	}
	if c.Player.Control == "" {
		c.Player.Control = d.Player.Control
	}
	if c.Player.PoseMaxAge == 0 {
		c.Player.PoseMaxAge = d.Player.PoseMaxAge
	}

	if c.UI == nil {
		c.UI = d.UI
	}
	if c.UI.LogLevel == "" {
		c.UI.LogLevel = d.UI.LogLevel
	}
	if c.UI.LogFile == "" {
		c.UI.LogFile = d.UI.LogFile
	}
	if c.UI.Color == "" {
		c.UI.Color = d.UI.Color
	}

	if c.Match == nil {
		c.Match = d.Match
	}
	if c.Match.SimMatches == 0 {
		c.Match.SimMatches = d.Match.SimMatches
	}
	if c.Match.SimParallel == 0 {
		c.Match.SimParallel = d.Match.SimParallel
	}
	if c.Match.MaxTicks == 0 {
		c.Match.MaxTicks = d.Match.MaxTicks
	}
}

// Validate checks the configuration for values the game cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if _, err := game.ParseControlMode(c.Player.Control); err != nil {
		errs = append(errs, err)
	}
	if c.Player.PoseMaxAge < 0 {
		errs = append(errs, fmt.Errorf("pose_max_age_ms must not be negative"))
	}

	if u, err := url.Parse(c.Network.PublicURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		errs = append(errs, fmt.Errorf("public_url must be a ws:// or wss:// URL, got %q", c.Network.PublicURL))
	}
	if c.Network.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("connect_timeout must be positive"))
	}

	if _, err := log.ParseLevel(c.UI.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	switch c.UI.Color {
	case "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("color must be auto, always or never, got %q", c.UI.Color))
	}

	if c.Match.SimMatches <= 0 || c.Match.SimParallel <= 0 || c.Match.MaxTicks <= 0 {
		errs = append(errs, fmt.Errorf("sim_matches, sim_parallel and max_ticks must be positive"))
	}

	return errors.Join(errs...)
}

// ControlMode returns the parsed player control mode.
func (c *Config) ControlMode() game.ControlMode {
	mode, _ := game.ParseControlMode(c.Player.Control)
	return mode
}

// SoundEnabled reports whether paddle and win events should make noise.
func (c *Config) SoundEnabled() bool {
	return !c.UI.Mute
}

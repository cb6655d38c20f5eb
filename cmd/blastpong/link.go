package main

import (
	"fmt"

	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/netsync"
	"github.com/lox/blastpong/internal/sessionid"
)

type LinkCmd struct {
	Host    string `default:"ws://localhost:7777/play" help:"WebSocket URL of the host"`
	Session string `help:"Session id (generated when empty)"`
	Control string `default:"keyboard" help:"Control scheme: keyboard or hand"`
	Parse   string `help:"Decode an existing link instead of building one"`
}

func (c *LinkCmd) Run() error {
	if c.Parse != "" {
		p, err := netsync.ParseJoinLink(c.Parse)
		if err != nil {
			return err
		}
		fmt.Printf("host:    %s\nsession: %s\ncontrol: %s\n", p.HostURL, p.SessionID, p.Control)
		return nil
	}

	link, err := c.build()
	if err != nil {
		return err
	}
	fmt.Println(link)
	return nil
}

func (c *LinkCmd) build() (string, error) {
	control, err := game.ParseControlMode(c.Control)
	if err != nil {
		return "", err
	}
	id := c.Session
	if id == "" {
		if id, err = sessionid.New(); err != nil {
			return "", err
		}
	}
	if err := sessionid.Validate(id); err != nil {
		return "", err
	}

	link := netsync.BuildJoinLink(netsync.JoinParams{HostURL: c.Host, SessionID: id, Control: control})
	if _, err := netsync.ParseJoinLink(link); err != nil {
		return "", err
	}
	return link, nil
}

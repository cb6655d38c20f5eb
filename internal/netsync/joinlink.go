package netsync

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/lox/blastpong/internal/game"
	"github.com/lox/blastpong/internal/sessionid"
)

// JoinScheme is the URL scheme of shareable join links.
const JoinScheme = "blastpong"

var ErrInvalidJoinLink = errors.New("invalid join link")

// JoinParams is what a guest needs to reach a host.
type JoinParams struct {
	HostURL   string
	SessionID string
	Control   game.ControlMode
}

// BuildJoinLink renders p as blastpong://join?host=...&session=...&control=...
func BuildJoinLink(p JoinParams) string {
	q := url.Values{}
	q.Set("host", p.HostURL)
	q.Set("session", p.SessionID)
	q.Set("control", p.Control.String())
	u := url.URL{Scheme: JoinScheme, Host: "join", RawQuery: q.Encode()}
	return u.String()
}

// ParseJoinLink is the inverse of BuildJoinLink. The control parameter is
// optional and defaults to keyboard.
func ParseJoinLink(link string) (JoinParams, error) {
	u, err := url.Parse(link)
	if err != nil {
		return JoinParams{}, fmt.Errorf("%w: %w", ErrInvalidJoinLink, err)
	}
	if u.Scheme != JoinScheme || u.Host != "join" {
		return JoinParams{}, fmt.Errorf("%w: expected %s://join, got %s://%s", ErrInvalidJoinLink, JoinScheme, u.Scheme, u.Host)
	}

	q := u.Query()
	p := JoinParams{HostURL: q.Get("host"), SessionID: q.Get("session")}

	host, err := url.Parse(p.HostURL)
	if err != nil || (host.Scheme != "ws" && host.Scheme != "wss") || host.Host == "" {
		return JoinParams{}, fmt.Errorf("%w: host must be a ws:// or wss:// URL, got %q", ErrInvalidJoinLink, p.HostURL)
	}
	if err := sessionid.Validate(p.SessionID); err != nil {
		return JoinParams{}, fmt.Errorf("%w: %w", ErrInvalidJoinLink, err)
	}
	if p.Control, err = game.ParseControlMode(q.Get("control")); err != nil {
		return JoinParams{}, fmt.Errorf("%w: %w", ErrInvalidJoinLink, err)
	}
	return p, nil
}

package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Dial connects to the host at hostURL for sessionID.
func Dial(ctx context.Context, hostURL, sessionID string, handler Handler, logger *log.Logger) (*Conn, error) {
	u, err := url.Parse(hostURL)
	if err != nil {
		return nil, fmt.Errorf("parse host url: %w", err)
	}
	q := u.Query()
	q.Set("session", sessionID)
	u.RawQuery = q.Encode()

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusConflict:
				return nil, ErrPeerBusy
			case http.StatusForbidden:
				return nil, ErrSessionMismatch
			}
		}
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}

	c := newConn(ws, handler, logger.WithPrefix("guest"))
	c.logger.Info("Connected to host", "url", u.Redacted())
	c.start()
	return c, nil
}

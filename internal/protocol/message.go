// Package protocol defines the messages exchanged between host and guest.
//
// Every frame on the wire is a JSON Message envelope whose Data holds one
// Payload variant. The set of variants is closed.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType identifies the payload carried by a Message.
type MessageType string

const (
	TypePaddleUpdate     MessageType = "paddle_update"
	TypeGameState        MessageType = "game_state"
	TypeLobbySync        MessageType = "lobby_sync"
	TypeLobbyPing        MessageType = "lobby_ping"
	TypeDisconnectNotice MessageType = "disconnect_notice"
	TypeResetRequest     MessageType = "reset_request"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

var (
	ErrUnknownType  = errors.New("protocol: unknown message type")
	ErrEmptyMessage = errors.New("protocol: empty message")
)

// Message is the envelope for every frame.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage wraps payload in an envelope stamped with now.
func NewMessage(payload Payload, now time.Time) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", payload.Type(), err)
	}
	return &Message{
		Type:      payload.Type(),
		Data:      data,
		Timestamp: now,
	}, nil
}

// Marshal encodes the envelope for the wire.
func Marshal(m *Message) ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal decodes an envelope. The payload is left raw.
func Unmarshal(b []byte) (*Message, error) {
	if len(b) == 0 {
		return nil, ErrEmptyMessage
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("decode envelope: %w", ErrUnknownType)
	}
	return &m, nil
}

// Decode returns the normalized payload carried by m. Fields missing from
// the data take their zero value; a GameState that should keep previous
// values for missing fields goes through DecodeGameStateOnto instead.
func (m *Message) Decode() (Payload, error) {
	var p Payload
	switch m.Type {
	case TypePaddleUpdate:
		p = &PaddleUpdate{}
	case TypeGameState:
		p = &GameState{}
	case TypeLobbySync:
		p = &LobbySync{}
	case TypeLobbyPing:
		p = &LobbyPing{}
	case TypeDisconnectNotice:
		p = &DisconnectNotice{}
	case TypeResetRequest:
		p = &ResetRequest{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}

	if err := unmarshalData(m.Data, p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.Type, err)
	}
	p.normalize()
	return p, nil
}

// DecodeGameStateOnto decodes a game_state message on top of prev, so any
// field the sender omitted keeps its previous value.
func DecodeGameStateOnto(prev GameState, m *Message) (GameState, error) {
	if m.Type != TypeGameState {
		return prev, fmt.Errorf("%w: expected %s, got %q", ErrUnknownType, TypeGameState, m.Type)
	}
	next := prev
	next.Decoys = append([]DecoyState(nil), prev.Decoys...)
	if err := unmarshalData(m.Data, &next); err != nil {
		return prev, fmt.Errorf("decode %s: %w", m.Type, err)
	}
	next.normalize()
	return next, nil
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

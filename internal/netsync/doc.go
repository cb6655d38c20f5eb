// Package netsync keeps a host and a guest in agreement about one match.
//
// The host owns the authoritative MatchState and sends a full game_state
// snapshot every tick; the guest sends its paddle and control input every
// tick and overwrites its view with whatever snapshot arrived last. A Session
// tracks the connection, the newest inbound values and the liveness timer.
// Inbound messages are written by the transport goroutine and read by the
// tick under the session mutex.
package netsync

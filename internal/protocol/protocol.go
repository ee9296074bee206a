// Package protocol defines the JSON message schema exchanged with
// participants and validates everything a client sends before it can
// reach the match core. Invalid shapes become error values here, never
// crashes further in.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/botduel/botduel/internal/game"
)

// MaxMessageSize bounds any single client message.
const MaxMessageSize = 4096

// Message type tags.
const (
	TypeLogin          = "login"
	TypeBeginMatch     = "begin_match"
	TypeSubmitTurn     = "submit_turn"
	TypeMatchUpdate    = "match_update"
	TypeMatchOver      = "match_over"
	TypeInvalidRequest = "invalid_request"
)

// Login is the first client message on a fresh connection.
type Login struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// LoginReply acknowledges a login attempt.
type LoginReply struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
}

// UnitState is one unit's visible state on the wire.
type UnitState struct {
	Health int `json:"health"`
	Ammo   int `json:"ammo"`
}

// BeginMatch announces a new match to one side. Bots is always the
// receiver's own squad, OpBots the opponent's.
type BeginMatch struct {
	Type     string      `json:"type"`
	MatchID  string      `json:"match_id"`
	Opponent string      `json:"opponent"`
	Bots     []UnitState `json:"bots"`
	OpBots   []UnitState `json:"op_bots"`
}

// SubmitTurn is a participant's actions for the current round.
type SubmitTurn struct {
	Type    string        `json:"type"`
	MatchID string        `json:"match_id"`
	Round   int           `json:"round"`
	Actions []game.Action `json:"actions"`
}

// MatchUpdate broadcasts the state after a resolved round, from the
// receiver's point of view.
type MatchUpdate struct {
	Type      string             `json:"type"`
	MatchID   string             `json:"match_id"`
	Round     int                `json:"round"`
	Bots      []UnitState        `json:"bots"`
	OpBots    []UnitState        `json:"op_bots"`
	Actions   []game.Action      `json:"actions"`
	OpActions []game.Action      `json:"op_actions"`
	Errors    []game.ActionError `json:"errors,omitempty"`
}

// MatchOver is the final message of a match. Winner is empty for a
// tie or an abandoned match; Faulted lists participants whose timeout
// or disconnect ended the match.
type MatchOver struct {
	Type    string        `json:"type"`
	MatchID string        `json:"match_id"`
	Winner  string        `json:"winner,omitempty"`
	Tie     bool          `json:"tie"`
	Faulted []string      `json:"faulted,omitempty"`
	History []game.Record `json:"history"`
}

// InvalidRequest rejects a malformed client message. The round is not
// consumed; the client may try again.
type InvalidRequest struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

// Invalid builds an invalid_request reply.
func Invalid(reason string) InvalidRequest {
	return InvalidRequest{Type: TypeInvalidRequest, Reason: reason}
}

// States converts a squad for the wire.
func States(s game.Squad) []UnitState {
	out := make([]UnitState, len(s))
	for i, u := range s {
		out[i] = UnitState{Health: u.Health, Ammo: u.Ammo}
	}
	return out
}

// ParseLogin validates a raw message as a login.
func ParseLogin(data []byte) (string, error) {
	if len(data) > MaxMessageSize {
		return "", fmt.Errorf("message exceeds %d bytes", MaxMessageSize)
	}
	var msg Login
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("malformed login: %w", err)
	}
	if msg.Type != TypeLogin {
		return "", fmt.Errorf("expected %s, got %q", TypeLogin, msg.Type)
	}
	name := strings.TrimSpace(msg.User)
	if name == "" {
		return "", fmt.Errorf("empty user name")
	}
	return name, nil
}

// ParseTurn validates a raw message as the turn submission for the
// given match and round. Any failure is a protocol error: the caller
// replies invalid_request and waits for a fresh attempt.
func ParseTurn(data []byte, matchID string, round int) ([]game.Action, error) {
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("message exceeds %d bytes", MaxMessageSize)
	}
	var msg SubmitTurn
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("malformed turn: %w", err)
	}
	if msg.Type != TypeSubmitTurn {
		return nil, fmt.Errorf("expected %s, got %q", TypeSubmitTurn, msg.Type)
	}
	if msg.MatchID != matchID {
		return nil, fmt.Errorf("turn for wrong match %q", msg.MatchID)
	}
	if msg.Round != round {
		return nil, fmt.Errorf("turn for round %d, expected %d", msg.Round, round)
	}
	if len(msg.Actions) != game.NumUnits {
		return nil, fmt.Errorf("expected %d actions, got %d", game.NumUnits, len(msg.Actions))
	}
	for i, a := range msg.Actions {
		switch a.Kind {
		case game.ActionNone, game.ActionLoad, game.ActionLaunch, game.ActionShield:
		default:
			return nil, fmt.Errorf("unit %d: unknown action kind %q", i, a.Kind)
		}
	}
	return msg.Actions, nil
}

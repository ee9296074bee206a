// Package session drives a single match between two remote
// participants: lock acquisition, handshake, lock-step turn
// collection with timeouts, rule resolution and result broadcast.
// Transport faults never escape; they become match outcomes.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/botduel/botduel/internal/game"
	"github.com/botduel/botduel/internal/player"
	"github.com/botduel/botduel/internal/protocol"
	"github.com/botduel/botduel/internal/stats"
)

// DefaultTurnTimeout bounds how long each side gets to submit a turn.
const DefaultTurnTimeout = 3 * time.Second

// FaultKind distinguishes how a participant failed. The scheduler
// retries timeouts but never disconnects.
type FaultKind string

const (
	FaultTimeout    FaultKind = "timeout"
	FaultDisconnect FaultKind = "disconnect"
)

// Fault is one participant's match-ending failure.
type Fault struct {
	Player string
	Kind   FaultKind
}

// Outcome is what a finished match reports back to its scheduler.
type Outcome struct {
	Winner string // empty when nobody won
	Faults []Fault
}

// FaultedNames lists the players recorded at fault.
func (o Outcome) FaultedNames() []string {
	if len(o.Faults) == 0 {
		return nil
	}
	names := make([]string, len(o.Faults))
	for i, f := range o.Faults {
		names[i] = f.Player
	}
	return names
}

// TimeoutOnly reports whether the match failed solely on timeouts,
// which makes it eligible for one retry.
func (o Outcome) TimeoutOnly() bool {
	if len(o.Faults) == 0 {
		return false
	}
	for _, f := range o.Faults {
		if f.Kind != FaultTimeout {
			return false
		}
	}
	return true
}

// Options tunes a single match run.
type Options struct {
	TurnTimeout time.Duration
	Logger      zerolog.Logger
	Stats       *stats.Daily // optional
}

// Run plays one full match between a and b and returns its outcome.
// Both players' match locks are taken in name order, so controllers
// racing over a shared player queue up instead of deadlocking, and
// are released on every exit path.
func Run(a, b *player.Player, opts Options) (out Outcome) {
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = DefaultTurnTimeout
	}

	first, second := a, b
	if b.Name < a.Name {
		first, second = b, a
	}
	first.BeginMatch()
	second.BeginMatch()
	defer first.EndMatch()
	defer second.EndMatch()

	m := game.NewMatch(uuid.NewString())
	log := opts.Logger.With().
		Str("match", m.ID).
		Str("side_a", a.Name).
		Str("side_b", b.Name).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("match aborted by internal error")
			out = Outcome{}
		}
	}()

	log.Info().Msg("match starting")
	out = play(m, a, b, opts, log)

	if opts.Stats != nil {
		opts.Stats.ObserveMatch(a.Name, b.Name, m)
	}
	evt := log.Info().Int("rounds", m.Round).Str("status", m.Status.String())
	if out.Winner != "" {
		evt = evt.Str("winner", out.Winner)
	}
	if names := out.FaultedNames(); names != nil {
		evt = evt.Strs("faulted", names)
	}
	evt.Msg("match finished")
	return out
}

func play(m *game.Match, a, b *player.Player, opts Options, log zerolog.Logger) Outcome {
	// Handshake. A side we cannot even greet ends the match before it
	// starts: no winner, that side at fault.
	if err := a.Conn.Send(beginMsg(m, b.Name, m.A, m.B)); err != nil {
		log.Warn().Err(err).Str("player", a.Name).Msg("handshake failed")
		sendOver(b, m, "", []string{a.Name})
		return Outcome{Faults: []Fault{{Player: a.Name, Kind: FaultDisconnect}}}
	}
	if err := b.Conn.Send(beginMsg(m, a.Name, m.B, m.A)); err != nil {
		log.Warn().Err(err).Str("player", b.Name).Msg("handshake failed")
		sendOver(a, m, "", []string{b.Name})
		return Outcome{Faults: []Fault{{Player: b.Name, Kind: FaultDisconnect}}}
	}

	for m.Status == game.InProgress {
		round := m.Round
		chA := collectTurn(a, m.ID, round, opts.TurnTimeout, log)
		chB := collectTurn(b, m.ID, round, opts.TurnTimeout, log)
		resA := <-chA
		resB := <-chB

		if resA.fault != "" || resB.fault != "" {
			return settleFaults(m, a, b, resA.fault, resB.fault, log)
		}

		errsA, errsB := m.Advance(resA.actions, resB.actions)

		updA := updateMsg(m, round, m.A, m.B, resA.actions, resB.actions, errsA)
		if err := a.Conn.Send(updA); err != nil {
			return settleBroadcastFault(m, a, b, winnerName(m, a, b), log, err)
		}
		updB := updateMsg(m, round, m.B, m.A, resB.actions, resA.actions, errsB)
		if err := b.Conn.Send(updB); err != nil {
			return settleBroadcastFault(m, b, a, winnerName(m, a, b), log, err)
		}
	}

	winner := winnerName(m, a, b)
	sendOver(a, m, winner, nil)
	sendOver(b, m, winner, nil)
	return Outcome{Winner: winner}
}

// settleFaults converts turn-collection failures into the final
// outcome without invoking the engine.
func settleFaults(m *game.Match, a, b *player.Player, faultA, faultB FaultKind, log zerolog.Logger) Outcome {
	switch {
	case faultA != "" && faultB != "":
		log.Warn().Msg("both sides faulted; match abandoned")
		out := Outcome{Faults: []Fault{
			{Player: a.Name, Kind: faultA},
			{Player: b.Name, Kind: faultB},
		}}
		sendOver(a, m, "", out.FaultedNames())
		sendOver(b, m, "", out.FaultedNames())
		return out
	case faultA != "":
		log.Warn().Str("player", a.Name).Str("kind", string(faultA)).Msg("side faulted; opponent wins")
		sendOver(a, m, b.Name, []string{a.Name})
		sendOver(b, m, b.Name, []string{a.Name})
		return Outcome{Winner: b.Name, Faults: []Fault{{Player: a.Name, Kind: faultA}}}
	default:
		log.Warn().Str("player", b.Name).Str("kind", string(faultB)).Msg("side faulted; opponent wins")
		sendOver(a, m, a.Name, []string{b.Name})
		sendOver(b, m, a.Name, []string{b.Name})
		return Outcome{Winner: a.Name, Faults: []Fault{{Player: b.Name, Kind: faultB}}}
	}
}

// settleBroadcastFault handles a failed state broadcast to faulted.
// The resolution already applied stays applied; if the engine had
// already decided the match its verdict stands, otherwise the
// reachable side wins.
func settleBroadcastFault(m *game.Match, faulted, other *player.Player, engineWinner string, log zerolog.Logger, err error) Outcome {
	log.Warn().Err(err).Str("player", faulted.Name).Msg("broadcast failed")
	winner := other.Name
	if m.Status != game.InProgress {
		winner = engineWinner
	}
	sendOver(other, m, winner, []string{faulted.Name})
	return Outcome{Winner: winner, Faults: []Fault{{Player: faulted.Name, Kind: FaultDisconnect}}}
}

type turnResult struct {
	actions []game.Action
	fault   FaultKind
}

// collectTurn waits for one side's submission for the given round,
// replying invalid_request and listening again on malformed input
// until the deadline passes. Each side has its own deadline; one
// side's rejections never eat into the other's time.
func collectTurn(p *player.Player, matchID string, round int, timeout time.Duration, log zerolog.Logger) <-chan turnResult {
	ch := make(chan turnResult, 1)
	go func() {
		deadline := time.Now().Add(timeout)
		for {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				ch <- turnResult{fault: FaultTimeout}
				return
			}
			data, err := p.Conn.Receive(remaining)
			if err != nil {
				if errors.Is(err, player.ErrTimeout) {
					ch <- turnResult{fault: FaultTimeout}
				} else {
					ch <- turnResult{fault: FaultDisconnect}
				}
				return
			}
			acts, perr := protocol.ParseTurn(data, matchID, round)
			if perr != nil {
				log.Debug().Err(perr).Str("player", p.Name).Msg("rejecting turn")
				if serr := p.Conn.Send(protocol.Invalid(perr.Error())); serr != nil {
					ch <- turnResult{fault: FaultDisconnect}
					return
				}
				continue
			}
			ch <- turnResult{actions: acts}
			return
		}
	}()
	return ch
}

func beginMsg(m *game.Match, opponent string, mine, theirs game.Squad) protocol.BeginMatch {
	return protocol.BeginMatch{
		Type:     protocol.TypeBeginMatch,
		MatchID:  m.ID,
		Opponent: opponent,
		Bots:     protocol.States(mine),
		OpBots:   protocol.States(theirs),
	}
}

func updateMsg(m *game.Match, round int, mine, theirs game.Squad, myActs, opActs []game.Action, myErrs []game.ActionError) protocol.MatchUpdate {
	return protocol.MatchUpdate{
		Type:      protocol.TypeMatchUpdate,
		MatchID:   m.ID,
		Round:     round,
		Bots:      protocol.States(mine),
		OpBots:    protocol.States(theirs),
		Actions:   myActs,
		OpActions: opActs,
		Errors:    myErrs,
	}
}

// sendOver delivers the final message. Failures are ignored: a side
// that cannot hear the result has already left.
func sendOver(p *player.Player, m *game.Match, winner string, faulted []string) {
	_ = p.Conn.Send(protocol.MatchOver{
		Type:    protocol.TypeMatchOver,
		MatchID: m.ID,
		Winner:  winner,
		Tie:     winner == "" && m.Status == game.Tie,
		Faulted: faulted,
		History: m.History,
	})
}

func winnerName(m *game.Match, a, b *player.Player) string {
	switch m.Status {
	case game.SideAWins:
		return a.Name
	case game.SideBWins:
		return b.Name
	default:
		return ""
	}
}

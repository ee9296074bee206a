package sched

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botduel/botduel/internal/player"
	"github.com/botduel/botduel/internal/session"
)

func makePlayers(n int) []*player.Player {
	out := make([]*player.Player, n)
	for i := range out {
		out[i] = player.New(fmt.Sprintf("p%02d", i), nil)
	}
	return out
}

// countingRunner records every pairing it is asked to play.
type countingRunner struct {
	mu      sync.Mutex
	matches map[string]int
	outcome func(a, b *player.Player) session.Outcome
}

func newCountingRunner(outcome func(a, b *player.Player) session.Outcome) *countingRunner {
	if outcome == nil {
		outcome = func(a, b *player.Player) session.Outcome {
			return session.Outcome{Winner: a.Name}
		}
	}
	return &countingRunner{matches: make(map[string]int), outcome: outcome}
}

func (r *countingRunner) run(a, b *player.Player) session.Outcome {
	key := a.Name + "/" + b.Name
	if b.Name < a.Name {
		key = b.Name + "/" + a.Name
	}
	r.mu.Lock()
	r.matches[key]++
	r.mu.Unlock()
	return r.outcome(a, b)
}

func TestRoundRobinPlaysEveryPairOnce(t *testing.T) {
	players := makePlayers(5)
	r := newCountingRunner(nil)

	results := RoundRobin(players, r.run)

	require.Len(t, results, 10) // 5*4/2
	assert.Len(t, r.matches, 10)
	for pair, n := range r.matches {
		assert.Equal(t, 1, n, "pair %s played more than once", pair)
	}
}

func TestRoundRobinTooFewPlayers(t *testing.T) {
	r := newCountingRunner(nil)
	assert.Empty(t, RoundRobin(makePlayers(1), r.run))
	assert.Empty(t, RoundRobin(nil, r.run))
}

func TestAutoscrimEvenCount(t *testing.T) {
	players := makePlayers(6)
	r := newCountingRunner(nil)

	results := Autoscrim(players, r.run, 0, zerolog.Nop())

	require.Len(t, results, 3)
	booked := make(map[string]int)
	for _, res := range results {
		booked[res.A]++
		booked[res.B]++
	}
	require.Len(t, booked, 6, "every player gets exactly one match")
	for name, n := range booked {
		assert.Equal(t, 1, n, "player %s double-booked", name)
	}
}

func TestAutoscrimOddCountBooksLeftover(t *testing.T) {
	players := makePlayers(5)
	r := newCountingRunner(nil)

	results := Autoscrim(players, r.run, 0, zerolog.Nop())

	require.Len(t, results, 3)
	booked := make(map[string]int)
	for _, res := range results {
		booked[res.A]++
		booked[res.B]++
	}
	assert.Len(t, booked, 5, "every player appears")

	var doubles int
	for _, n := range booked {
		if n == 2 {
			doubles++
		}
	}
	assert.Equal(t, 1, doubles, "exactly one player is double-booked against the leftover")
}

func TestAutoscrimTooFewPlayers(t *testing.T) {
	r := newCountingRunner(nil)
	assert.Nil(t, Autoscrim(makePlayers(1), r.run, 0, zerolog.Nop()))
}

func TestAutoscrimRetriesTimeoutOnce(t *testing.T) {
	players := makePlayers(2)
	var calls int
	r := newCountingRunner(func(a, b *player.Player) session.Outcome {
		calls++
		return session.Outcome{
			Winner: "",
			Faults: []session.Fault{{Player: a.Name, Kind: session.FaultTimeout}},
		}
	})

	results := Autoscrim(players, r.run, 0, zerolog.Nop())

	require.Len(t, results, 1)
	assert.Equal(t, 2, calls, "timed-out match retried exactly once")
	assert.True(t, results[0].Outcome.TimeoutOnly())
}

func TestAutoscrimNoRetryOnDisconnect(t *testing.T) {
	players := makePlayers(2)
	var calls int
	r := newCountingRunner(func(a, b *player.Player) session.Outcome {
		calls++
		return session.Outcome{
			Winner: b.Name,
			Faults: []session.Fault{{Player: a.Name, Kind: session.FaultDisconnect}},
		}
	})

	Autoscrim(players, r.run, 0, zerolog.Nop())

	assert.Equal(t, 1, calls)
}

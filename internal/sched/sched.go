// Package sched pairs online players into matches: the periodic
// autoscrim shuffle and the all-pairs round-robin tournament. It
// decides who plays whom; running the match belongs to the session
// layer behind the Runner.
package sched

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/botduel/botduel/internal/player"
	"github.com/botduel/botduel/internal/session"
)

// Runner plays one match and reports its outcome.
type Runner func(a, b *player.Player) session.Outcome

// Result is one scheduled match's pairing and outcome. Retried
// matches report only the final attempt.
type Result struct {
	A, B    string
	Outcome session.Outcome
}

// Autoscrim shuffles the given players into random pairs and plays
// every pair concurrently. A match that fails purely on timeouts is
// retried once after retryDelay; disconnects are not, since the player
// is gone. With an odd player count the leftover is paired against an
// already-booked player, and the match lock serializes the two.
func Autoscrim(players []*player.Player, run Runner, retryDelay time.Duration, log zerolog.Logger) []Result {
	if len(players) < 2 {
		return nil
	}

	shuffled := append([]*player.Player(nil), players...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	half := len(shuffled) / 2
	set1, set2 := shuffled[:half], shuffled[half:half*2]
	pairs := make([][2]*player.Player, 0, half+1)
	for i := range set1 {
		pairs = append(pairs, [2]*player.Player{set1[i], set2[i]})
	}
	if len(shuffled)%2 == 1 {
		pairs = append(pairs, [2]*player.Player{set1[0], shuffled[len(shuffled)-1]})
	}

	log.Info().Int("players", len(players)).Int("matches", len(pairs)).Msg("autoscrim round")
	return playAll(pairs, func(a, b *player.Player) session.Outcome {
		out := run(a, b)
		if out.TimeoutOnly() {
			log.Info().Str("a", a.Name).Str("b", b.Name).Msg("retrying timed-out match")
			time.Sleep(retryDelay)
			out = run(a, b)
		}
		return out
	})
}

// RoundRobin plays every distinct pair among the given players exactly
// once, all matches concurrent. No retries: a tournament slot is
// played as it falls.
func RoundRobin(players []*player.Player, run Runner) []Result {
	var pairs [][2]*player.Player
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			pairs = append(pairs, [2]*player.Player{players[i], players[j]})
		}
	}
	return playAll(pairs, run)
}

func playAll(pairs [][2]*player.Player, run Runner) []Result {
	results := make([]Result, len(pairs))
	var wg sync.WaitGroup
	for i, pair := range pairs {
		i, pair := i, pair
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = Result{
				A:       pair[0].Name,
				B:       pair[1].Name,
				Outcome: run(pair[0], pair[1]),
			}
		}()
	}
	wg.Wait()
	return results
}

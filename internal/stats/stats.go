// Package stats keeps in-memory daily highlight records. Everything
// resets at UTC midnight; nothing is persisted.
package stats

import (
	"sync"
	"time"

	"github.com/botduel/botduel/internal/game"
)

// TopLaunch is the hardest single hit landed today.
type TopLaunch struct {
	Damage   int    `json:"damage"`
	Attacker string `json:"attacker"`
	Defender string `json:"defender"`
	Round    int    `json:"round"`
	Time     int64  `json:"time"`
}

// LongestMatch is today's longest completed match by rounds.
type LongestMatch struct {
	Rounds int    `json:"rounds"`
	A      string `json:"a"`
	B      string `json:"b"`
	Time   int64  `json:"time"`
}

// Snapshot is the read-only view served over HTTP.
type Snapshot struct {
	Date         string       `json:"date"`
	TopLaunch    TopLaunch    `json:"top_launch"`
	LongestMatch LongestMatch `json:"longest_match"`
}

// Daily accumulates highlights for the current UTC day.
type Daily struct {
	mu      sync.Mutex
	date    string
	top     TopLaunch
	longest LongestMatch
}

// NewDaily returns an empty tracker for today.
func NewDaily() *Daily {
	return &Daily{date: today()}
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// rollover resets the records when the UTC date changes. Callers hold
// the mutex.
func (d *Daily) rollover() {
	if t := today(); d.date != t {
		d.date = t
		d.top = TopLaunch{}
		d.longest = LongestMatch{}
	}
}

// Get returns today's snapshot.
func (d *Daily) Get() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rollover()
	return Snapshot{Date: d.date, TopLaunch: d.top, LongestMatch: d.longest}
}

// ObserveMatch folds a finished match into today's records. a and b
// name the players on the match's A and B sides.
func (d *Daily) ObserveMatch(a, b string, m *game.Match) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rollover()

	now := time.Now().Unix()
	if m.Round > d.longest.Rounds {
		d.longest = LongestMatch{Rounds: m.Round, A: a, B: b, Time: now}
	}
	for _, rec := range m.History {
		d.observeSide(a, b, rec.Round, rec.ActionsA, rec.ErrorsA, rec.ActionsB, rec.B, now)
		d.observeSide(b, a, rec.Round, rec.ActionsB, rec.ErrorsB, rec.ActionsA, rec.A, now)
	}
}

// observeSide scans one side's launches for a round, skipping any the
// engine rejected. The highlight is damage dealt, not the strength
// spent: launches replay against the defender's pre-round effective
// health in unit order, so overkill is discounted the same way the
// rules discount it.
func (d *Daily) observeSide(attacker, defender string, round int, acts []game.Action, errs []game.ActionError, defActs []game.Action, def game.Squad, now int64) {
	skipped := make(map[int]bool, len(errs))
	for _, e := range errs {
		skipped[e.Unit] = true
	}
	var eff [game.NumUnits]int
	for i, u := range def {
		eff[i] = u.Health
		if i < len(defActs) && defActs[i].Kind == game.ActionShield && u.Health > 0 {
			eff[i] += game.ShieldBonus
		}
	}
	for i, act := range acts {
		if act.Kind != game.ActionLaunch || skipped[i] {
			continue
		}
		if act.Target < 0 || act.Target >= game.NumUnits {
			continue
		}
		dealt := act.Strength
		if dealt > eff[act.Target] {
			dealt = eff[act.Target]
		}
		eff[act.Target] -= dealt
		if dealt > d.top.Damage {
			d.top = TopLaunch{
				Damage:   dealt,
				Attacker: attacker,
				Defender: defender,
				Round:    round,
				Time:     now,
			}
		}
	}
}

// Package rank folds match outcomes into per-player records and
// produces standings: 3 points per win, 1 per tie, divided by games
// played.
package rank

import (
	"sort"
	"sync"
)

// Line is one player's accumulated record.
type Line struct {
	Player string `json:"player"`
	Played int    `json:"played"`
	Won    int    `json:"won"`
	Lost   int    `json:"lost"`
	Tied   int    `json:"tied"`
}

// Score is points per game, truncated to four decimal places. A
// player with no games scores 0.
func (l Line) Score() float64 {
	if l.Played == 0 {
		return 0
	}
	raw := float64(3*l.Won+l.Tied) / float64(l.Played)
	return float64(int(raw*10000)) / 10000
}

// Table aggregates match outcomes. Ranking is descending by
// (score, wins); exact ties keep arrival order.
type Table struct {
	mu    sync.Mutex
	lines map[string]*Line
	order []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{lines: make(map[string]*Line)}
}

func (t *Table) line(name string) *Line {
	l, ok := t.lines[name]
	if !ok {
		l = &Line{Player: name}
		t.lines[name] = l
		t.order = append(t.order, name)
	}
	return l
}

// Record folds one match outcome in. winner is empty for a tied or
// abandoned match, which counts as a tie for both sides.
func (t *Table) Record(winner, a, b string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	la, lb := t.line(a), t.line(b)
	la.Played++
	lb.Played++
	switch winner {
	case a:
		la.Won++
		lb.Lost++
	case b:
		lb.Won++
		la.Lost++
	default:
		la.Tied++
		lb.Tied++
	}
}

// Standings returns every player's line in rank order.
func (t *Table) Standings() []Line {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Line, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.lines[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Score(), out[j].Score()
		if si != sj {
			return si > sj
		}
		return out[i].Won > out[j].Won
	})
	return out
}

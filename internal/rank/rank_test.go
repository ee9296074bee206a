package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreTruncation(t *testing.T) {
	l := Line{Played: 3, Won: 2, Tied: 1}
	assert.Equal(t, 2.3333, l.Score())

	assert.Equal(t, 0.0, Line{}.Score(), "unplayed scores zero")
	assert.Equal(t, 3.0, Line{Played: 2, Won: 2}.Score())
}

func TestRecord(t *testing.T) {
	tbl := NewTable()
	tbl.Record("alice", "alice", "bob")
	tbl.Record("", "alice", "bob")
	tbl.Record("bob", "bob", "carol")

	s := tbl.Standings()
	require.Len(t, s, 3)

	byName := map[string]Line{}
	for _, l := range s {
		byName[l.Player] = l
	}
	assert.Equal(t, Line{Player: "alice", Played: 2, Won: 1, Tied: 1}, byName["alice"])
	assert.Equal(t, Line{Player: "bob", Played: 3, Won: 1, Lost: 1, Tied: 1}, byName["bob"])
	assert.Equal(t, Line{Player: "carol", Played: 1, Lost: 1}, byName["carol"])
}

func TestStandingsOrder(t *testing.T) {
	tbl := NewTable()
	// carol: 2 wins; alice: 1 win 1 tie; bob: 1 tie 1 loss; dave: 2 losses.
	tbl.Record("carol", "carol", "dave")
	tbl.Record("carol", "carol", "dave")
	tbl.Record("alice", "alice", "bob")
	tbl.Record("", "alice", "bob")

	s := tbl.Standings()
	require.Len(t, s, 4)
	assert.Equal(t, "carol", s[0].Player)
	assert.Equal(t, "alice", s[1].Player)
	assert.Equal(t, "bob", s[2].Player)
	assert.Equal(t, "dave", s[3].Player)
}

func TestExactTiesKeepArrivalOrder(t *testing.T) {
	tbl := NewTable()
	// Two identical 1-1 head-to-head records; zed arrived first.
	tbl.Record("zed", "zed", "amy")
	tbl.Record("amy", "zed", "amy")

	s := tbl.Standings()
	require.Len(t, s, 2)
	assert.Equal(t, "zed", s[0].Player)
	assert.Equal(t, "amy", s[1].Player)
}

func TestWinsBreakScoreTies(t *testing.T) {
	tbl := NewTable()
	// alice 1W 2L (3 pts / 3), bob 3T (3 pts / 3): same score, alice
	// ranks higher on wins.
	tbl.Record("alice", "alice", "x")
	tbl.Record("x", "alice", "x")
	tbl.Record("x", "alice", "x")
	tbl.Record("", "bob", "y")
	tbl.Record("", "bob", "y")
	tbl.Record("", "bob", "y")

	s := tbl.Standings()
	var alicePos, bobPos int
	for i, l := range s {
		switch l.Player {
		case "alice":
			alicePos = i
		case "bob":
			bobPos = i
		}
	}
	assert.Less(t, alicePos, bobPos)
}

package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Add(New("bob", nil)))
	require.True(t, r.Add(New("alice", nil)))

	assert.False(t, r.Add(New("bob", nil)), "duplicate names rejected")
	assert.Equal(t, 2, r.Len())

	p, ok := r.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "alice", p.Name)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Name)
	assert.Equal(t, "bob", list[1].Name)

	r.Remove("bob")
	_, ok = r.Get("bob")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestMatchLockBlocks(t *testing.T) {
	p := New("x", nil)
	p.BeginMatch()

	entered := make(chan struct{})
	go func() {
		p.BeginMatch()
		close(entered)
		p.EndMatch()
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-entered:
		t.Fatal("second match entered while first held the lock")
	default:
	}

	p.EndMatch()
	<-entered
}

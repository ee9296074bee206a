// Package player holds the participant handle and the online-player
// registry. A Player's identity is stable for the life of its
// connection; only the session layer takes its match lock.
package player

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrTimeout is returned by Conn.Receive when no message arrives
// within the allowed window.
var ErrTimeout = errors.New("receive timed out")

// Conn is the transport for one participant. Both directions may
// fail; the session layer converts failures into match outcomes
// instead of propagating them.
type Conn interface {
	Send(v any) error
	Receive(timeout time.Duration) ([]byte, error)
	Close() error
}

// Player is one logged-in participant. The match lock guarantees a
// player is never inside two running matches at once; a controller
// acquires it before any match state exists and releases it on every
// exit path.
type Player struct {
	Name string
	Conn Conn

	match sync.Mutex
}

// New creates a player handle for a live connection.
func New(name string, conn Conn) *Player {
	return &Player{Name: name, Conn: conn}
}

// BeginMatch blocks until the player is free to enter a match.
func (p *Player) BeginMatch() { p.match.Lock() }

// EndMatch releases the player for its next match.
func (p *Player) EndMatch() { p.match.Unlock() }

// Registry tracks the players currently online, keyed by name. It is
// injected into the server wiring; the match core itself only ever
// sees resolved *Player handles.
type Registry struct {
	mu      sync.RWMutex
	players map[string]*Player
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{players: make(map[string]*Player)}
}

// Add registers a player. It reports false when the name is taken.
func (r *Registry) Add(p *Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[p.Name]; ok {
		return false
	}
	r.players[p.Name] = p
	return true
}

// Remove drops a player, usually because its connection ended.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, name)
}

// Get looks a player up by name.
func (r *Registry) Get(name string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[name]
	return p, ok
}

// List returns all online players sorted by name.
func (r *Registry) List() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports how many players are online.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

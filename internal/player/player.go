// Package player is the identity provider: who is connected and where they are.
package player

import (
	"sort"
	"sync"

	"github.com/rpggio/racekeeper/internal/domain/course"
)

// Player identifies a connected player.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Directory supplies player identities and positions.
type Directory interface {
	Connected() []Player
	Lookup(id string) (Player, bool)
	Position(id string) (course.Vec3, bool)
}

type entry struct {
	player   Player
	position *course.Vec3
	conns    int
}

// Registry is an in-memory Directory fed by the transports.
type Registry struct {
	mu      sync.RWMutex
	players map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{players: make(map[string]*entry)}
}

// Connect registers a connection for p. A player may hold several connections.
func (r *Registry) Connect(p Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.players[p.ID]
	if !ok {
		e = &entry{}
		r.players[p.ID] = e
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	e.player = p
	e.conns++
}

// Disconnect drops one connection; the player is forgotten with the last one.
func (r *Registry) Disconnect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.players[id]
	if !ok {
		return
	}
	e.conns--
	if e.conns <= 0 {
		delete(r.players, id)
	}
}

// UpdatePosition records the latest known position of a connected player.
func (r *Registry) UpdatePosition(id string, pos course.Vec3) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.players[id]
	if !ok {
		return false
	}
	e.position = &pos
	return true
}

// Connected returns connected players ordered by id.
func (r *Registry) Connected() []Player {
	r.mu.RLock()
	out := make([]Player, 0, len(r.players))
	for _, e := range r.players {
		out = append(out, e.player)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup returns a connected player by id.
func (r *Registry) Lookup(id string) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.players[id]
	if !ok {
		return Player{}, false
	}
	return e.player, true
}

// Position returns the last reported position of a player.
func (r *Registry) Position(id string) (course.Vec3, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.players[id]
	if !ok || e.position == nil {
		return course.Vec3{}, false
	}
	return *e.position, true
}

package teams

import (
	"slices"
	"sync"

	"hackathon-scoreboard/internal/scoring"
)

// Registry is the in-memory set of teams plus the next-id counter. All
// methods are safe for concurrent use; teams go in and come out as copies.
type Registry struct {
	mu     sync.RWMutex
	teams  map[int]Team
	order  []int
	nextID int
}

func NewRegistry() *Registry {
	return &Registry{teams: make(map[int]Team), nextID: 1}
}

// Register adds t unless its id is taken or another team already has the
// same name and category (both compared case-insensitively).
func (r *Registry) Register(t Team) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictLocked(t) {
		return false
	}
	r.addLocked(t)
	return true
}

// RegisterNext assigns the next free id to t and registers it in one step.
func (r *Registry) RegisterNext(t Team) (Team, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	if r.conflictLocked(t) {
		return Team{}, false
	}
	r.addLocked(t)
	return t, true
}

// Add inserts t without duplicate checks. An existing team with the same
// id is overwritten in place.
func (r *Registry) Add(t Team) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addLocked(t)
}

// Remove deletes the team with id; it reports whether anything was removed.
func (r *Registry) Remove(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return false
	}
	delete(r.teams, id)
	r.order = slices.DeleteFunc(r.order, func(v int) bool { return v == id })
	return true
}

func (r *Registry) Get(id int) (Team, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.teams[id]
	return t, ok
}

// Update applies fn to the stored team under the write lock. The change is
// discarded if fn returns an error.
func (r *Registry) Update(id int, fn func(*Team) error) (Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return Team{}, ErrNotFound
	}
	if err := fn(&t); err != nil {
		return Team{}, err
	}
	t.ID = id
	r.teams[id] = t
	return t, nil
}

// NextID returns the id the next auto-assigned registration would get.
func (r *Registry) NextID() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextID
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Snapshot copies every team in insertion order.
func (r *Registry) Snapshot() []Team {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Replace swaps the whole content for ts and resets the id counter. Later
// entries with an id already seen overwrite earlier ones.
func (r *Registry) Replace(ts []Team) {
	teams := make(map[int]Team, len(ts))
	order := make([]int, 0, len(ts))
	next := 1
	for _, t := range ts {
		if _, ok := teams[t.ID]; !ok {
			order = append(order, t.ID)
		}
		teams[t.ID] = t
		next = max(next, t.ID+1)
	}

	r.mu.Lock()
	r.teams, r.order, r.nextID = teams, order, next
	r.mu.Unlock()
}

func (r *Registry) conflictLocked(t Team) bool {
	if _, ok := r.teams[t.ID]; ok {
		return true
	}
	for _, existing := range r.teams {
		if scoring.SameName(existing.Name, t.Name) && scoring.SameName(existing.Category, t.Category) {
			return true
		}
	}
	return false
}

func (r *Registry) addLocked(t Team) {
	if _, ok := r.teams[t.ID]; !ok {
		r.order = append(r.order, t.ID)
	}
	r.teams[t.ID] = t
	r.nextID = max(r.nextID, t.ID+1)
}

func (r *Registry) snapshotLocked() []Team {
	out := make([]Team, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.teams[id])
	}
	return out
}

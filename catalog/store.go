package catalog

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/asteroid-defense/model"
)

// EventType indicates what changed in the Store.
type EventType int

const (
	EventCandidatesLoaded EventType = iota
	EventCandidateSelected
)

// Event is emitted to subscribers when the candidate list or selection
// changes.
type Event struct {
	Type     EventType
	Count    int
	Selected *Candidate
}

// Candidate is a catalog record with its 1-based position in the list.
type Candidate struct {
	ID     int
	Record model.Record
}

// Store is an in-memory, thread-safe list of candidates and the user's
// selection.
type Store struct {
	mu sync.RWMutex

	candidates []Candidate
	selected   int // 0 means no selection

	nextSub int
	subs    map[int]func(Event)
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(Event))}
}

// Replace swaps in a fresh candidate list and clears the selection.
func (s *Store) Replace(records []model.Record) {
	s.mu.Lock()
	s.candidates = make([]Candidate, len(records))
	for i, r := range records {
		s.candidates[i] = Candidate{ID: i + 1, Record: r}
	}
	s.selected = 0
	ev := Event{Type: EventCandidatesLoaded, Count: len(records)}
	subs := s.subscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// List returns a snapshot of all candidates.
func (s *Store) List() []Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Candidate(nil), s.candidates...)
}

// Get returns the candidate with the given ID.
func (s *Store) Get(id int) (Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 1 || id > len(s.candidates) {
		return Candidate{}, false
	}
	return s.candidates[id-1], true
}

// Select marks candidate id as the user's choice and notifies subscribers.
func (s *Store) Select(id int) error {
	s.mu.Lock()
	if id < 1 || id > len(s.candidates) {
		n := len(s.candidates)
		s.mu.Unlock()
		return fmt.Errorf("candidate %d not found among %d", id, n)
	}
	s.selected = id
	c := s.candidates[id-1]
	ev := Event{Type: EventCandidateSelected, Count: len(s.candidates), Selected: &c}
	subs := s.subscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
	return nil
}

// Selected returns the current selection, if any.
func (s *Store) Selected() (Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == 0 {
		return Candidate{}, false
	}
	return s.candidates[s.selected-1], true
}

// Handoff returns the handoff map for the selection, or DefaultHandoff
// when nothing is selected.
func (s *Store) Handoff() map[string]string {
	if c, ok := s.Selected(); ok {
		return HandoffFromRecord(c.Record)
	}
	return DefaultHandoff()
}

// Subscribe registers a callback for store events. It returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// subscribers copies the callbacks so they can run outside the lock.
func (s *Store) subscribers() []func(Event) {
	out := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

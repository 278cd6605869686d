package flow

import "sync"

// Store is the process-wide keyed holder of flow states, the per-session
// schedule-preference cache, and the per-session turn locks that serialize
// concurrent turns for the same session.
//
// States live for the process lifetime per session id; only the router's
// reset commands and terminal steps remove entries. The schedule-id cache
// deliberately survives flow resets so a later enrollment can still skip the
// schedule questions.
//
// Safe for concurrent use; sessions never contend with each other.
type Store struct {
	mu          sync.Mutex
	states      map[string]*State
	scheduleIDs map[string]string
	turnLocks   map[string]*sync.Mutex
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		states:      make(map[string]*State),
		scheduleIDs: make(map[string]string),
		turnLocks:   make(map[string]*sync.Mutex),
	}
}

// LockTurn acquires the turn lock for sessionID and returns the unlock
// function. The router holds it for the whole turn so same-session requests
// cannot interleave step advancement.
func (s *Store) LockTurn(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.turnLocks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.turnLocks[sessionID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Active returns the session's current flow state, or nil.
func (s *Store) Active(sessionID string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[sessionID]
}

// Start replaces any prior state with a fresh one for kind and returns it.
// Nothing is merged from the discarded state.
func (s *Store) Start(sessionID string, kind Kind) *State {
	st := NewState(kind)
	s.mu.Lock()
	s.states[sessionID] = st
	s.mu.Unlock()
	return st
}

// Clear removes the session's flow state, if any.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.states, sessionID)
	s.mu.Unlock()
}

// ScheduleID returns the cached schedule-preference id for the session.
func (s *Store) ScheduleID(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.scheduleIDs[sessionID]
	return id, ok
}

// SetScheduleID caches a freshly persisted schedule-preference id so a later
// enrollment flow in the same session can reference it without re-asking.
func (s *Store) SetScheduleID(sessionID, id string) {
	s.mu.Lock()
	s.scheduleIDs[sessionID] = id
	s.mu.Unlock()
}

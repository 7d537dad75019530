package viewer

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/joeblew999/photomap/internal/mapview"
	"github.com/joeblew999/photomap/internal/metrics"
	"github.com/joeblew999/photomap/internal/photo"
)

// ErrSessionNotFound is returned for unknown or closed session ids.
var ErrSessionNotFound = errors.New("viewer session not found")

// DatasetProvider supplies the current photo dataset.
type DatasetProvider interface {
	Dataset() *photo.Dataset
}

// Store is the registry of open sessions.
type Store struct {
	photos  DatasetProvider
	metrics *metrics.Collector

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore(photos DatasetProvider, m *metrics.Collector) *Store {
	return &Store{photos: photos, metrics: m, sessions: make(map[string]*Session)}
}

// Create opens a session seeded with the current dataset.
func (st *Store) Create(env mapview.Environment, vars map[string]string) *Session {
	s := NewSession(uuid.NewString(), env, vars, st.metrics)
	if st.photos != nil {
		s.SetDataset(st.photos.Dataset())
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	st.metrics.SessionOpened()
	return s
}

// Get returns an open session.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and forgets a session, returning the restoring update.
func (st *Store) Delete(id string) (Update, error) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return Update{}, ErrSessionNotFound
	}
	st.metrics.SessionClosed()
	return s.Close(), nil
}

// Dataset returns the provider's current dataset.
func (st *Store) Dataset() *photo.Dataset {
	if st.photos == nil {
		return nil
	}
	return st.photos.Dataset()
}

// Each calls fn for every open session. fn must not call back into the store.
func (st *Store) Each(fn func(*Session)) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, s := range st.sessions {
		fn(s)
	}
}

// Len returns the number of open sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

package tuning

import "sync/atomic"

// Store publishes the current tuning to readers without locking.
type Store struct {
	current atomic.Pointer[Tuning]
}

func NewStore(initial *Tuning) *Store {
	if initial == nil {
		initial = Defaults()
	}
	s := &Store{}
	s.current.Store(initial)
	return s
}

func (s *Store) Get() *Tuning {
	return s.current.Load()
}

func (s *Store) Set(t *Tuning) {
	s.current.Store(t)
}

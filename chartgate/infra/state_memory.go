package infra

import (
	"context"
	"sync"

	"chart-gateway/chartgate/domain"
)

// MemoryStateStore é um state container em memória.
//
// Cada lote de Notify é aplicado sob um único lock, então um leitor nunca vê
// metade de um lote.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[domain.Key]*domain.ChartState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[domain.Key]*domain.ChartState)}
}

// Notify implementa domain.Notifier.
func (s *MemoryStateStore) Notify(batch ...domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range batch {
		st, ok := s.states[n.Key]
		if !ok {
			st = &domain.ChartState{}
			s.states[n.Key] = st
		}
		st.Apply(n)
	}
}

func (s *MemoryStateStore) Snapshot(_ context.Context, key domain.Key) (domain.ChartState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[key]
	if !ok {
		return domain.ChartState{}, false, nil
	}
	return *st, true, nil
}

func (s *MemoryStateStore) All() map[domain.Key]domain.ChartState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.Key]domain.ChartState, len(s.states))
	for k, v := range s.states {
		out[k] = *v
	}
	return out
}

package infra

import (
	"sync"

	"chart-gateway/chartgate/domain"
)

// LaneTable é a tabela de lanes em memória. Vazia no início e na quiescência.
type LaneTable struct {
	mu      sync.Mutex
	entries map[domain.Key]domain.TaskHandle
}

func NewLaneTable() *LaneTable {
	return &LaneTable{entries: make(map[domain.Key]domain.TaskHandle)}
}

// Swap implementa domain.LaneTable.
func (l *LaneTable) Swap(key domain.Key, h domain.TaskHandle) domain.TaskHandle {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.entries[key]
	l.entries[key] = h
	return prev
}

// RemoveIf compara por identidade: uma lane já supersedida não é removida
// pelo término da task antiga.
func (l *LaneTable) RemoveIf(key domain.Key, h domain.TaskHandle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.entries[key]; ok && cur == h {
		delete(l.entries, key)
		return true
	}
	return false
}

func (l *LaneTable) Get(key domain.Key) (domain.TaskHandle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.entries[key]
	return h, ok
}

func (l *LaneTable) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *LaneTable) Keys() []domain.Key {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Key, 0, len(l.entries))
	for k := range l.entries {
		out = append(out, k)
	}
	return out
}

package application

import (
	"context"
	"sync"

	"chart-gateway/chartgate/domain"

	"go.uber.org/zap"
)

const defaultStatsBuffer = 1024

// statsQueue grava eventos de stats numa goroutine própria, fora do caminho de
// despacho. Fila cheia descarta o evento: stats são best-effort.
type statsQueue struct {
	store domain.StatsStore
	log   *zap.Logger

	mu       sync.Mutex
	drained  *sync.Cond
	inflight int
	closed   bool
	events   chan domain.StatsEvent
	done     chan struct{}
}

func newStatsQueue(store domain.StatsStore, size int, log *zap.Logger) *statsQueue {
	if size <= 0 {
		size = defaultStatsBuffer
	}
	q := &statsQueue{
		store:  store,
		log:    log,
		events: make(chan domain.StatsEvent, size),
		done:   make(chan struct{}),
	}
	q.drained = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

func (q *statsQueue) push(ev domain.StatsEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	select {
	case q.events <- ev:
		q.inflight++
	default:
		q.log.Warn("stats queue full, event dropped", zap.String("key", string(ev.Key)), zap.String("outcome", string(ev.Outcome)))
	}
}

func (q *statsQueue) loop() {
	defer close(q.done)
	for ev := range q.events {
		if err := q.store.Record(context.Background(), ev); err != nil {
			q.log.Warn("stats record failed", zap.String("key", string(ev.Key)), zap.Error(err))
		}
		q.mu.Lock()
		q.inflight--
		if q.inflight == 0 {
			q.drained.Broadcast()
		}
		q.mu.Unlock()
	}
}

// flush espera os eventos já enfileirados serem gravados.
func (q *statsQueue) flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.inflight > 0 {
		q.drained.Wait()
	}
}

func (q *statsQueue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()
	<-q.done
}

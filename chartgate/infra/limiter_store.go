package infra

import (
	"context"
	"sync"
	"time"

	"chart-gateway/chartgate/domain"

	"golang.org/x/time/rate"
)

// tokenBucket adapta *rate.Limiter para domain.Limiter.
type tokenBucket struct {
	lim *rate.Limiter
}

func (b tokenBucket) Allow() bool { return b.lim.Allow() }

func (b tokenBucket) Reserve() domain.Reservation { return b.lim.Reserve() }

// LimiterStore guarda um token bucket por métrica.
//
// Um bucket cheio é igual a um bucket novo, então a limpeza descarta buckets
// cheios sem mudar nenhuma decisão futura. Buckets com reserva pendente nunca
// estão cheios e ficam.
type LimiterStore struct {
	mu      sync.Mutex
	buckets map[domain.Key]*rate.Limiter

	limit rate.Limit
	burst int
	every time.Duration
}

type LimiterOption func(*LimiterStore)

// WithCleanupEvery define o intervalo do janitor. Zero desliga.
func WithCleanupEvery(d time.Duration) LimiterOption {
	return func(s *LimiterStore) { s.every = d }
}

func NewLimiterStore(rps float64, burst int, opts ...LimiterOption) *LimiterStore {
	s := &LimiterStore{
		buckets: make(map[domain.Key]*rate.Limiter),
		limit:   rate.Limit(rps),
		burst:   burst,
		every:   time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implementa domain.LimiterStore.
func (s *LimiterStore) Get(key domain.Key) domain.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	lim, ok := s.buckets[key]
	if !ok {
		lim = rate.NewLimiter(s.limit, s.burst)
		s.buckets[key] = lim
	}
	return tokenBucket{lim: lim}
}

func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Cleanup remove os buckets que já recuperaram todos os tokens.
func (s *LimiterStore) Cleanup() int {
	now := time.Now()
	full := float64(s.burst)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, lim := range s.buckets {
		if lim.TokensAt(now) >= full {
			delete(s.buckets, k)
			removed++
		}
	}
	return removed
}

// StartJanitor roda Cleanup periodicamente até ctx encerrar.
func (s *LimiterStore) StartJanitor(ctx context.Context) {
	if s.every <= 0 {
		return
	}

	t := time.NewTicker(s.every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

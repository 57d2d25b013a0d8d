package application

import (
	"context"
	"sync"
	"time"

	"chart-gateway/chartgate/domain"

	"go.uber.org/zap"
)

// DeliverFunc entrega um evento ao pipeline (normalmente, o canal do Scheduler).
type DeliverFunc func(ctx context.Context, req domain.Request) error

// SendTo entrega em ch, desistindo quando ctx encerra.
func SendTo(ch chan<- domain.Request) DeliverFunc {
	return func(ctx context.Context, req domain.Request) error {
		select {
		case ch <- req:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Throttle limita a taxa de eventos por chave sem perder o último.
//
// Um evento que chega sem token fica guardado e é entregue quando o token
// reservado chegar. Enquanto houver um evento guardado para a chave, eventos
// novos só o substituem: o último evento de uma rajada é sempre entregue.
// Recusa apenas quando a espera pelo token passaria de MaxDelay.
type Throttle struct {
	store    domain.LimiterStore
	deliver  DeliverFunc
	maxDelay time.Duration
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	held map[domain.Key]*heldRequest
}

// heldRequest existe enquanto a chave tem entrega em andamento ou agendada.
type heldRequest struct {
	req   *domain.Request
	timer *time.Timer
}

type ThrottleOption func(*Throttle)

// WithMaxDelay define a maior espera aceita antes de recusar com Retry-After.
func WithMaxDelay(d time.Duration) ThrottleOption {
	return func(t *Throttle) { t.maxDelay = d }
}

func WithThrottleLogger(log *zap.Logger) ThrottleOption {
	return func(t *Throttle) {
		if log != nil {
			t.log = log
		}
	}
}

// NewThrottle cria um Throttle. Entregas agendadas usam ctx; Stop o encerra.
func NewThrottle(ctx context.Context, store domain.LimiterStore, deliver DeliverFunc, opts ...ThrottleOption) *Throttle {
	ctx, cancel := context.WithCancel(ctx)
	t := &Throttle{
		store:    store,
		deliver:  deliver,
		maxDelay: 5 * time.Second,
		log:      zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
		held:     make(map[domain.Key]*heldRequest),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Submit admite req na chave key.
//
// Allowed: req já foi entregue (o erro vem da entrega, com ctx do chamador).
// Deferred: req será entregue depois, a menos que um evento mais novo chegue antes.
func (t *Throttle) Submit(ctx context.Context, key domain.Key, req domain.Request) (domain.Decision, error) {
	t.mu.Lock()

	if h, ok := t.held[key]; ok {
		h.req = &req
		t.mu.Unlock()
		return domain.Decision{Deferred: true}, nil
	}

	lim := t.store.Get(key)
	if lim.Allow() {
		h := &heldRequest{req: &req}
		t.held[key] = h
		t.mu.Unlock()
		return domain.Decision{Allowed: true}, t.drain(ctx, key, h)
	}

	r := lim.Reserve()
	if !r.OK() {
		t.mu.Unlock()
		return domain.Decision{RetryAfter: t.maxDelay}, nil
	}
	if d := r.Delay(); d > t.maxDelay {
		r.Cancel()
		t.mu.Unlock()
		return domain.Decision{RetryAfter: d}, nil
	}

	h := &heldRequest{req: &req}
	t.held[key] = h
	t.schedule(key, h, r.Delay())
	t.mu.Unlock()
	return domain.Decision{Deferred: true}, nil
}

// schedule agenda drain de h. Chamar com t.mu.
func (t *Throttle) schedule(key domain.Key, h *heldRequest, d time.Duration) {
	h.timer = time.AfterFunc(d, func() {
		if err := t.drain(t.ctx, key, h); err != nil {
			t.log.Warn("held event dropped", zap.String("key", string(key)), zap.Error(err))
		}
	})
}

// drain entrega o evento guardado em h. Se outro evento o substituiu durante
// a entrega, reserva um token novo e agenda a entrega dele.
func (t *Throttle) drain(ctx context.Context, key domain.Key, h *heldRequest) error {
	t.mu.Lock()
	req := h.req
	t.mu.Unlock()

	err := t.deliver(ctx, *req)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.held[key] != h {
		return err
	}
	if h.req == req || t.ctx.Err() != nil {
		delete(t.held, key)
		return err
	}

	r := t.store.Get(key).Reserve()
	var d time.Duration
	if r.OK() {
		d = r.Delay()
	}
	t.schedule(key, h, d)
	return err
}

// Held devolve quantas chaves têm evento guardado ou em entrega.
func (t *Throttle) Held() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.held)
}

// Stop descarta os eventos guardados e cancela as entregas agendadas.
func (t *Throttle) Stop() {
	t.cancel()

	t.mu.Lock()
	defer t.mu.Unlock()
	for k, h := range t.held {
		if h.timer != nil {
			h.timer.Stop()
		}
		delete(t.held, k)
	}
}

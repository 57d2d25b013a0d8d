package application

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"chart-gateway/chartgate/domain"

	"go.uber.org/zap"
)

// Worker é a unidade de trabalho executada numa lane. Falhas internas são
// responsabilidade do worker (reportadas via out). O erro devolvido só indica
// cancelamento: context.Canceled quando o worker parou porque ctx encerrou.
type Worker interface {
	Run(ctx context.Context, req domain.Request, out domain.Notifier) error
}

type WorkerFunc func(ctx context.Context, req domain.Request, out domain.Notifier) error

func (f WorkerFunc) Run(ctx context.Context, req domain.Request, out domain.Notifier) error {
	return f(ctx, req, out)
}

// Scheduler garante no máximo uma Task ativa por chave: uma nova requisição
// para a mesma chave cancela a Task anterior antes de iniciar a nova.
type Scheduler struct {
	lanes  domain.LaneTable
	worker Worker
	out    domain.Notifier

	kind        domain.RequestKind
	keyFn       domain.KeyFunc
	statsStore  domain.StatsStore
	statsBuffer int
	stats       *statsQueue
	log         *zap.Logger

	// mu serializa o despacho (consulta, cancelamento e troca da lane).
	mu      sync.Mutex
	wg      sync.WaitGroup
	running atomic.Bool
}

type SchedulerOption func(*Scheduler)

func WithKind(kind domain.RequestKind) SchedulerOption {
	return func(s *Scheduler) { s.kind = kind }
}

func WithKeyFunc(fn domain.KeyFunc) SchedulerOption {
	return func(s *Scheduler) { s.keyFn = fn }
}

// WithStats grava o ciclo de vida das tasks em stats, numa goroutine própria.
func WithStats(stats domain.StatsStore) SchedulerOption {
	return func(s *Scheduler) { s.statsStore = stats }
}

// WithStatsBuffer define quantos eventos de stats podem esperar gravação.
func WithStatsBuffer(n int) SchedulerOption {
	return func(s *Scheduler) { s.statsBuffer = n }
}

func WithLogger(log *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

func NewScheduler(lanes domain.LaneTable, worker Worker, out domain.Notifier, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		lanes:  lanes,
		worker: worker,
		out:    out,
		kind:   domain.ChartDataRequested,
		keyFn:  domain.MetricKey,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.statsStore != nil {
		s.stats = newStatsQueue(s.statsStore, s.statsBuffer, s.log)
	}
	return s
}

// Run consome source até ctx encerrar ou source ser fechado.
//
// Eventos de outro tipo são ignorados. O loop nunca espera uma Task terminar.
// Uma chave vazia é defeito de configuração e encerra Run com domain.ErrEmptyKey.
// As Tasks herdam ctx: encerrar ctx cancela todas.
func (s *Scheduler) Run(ctx context.Context, source <-chan domain.Request) error {
	if !s.running.CompareAndSwap(false, true) {
		return domain.ErrSchedulerRunning
	}
	defer s.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-source:
			if !ok {
				return nil
			}
			if req.Kind != s.kind {
				s.log.Debug("ignoring event", zap.String("type", string(req.Kind)))
				continue
			}
			if _, err := s.Dispatch(ctx, req); err != nil {
				return err
			}
		}
	}
}

// Dispatch inicia uma Task para req na lane da sua chave, cancelando a anterior.
//
// Quando Dispatch retorna, a Task anterior (se havia) já não emite notificações.
func (s *Scheduler) Dispatch(ctx context.Context, req domain.Request) (*Task, error) {
	key := s.keyFn(req)
	if key == "" {
		return nil, fmt.Errorf("dispatch %s: %w", req.Kind, domain.ErrEmptyKey)
	}

	s.mu.Lock()
	t := newTask(ctx, key)
	prev := s.lanes.Swap(key, t)
	if prev != nil {
		prev.Cancel()
	}
	s.wg.Add(1)
	go s.run(t, req)
	s.mu.Unlock()

	if prev != nil {
		s.log.Debug("task superseded", zap.String("key", string(key)), zap.String("task", prev.ID()), zap.String("by", t.id))
		s.record(key, prev.ID(), domain.OutcomeSuperseded)
	}
	s.record(key, t.id, domain.OutcomeDispatched)
	return t, nil
}

// Wait bloqueia até todas as Tasks despachadas chegarem a um estado terminal
// e os stats já enfileirados serem gravados.
func (s *Scheduler) Wait() {
	s.wg.Wait()
	if s.stats != nil {
		s.stats.flush()
	}
}

// Close espera as Tasks e encerra a gravação de stats. O Scheduler não despacha
// mais stats depois disso.
func (s *Scheduler) Close() {
	s.wg.Wait()
	if s.stats != nil {
		s.stats.close()
	}
}

// Active devolve o número de lanes com Task em execução.
func (s *Scheduler) Active() int { return s.lanes.Len() }

func (s *Scheduler) run(t *Task, req domain.Request) {
	defer s.wg.Done()

	status := s.execute(t, req)
	t.finish(status)

	// só remove se a lane ainda aponta para esta Task
	s.lanes.RemoveIf(t.key, t)

	outcome := domain.OutcomeCompleted
	switch status {
	case TaskCancelled:
		outcome = domain.OutcomeCancelled
	case TaskPanicked:
		outcome = domain.OutcomePanicked
	}
	s.log.Debug("task finished", zap.String("key", string(t.key)), zap.String("task", t.id), zap.String("status", string(status)))
	s.record(t.key, t.id, outcome)
}

func (s *Scheduler) execute(t *Task, req domain.Request) (status TaskStatus) {
	defer func() {
		if r := recover(); r != nil {
			status = TaskPanicked
			s.log.Error("worker panic recovered",
				zap.String("key", string(t.key)),
				zap.String("task", t.id),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	if err := s.worker.Run(t.ctx, req, t.notifier(s.out)); errors.Is(err, context.Canceled) {
		return TaskCancelled
	}
	return TaskCompleted
}

func (s *Scheduler) record(key domain.Key, taskID string, outcome domain.Outcome) {
	if s.stats == nil {
		return
	}
	s.stats.push(domain.StatsEvent{
		Key:     key,
		Outcome: outcome,
		TaskID:  taskID,
		At:      time.Now(),
	})
}

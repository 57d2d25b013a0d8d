package application

import (
	"context"
	"sync"

	"chart-gateway/chartgate/domain"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskRunning   TaskStatus = "RUNNING"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskCancelled TaskStatus = "CANCELLED"
	TaskPanicked  TaskStatus = "PANICKED"
)

// IsTerminal indica se a task terminou (com sucesso, cancelada ou com panic contido).
func IsTerminal(s TaskStatus) bool {
	switch s {
	case TaskCompleted, TaskCancelled, TaskPanicked:
		return true
	default:
		return false
	}
}

// Task é uma execução do worker associada a uma chave.
//
// Toda notificação emitida pela task passa pelo portão (mu + closed). Cancel fecha o
// portão e espera qualquer emissão em andamento terminar: depois que Cancel retorna,
// a task não emite mais nada.
type Task struct {
	id  string
	key domain.Key

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	status TaskStatus
}

func newTask(parent context.Context, key domain.Key) *Task {
	ctx, cancel := context.WithCancel(parent)
	return &Task{
		id:     uuid.NewString(),
		key:    key,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		status: TaskRunning,
	}
}

func (t *Task) ID() string               { return t.id }
func (t *Task) Key() domain.Key          { return t.key }
func (t *Task) Done() <-chan struct{}    { return t.done }
func (t *Task) Context() context.Context { return t.ctx }

func (t *Task) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Cancel implementa domain.TaskHandle. É cooperativo: o worker só percebe o
// cancelamento no próximo ponto de suspensão, mas o portão fecha imediatamente.
func (t *Task) Cancel() {
	t.cancel()

	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

// notifier devolve um Notifier que só repassa para out enquanto o portão estiver aberto.
// O lote é repassado inteiro, numa única chamada.
func (t *Task) notifier(out domain.Notifier) domain.Notifier {
	return domain.NotifierFunc(func(batch ...domain.Notification) {
		t.mu.Lock()
		defer t.mu.Unlock()

		if t.closed || t.ctx.Err() != nil {
			return
		}
		out.Notify(batch...)
	})
}

func (t *Task) finish(st TaskStatus) {
	t.mu.Lock()
	t.closed = true
	if t.status == TaskRunning {
		t.status = st
	}
	t.mu.Unlock()

	t.cancel()
	close(t.done)
}

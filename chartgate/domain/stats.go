package domain

import (
	"context"
	"time"
)

// Outcome é o tipo de evento registrado pelo scheduler.
type Outcome string

const (
	OutcomeDispatched Outcome = "dispatched"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeCompleted  Outcome = "completed"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomePanicked   Outcome = "panicked"
)

// StatsEvent representa um evento de ciclo de vida de uma task.
//
// Observação: cuidado com cardinalidade ao persistir Key (uma série por métrica).
type StatsEvent struct {
	Key     Key
	Outcome Outcome
	TaskID  string

	At time.Time
}

// StatsStore é a estratégia de persistência das estatísticas do scheduler.
// O chamador trata erro como best-effort.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

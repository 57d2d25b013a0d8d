package application

import (
	"context"

	"chart-gateway/chartgate/domain"

	"go.uber.org/zap"
)

// WorkflowState é o estado de uma execução do workflow.
type WorkflowState string

const (
	StateInit              WorkflowState = "INIT"
	StateAwaitingPrimary   WorkflowState = "AWAITING_PRIMARY"
	StateAwaitingAggregate WorkflowState = "AWAITING_AGGREGATE"
	StateDone              WorkflowState = "DONE"
	StateFailed            WorkflowState = "FAILED"
	StateCancelled         WorkflowState = "CANCELLED"
)

// Workflow carrega os dados de um gráfico: uma carga primária com todos os
// parâmetros e uma carga agregada sem data de comparação e sem granularidade.
//
// Sem retry: uma falha encerra a execução; a recuperação é uma nova requisição.
type Workflow struct {
	Loader domain.Loader
	Log    *zap.Logger
}

// Run implementa Worker.
func (w Workflow) Run(ctx context.Context, req domain.Request, out domain.Notifier) error {
	if w.Execute(ctx, req.Payload, out) == StateCancelled {
		return context.Canceled
	}
	return nil
}

// Execute roda o workflow para p e devolve o estado final.
//
// Em caso de falha de carga emite apenas ErrorSet: o flag de loading continua ligado.
// Em caso de cancelamento não emite nada além do lote inicial.
func (w Workflow) Execute(ctx context.Context, p domain.Params, out domain.Notifier) WorkflowState {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	key := domain.Key(p.Metric.Value)
	log = log.With(zap.String("metric", string(key)))

	out.Notify(domain.LoadingStartedFor(key), domain.ErrorClearedFor(key))

	state := StateAwaitingPrimary
	primary, err := w.Loader.Load(ctx, p)
	if err != nil || ctx.Err() != nil {
		return w.fail(ctx, log, key, state, err, out)
	}

	state = StateAwaitingAggregate
	aggregate, err := w.Loader.Load(ctx, p.Aggregate())
	if err != nil || ctx.Err() != nil {
		return w.fail(ctx, log, key, state, err, out)
	}

	out.Notify(
		domain.DataSetFor(key, primary),
		domain.AggregateDataSetFor(key, aggregate),
		domain.LoadingFinishedFor(key),
	)
	return StateDone
}

func (w Workflow) fail(ctx context.Context, log *zap.Logger, key domain.Key, at WorkflowState, err error, out domain.Notifier) WorkflowState {
	if ctx.Err() != nil {
		log.Debug("workflow cancelled", zap.String("at", string(at)))
		return StateCancelled
	}

	log.Warn("chart load failed", zap.String("at", string(at)), zap.Error(err))
	out.Notify(domain.ErrorSetFor(key, domain.GenericErrorMessage))
	return StateFailed
}

package application

import (
	"context"
	"sync"

	"chart-gateway/chartgate/domain"
)

// recorder guarda cada lote recebido, na ordem de chegada.
type recorder struct {
	mu      sync.Mutex
	batches [][]domain.Notification
}

func (r *recorder) Notify(batch ...domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]domain.Notification, len(batch))
	copy(cp, batch)
	r.batches = append(r.batches, cp)
}

func (r *recorder) Batches() [][]domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]domain.Notification, len(r.batches))
	copy(out, r.batches)
	return out
}

func (r *recorder) Flat() []domain.Notification {
	var out []domain.Notification
	for _, b := range r.Batches() {
		out = append(out, b...)
	}
	return out
}

func kinds(batch []domain.Notification) []domain.NotificationKind {
	out := make([]domain.NotificationKind, len(batch))
	for i, n := range batch {
		out[i] = n.Kind
	}
	return out
}

func finalState(key domain.Key, ns []domain.Notification) domain.ChartState {
	var st domain.ChartState
	for _, n := range ns {
		if n.Key == key {
			st.Apply(n)
		}
	}
	return st
}

// scriptedLoader devolve respostas na ordem das chamadas e guarda os parâmetros.
type scriptedLoader struct {
	mu    sync.Mutex
	calls []domain.Params
	steps []func(ctx context.Context) (domain.Dataset, error)
}

func (l *scriptedLoader) Load(ctx context.Context, p domain.Params) (domain.Dataset, error) {
	l.mu.Lock()
	i := len(l.calls)
	l.calls = append(l.calls, p)
	l.mu.Unlock()

	if i >= len(l.steps) {
		return domain.Dataset{}, nil
	}
	return l.steps[i](ctx)
}

func (l *scriptedLoader) Calls() []domain.Params {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Params, len(l.calls))
	copy(out, l.calls)
	return out
}

func returns(ds domain.Dataset) func(context.Context) (domain.Dataset, error) {
	return func(context.Context) (domain.Dataset, error) { return ds, nil }
}

func fails(err error) func(context.Context) (domain.Dataset, error) {
	return func(context.Context) (domain.Dataset, error) { return nil, err }
}

func blocksUntilCancelled(entered chan<- struct{}) func(context.Context) (domain.Dataset, error) {
	return func(ctx context.Context) (domain.Dataset, error) {
		if entered != nil {
			close(entered)
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

func chartRequest(metric, from string) domain.Request {
	return domain.Request{
		Kind: domain.ChartDataRequested,
		Payload: domain.Params{
			Metric:       domain.Metric{Value: metric},
			SelectedDate: domain.DateRange{From: from, To: "2024-01-31"},
		},
	}
}

package application

import (
	"context"
	"testing"
	"time"

	"chart-gateway/chartgate/domain"
	"chart-gateway/chartgate/infra"

	"pgregory.net/rapid"
)

type step struct {
	key   string
	work  time.Duration
	pause time.Duration
}

func stepGen() *rapid.Generator[step] {
	return rapid.Custom(func(t *rapid.T) step {
		return step{
			key:   rapid.SampledFrom([]string{"revenue", "orders", "visits"}).Draw(t, "key"),
			work:  time.Duration(rapid.IntRange(0, 2000).Draw(t, "work")) * time.Microsecond,
			pause: time.Duration(rapid.IntRange(0, 500).Draw(t, "pause")) * time.Microsecond,
		}
	})
}

// Para qualquer sequência de requisições: as emissões de uma chave nunca voltam
// para uma requisição mais antiga, a última requisição de cada chave termina,
// e a tabela de lanes fica vazia na quiescência.
func TestScheduler_LatestWinsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		steps := rapid.SliceOfN(stepGen(), 1, 25).Draw(t, "steps")

		w := WorkerFunc(func(ctx context.Context, req domain.Request, out domain.Notifier) error {
			key := domain.MetricKey(req)
			seq := req.Payload.SelectedDate.From
			out.Notify(domain.DataSetFor(key, domain.Dataset{"seq": seq}))

			work, _ := time.ParseDuration(req.Payload.SelectedDate.To)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(work):
			}
			out.Notify(domain.AggregateDataSetFor(key, domain.Dataset{"seq": seq}))
			return nil
		})

		lanes := infra.NewLaneTable()
		rec := &recorder{}
		s := NewScheduler(lanes, w, rec)
		defer s.Close()

		index := make(map[string]int)
		last := make(map[domain.Key]string)
		for i, st := range steps {
			seq := rapid.StringMatching(`[a-z]{8}`).Draw(t, "seq")
			for index[seq] != 0 {
				seq += "x"
			}
			index[seq] = i + 1

			req := domain.Request{
				Kind: domain.ChartDataRequested,
				Payload: domain.Params{
					Metric:       domain.Metric{Value: st.key},
					SelectedDate: domain.DateRange{From: seq, To: st.work.String()},
				},
			}
			if _, err := s.Dispatch(context.Background(), req); err != nil {
				t.Fatalf("dispatch: %v", err)
			}
			last[domain.Key(st.key)] = seq
			time.Sleep(st.pause)
		}
		s.Wait()

		if n := lanes.Len(); n != 0 {
			t.Fatalf("lanes not empty at quiescence: %d", n)
		}

		highest := make(map[domain.Key]int)
		finished := make(map[domain.Key]string)
		for _, n := range rec.Flat() {
			seq := n.Dataset["seq"].(string)
			if index[seq] < highest[n.Key] {
				t.Fatalf("key %s emitted for %s after a newer request", n.Key, seq)
			}
			highest[n.Key] = index[seq]
			if n.Kind == domain.AggregateDataSet {
				finished[n.Key] = seq
			}
		}
		for key, seq := range last {
			if finished[key] != seq {
				t.Fatalf("latest request for %s did not finish: got %q want %q", key, finished[key], seq)
			}
		}
	})
}

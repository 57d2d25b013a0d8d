package chartgate

import (
	"context"
	"net/http"
	"strings"

	"chart-gateway/chartgate/domain"

	"github.com/bytedance/sonic"
)

// StateReader é o lado de leitura de um state container.
type StateReader interface {
	Snapshot(ctx context.Context, key domain.Key) (domain.ChartState, bool, error)
}

// StateHandler responde GET ?metric=<valor> com o ChartState da métrica.
func StateHandler(reader StateReader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		metric := strings.TrimSpace(r.URL.Query().Get("metric"))
		if metric == "" {
			http.Error(w, "missing metric", http.StatusBadRequest)
			return
		}

		st, ok, err := reader.Snapshot(r.Context(), domain.Key(metric))
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			return
		}
		if !ok {
			http.Error(w, "unknown metric", http.StatusNotFound)
			return
		}

		raw, err := sonic.Marshal(st)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	})
}

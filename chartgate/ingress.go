package chartgate

import (
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"chart-gateway/chartgate/application"
	"chart-gateway/chartgate/domain"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const maxEventBytes = 1 << 20

type IngressOptions struct {
	// Throttle nil entrega todo evento direto em sink.
	Throttle     *application.Throttle
	KeyFn        domain.KeyFunc
	RejectStatus int
	Log          *zap.Logger
}

// IngressHandler recebe eventos em JSON ({"type": ..., "payload": {...}}) e os
// entrega em sink. Responde 202 quando o evento entrou no canal ou ficou
// guardado no throttle para entrega posterior.
//
// Se sink estiver cheio, espera até o cliente desistir (contexto da requisição).
func IngressHandler(opts IngressOptions, sink chan<- domain.Request) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = domain.MetricKey
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	send := application.SendTo(sink)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
		if err != nil {
			http.Error(w, "cannot read body", http.StatusBadRequest)
			return
		}

		var req domain.Request
		if err := sonic.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid event json", http.StatusBadRequest)
			return
		}
		if req.Kind == "" {
			http.Error(w, "missing event type", http.StatusBadRequest)
			return
		}

		key := opts.KeyFn(req)
		if key == "" {
			http.Error(w, "missing metric", http.StatusBadRequest)
			return
		}

		if opts.Throttle == nil {
			err = send(r.Context(), req)
		} else {
			var dec domain.Decision
			dec, err = opts.Throttle.Submit(r.Context(), key, req)
			if !dec.Allowed && !dec.Deferred {
				w.Header().Set("Retry-After", retryAfterSeconds(dec.RetryAfter))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
		}
		if err != nil {
			opts.Log.Warn("event dropped, client gone", zap.String("key", string(key)), zap.Error(err))
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

// retryAfterSeconds arredonda para cima: Retry-After só aceita segundos inteiros.
func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

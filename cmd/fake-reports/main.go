package main

import (
	"context"
	"errors"
	"hash/fnv"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chart-gateway/logger"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Servidor de relatórios falso para rodar o chartgate localmente:
// devolve datasets determinísticos por métrica, com latência configurável.
func main() {
	logger.Init(&logger.Config{Level: os.Getenv("LOG_LEVEL"), Format: "console", Output: "stdout"})
	defer logger.Sync()

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}
	latency := 300 * time.Millisecond
	if v := os.Getenv("LATENCY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Fatal("invalid LATENCY", zap.Error(err))
		}
		latency = d
	}
	failMetric := os.Getenv("FAIL_METRIC")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mux := http.NewServeMux()
	mux.Handle("/api/v1/reports/chart", reportsHandler(latency, failMetric))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("fake reports listening", zap.String("addr", addr), zap.Duration("latency", latency))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// reportsHandler responde com um dataset determinístico por métrica e período.
func reportsHandler(latency time.Duration, failMetric string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		metric := q.Get("metric")
		logger.Debug("chart requested", zap.String("query", r.URL.RawQuery))
		if metric == "" {
			http.Error(w, "missing metric", http.StatusUnprocessableEntity)
			return
		}
		if metric == failMetric {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}

		select {
		case <-time.After(latency):
		case <-r.Context().Done():
			logger.Warn("request abandoned", zap.String("metric", metric))
			return
		}

		total := seed(metric, q.Get("date_from"), q.Get("date_to"))
		body := map[string]any{"total": total}
		if q.Get("compare") == "true" {
			body["compareTotal"] = total * 9 / 10
		}
		if g := q.Get("granularity"); g != "" {
			body["granularity"] = g
		}

		raw, err := sonic.Marshal(body)
		if err != nil {
			logger.Error("encode chart", zap.String("metric", metric), zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
		logger.Info("chart served", zap.String("metric", metric), zap.String("granularity", q.Get("granularity")))
	})
}

func seed(parts ...string) int {
	h := fnv.New32a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
	}
	return int(h.Sum32()%1000) + 100
}

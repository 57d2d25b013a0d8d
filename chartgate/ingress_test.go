package chartgate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chart-gateway/chartgate/application"
	"chart-gateway/chartgate/domain"
	"chart-gateway/chartgate/infra"
)

const revenueEvent = `{"type":"CHART_DATA_REQUESTED","payload":{"metric":{"value":"revenue","label":"Revenue"},"selectedDate":{"from":"2024-01-01","to":"2024-01-31"},"granularity":"day","compareEnabled":true}}`

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "http://example/v1/events", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestIngress_AcceptsEventIntoSink(t *testing.T) {
	sink := make(chan domain.Request, 1)
	h := IngressHandler(IngressOptions{}, sink)

	w := post(h, revenueEvent)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	select {
	case req := <-sink:
		if req.Kind != domain.ChartDataRequested {
			t.Fatalf("unexpected kind %q", req.Kind)
		}
		if req.Payload.Metric.Value != "revenue" || req.Payload.Granularity != "day" || !req.Payload.CompareEnabled {
			t.Fatalf("payload not decoded: %+v", req.Payload)
		}
		if req.Payload.SelectedCompareDate != nil {
			t.Fatalf("expected no compare date")
		}
	default:
		t.Fatalf("expected event in sink")
	}
}

func TestIngress_RejectsBadRequests(t *testing.T) {
	cases := map[string]string{
		"invalid json":   `{"type":`,
		"missing type":   `{"payload":{"metric":{"value":"revenue"}}}`,
		"missing metric": `{"type":"CHART_DATA_REQUESTED","payload":{}}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			sink := make(chan domain.Request, 1)
			w := post(IngressHandler(IngressOptions{}, sink), body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if len(sink) != 0 {
				t.Fatalf("bad event must not reach the sink")
			}
		})
	}
}

func TestIngress_MethodNotAllowed(t *testing.T) {
	h := IngressHandler(IngressOptions{}, make(chan domain.Request, 1))

	r := httptest.NewRequest(http.MethodGet, "http://example/v1/events", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
	if got := w.Header().Get("Allow"); got != http.MethodPost {
		t.Fatalf("expected Allow: POST, got %q", got)
	}
}

func eventFor(metric, from string) string {
	ev := strings.Replace(revenueEvent, `"value":"revenue"`, `"value":"`+metric+`"`, 1)
	return strings.Replace(ev, `"from":"2024-01-01"`, `"from":"`+from+`"`, 1)
}

func TestIngress_BurstDeliversLastEvent(t *testing.T) {
	sink := make(chan domain.Request, 8)
	th := application.NewThrottle(context.Background(), infra.NewLimiterStore(20, 1), application.SendTo(sink))
	defer th.Stop()
	h := IngressHandler(IngressOptions{Throttle: th}, sink)

	// rajada: todos aceitos, só o primeiro e o último chegam ao sink
	for _, from := range []string{"r1", "r2", "r3", "r4"} {
		if w := post(h, eventFor("revenue", from)); w.Code != http.StatusAccepted {
			t.Fatalf("expected 202 for %s, got %d", from, w.Code)
		}
	}

	var got []string
	deadline := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case req := <-sink:
			got = append(got, req.Payload.SelectedDate.From)
		case <-deadline:
			t.Fatalf("expected 2 events in sink, got %v", got)
		}
	}
	if got[0] != "r1" || got[1] != "r4" {
		t.Fatalf("expected [r1 r4], got %v", got)
	}
}

func TestIngress_RejectsWhenWaitIsTooLong(t *testing.T) {
	sink := make(chan domain.Request, 4)
	th := application.NewThrottle(context.Background(), infra.NewLimiterStore(0.02, 1), application.SendTo(sink),
		application.WithMaxDelay(time.Second))
	defer th.Stop()
	h := IngressHandler(IngressOptions{Throttle: th}, sink)

	if w := post(h, eventFor("revenue", "r1")); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	w := post(h, eventFor("revenue", "r2"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "50" {
		t.Fatalf("expected Retry-After 50, got %q", got)
	}

	if w := post(h, eventFor("orders", "o1")); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for another metric, got %d", w.Code)
	}
	if len(sink) != 2 {
		t.Fatalf("expected 2 events in sink, got %d", len(sink))
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "1",
		500 * time.Millisecond:  "1",
		time.Second:             "1",
		1500 * time.Millisecond: "2",
		49*time.Second + 1:      "50",
	}
	for d, want := range cases {
		if got := retryAfterSeconds(d); got != want {
			t.Fatalf("retryAfterSeconds(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestIngress_ClientGoneWhileSinkFull(t *testing.T) {
	sink := make(chan domain.Request)
	h := IngressHandler(IngressOptions{}, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest(http.MethodPost, "http://example/v1/events", strings.NewReader(revenueEvent)).WithContext(ctx)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code == http.StatusAccepted {
		t.Fatalf("expected no 202 once the client is gone")
	}
}

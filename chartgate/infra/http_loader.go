package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"chart-gateway/chartgate/domain"

	"github.com/bytedance/sonic"
)

const maxResponseBytes = 8 << 20

// HTTPLoader implementa domain.Loader contra a API de relatórios.
//
// Não há timeout próprio: a chamada termina com a resposta ou com o cancelamento de ctx.
type HTTPLoader struct {
	client  *http.Client
	baseURL string
	path    string
}

type HTTPLoaderOption func(*HTTPLoader)

func WithHTTPClient(c *http.Client) HTTPLoaderOption {
	return func(l *HTTPLoader) {
		if c != nil {
			l.client = c
		}
	}
}

func WithReportsPath(path string) HTTPLoaderOption {
	return func(l *HTTPLoader) {
		if path != "" {
			l.path = "/" + strings.TrimLeft(path, "/")
		}
	}
}

func NewHTTPLoader(baseURL string, opts ...HTTPLoaderOption) *HTTPLoader {
	l := &HTTPLoader{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    "/api/v1/reports/chart",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *HTTPLoader) Load(ctx context.Context, p domain.Params) (domain.Dataset, error) {
	u := l.baseURL + l.path + "?" + Query(p).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build chart request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load chart %q: %w", p.Metric.Value, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read chart %q: %w", p.Metric.Value, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("load chart %q: %w: %d", p.Metric.Value, domain.ErrUnexpectedStatus, resp.StatusCode)
	}

	var ds domain.Dataset
	if err := sonic.Unmarshal(body, &ds); err != nil {
		return nil, fmt.Errorf("decode chart %q: %w", p.Metric.Value, err)
	}
	return ds, nil
}

// Query codifica os parâmetros na query string da API de relatórios.
// Campos ausentes (data de comparação, granularidade, fuso) não aparecem.
func Query(p domain.Params) url.Values {
	q := url.Values{}
	q.Set("metric", p.Metric.Value)
	q.Set("date_from", p.SelectedDate.From)
	q.Set("date_to", p.SelectedDate.To)
	if p.SelectedCompareDate != nil {
		q.Set("compare_from", p.SelectedCompareDate.From)
		q.Set("compare_to", p.SelectedCompareDate.To)
	}
	if p.Granularity != "" {
		q.Set("granularity", p.Granularity)
	}
	if p.SelectedTimeZone != "" {
		q.Set("tz", p.SelectedTimeZone)
	}
	q.Set("compare", strconv.FormatBool(p.CompareEnabled))
	for _, d := range p.ExcludedDimensions {
		q.Add("exclude", d)
	}
	for dim, values := range p.SelectedFilters {
		for _, v := range values {
			q.Add("filter["+dim+"]", v)
		}
	}
	return q
}

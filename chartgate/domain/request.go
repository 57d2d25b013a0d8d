package domain

// RequestKind é o discriminante de um evento de entrada.
type RequestKind string

// ChartDataRequested é o único tipo de evento que o scheduler despacha.
const ChartDataRequested RequestKind = "CHART_DATA_REQUESTED"

// Key identifica uma lane de supersessão (aqui: o identificador da métrica).
type Key string

type Metric struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// DateRange é um intervalo de datas no formato aceito pela API de relatórios (YYYY-MM-DD).
type DateRange struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Params é o conjunto completo de parâmetros de uma carga de gráfico.
//
// SelectedCompareDate nil e Granularity vazio significam "ausente": o loader
// não envia esses campos.
type Params struct {
	Metric              Metric              `json:"metric" yaml:"metric"`
	SelectedDate        DateRange           `json:"selectedDate" yaml:"selectedDate"`
	SelectedCompareDate *DateRange          `json:"selectedCompareDate,omitempty" yaml:"selectedCompareDate,omitempty"`
	SelectedFilters     map[string][]string `json:"selectedFilters,omitempty" yaml:"selectedFilters,omitempty"`
	SelectedTimeZone    string              `json:"selectedTimeZone,omitempty" yaml:"selectedTimeZone,omitempty"`
	ExcludedDimensions  []string            `json:"excludedDimensions,omitempty" yaml:"excludedDimensions,omitempty"`
	Granularity         string              `json:"granularity,omitempty" yaml:"granularity,omitempty"`
	CompareEnabled      bool                `json:"compareEnabled" yaml:"compareEnabled"`
}

// Aggregate devolve os parâmetros da carga agregada: iguais aos originais,
// mas sem data de comparação e sem granularidade.
func (p Params) Aggregate() Params {
	agg := p
	agg.SelectedCompareDate = nil
	agg.Granularity = ""
	return agg
}

// Request é um evento imutável vindo do produtor.
type Request struct {
	Kind    RequestKind `json:"type" yaml:"type"`
	Payload Params      `json:"payload" yaml:"payload"`
}

// KeyFunc extrai a chave de lane de um evento. Deve ser pura e determinística.
type KeyFunc func(Request) Key

// MetricKey usa o valor da métrica como chave.
func MetricKey(r Request) Key { return Key(r.Payload.Metric.Value) }

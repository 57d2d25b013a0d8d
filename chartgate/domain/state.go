package domain

// ChartState é a visão por métrica mantida pelo state container.
type ChartState struct {
	Loading   bool    `json:"loading"`
	Error     string  `json:"error"`
	Data      Dataset `json:"data,omitempty"`
	Aggregate Dataset `json:"aggregate,omitempty"`
}

// Apply aplica uma notificação ao estado.
//
// ErrorSet não toca em Data/Aggregate nem em Loading.
func (s *ChartState) Apply(n Notification) {
	switch n.Kind {
	case LoadingStarted:
		s.Loading = true
	case LoadingFinished:
		s.Loading = false
	case ErrorCleared:
		s.Error = ""
	case ErrorSet:
		s.Error = n.Message
	case DataSet:
		s.Data = n.Dataset
	case AggregateDataSet:
		s.Aggregate = n.Dataset
	}
}

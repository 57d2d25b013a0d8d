package domain

// GenericErrorMessage é a única mensagem exposta ao usuário quando uma carga falha.
// O detalhe do erro vai apenas para o log.
const GenericErrorMessage = "Something went wrong. Please try again later."

// NotificationKind é o conjunto fechado de atualizações de estado emitidas pelo workflow.
type NotificationKind string

const (
	LoadingStarted   NotificationKind = "loading_started"
	LoadingFinished  NotificationKind = "loading_finished"
	ErrorCleared     NotificationKind = "error_cleared"
	ErrorSet         NotificationKind = "error_set"
	DataSet          NotificationKind = "data_set"
	AggregateDataSet NotificationKind = "aggregate_data_set"
)

// Dataset é o corpo opaco devolvido pela API de relatórios.
type Dataset map[string]any

// Notification é uma mensagem fire-and-forget para o state container.
// Message só é usado em ErrorSet; Dataset só em DataSet/AggregateDataSet.
type Notification struct {
	Kind    NotificationKind
	Key     Key
	Message string
	Dataset Dataset
}

func LoadingStartedFor(k Key) Notification  { return Notification{Kind: LoadingStarted, Key: k} }
func LoadingFinishedFor(k Key) Notification { return Notification{Kind: LoadingFinished, Key: k} }
func ErrorClearedFor(k Key) Notification    { return Notification{Kind: ErrorCleared, Key: k} }

func ErrorSetFor(k Key, msg string) Notification {
	return Notification{Kind: ErrorSet, Key: k, Message: msg}
}

func DataSetFor(k Key, d Dataset) Notification {
	return Notification{Kind: DataSet, Key: k, Dataset: d}
}

func AggregateDataSetFor(k Key, d Dataset) Notification {
	return Notification{Kind: AggregateDataSet, Key: k, Dataset: d}
}

// Notifier recebe lotes de notificações.
//
// Um lote é aplicado de forma atômica: um observador do state container vê
// todas as notificações do lote ou nenhuma. Não há confirmação.
type Notifier interface {
	Notify(batch ...Notification)
}

// NotifierFunc adapta uma função para Notifier.
type NotifierFunc func(batch ...Notification)

func (f NotifierFunc) Notify(batch ...Notification) { f(batch...) }

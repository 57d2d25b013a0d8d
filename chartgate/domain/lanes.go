package domain

// TaskHandle é o que a tabela de lanes guarda para cada chave.
//
// A comparação entre handles é por identidade (==), nunca por chave.
type TaskHandle interface {
	ID() string
	Cancel()
	Done() <-chan struct{}
}

// LaneTable mapeia Key para no máximo um handle vivo.
//
// Invariante: toda entrada presente aponta para uma task ainda em execução;
// entradas de tasks terminadas são removidas.
type LaneTable interface {
	// Swap grava h em key e devolve o handle anterior (nil se não havia).
	Swap(key Key, h TaskHandle) TaskHandle
	// RemoveIf remove a entrada de key somente se ela ainda for h.
	RemoveIf(key Key, h TaskHandle) bool
	Get(key Key) (TaskHandle, bool)
	Len() int
}

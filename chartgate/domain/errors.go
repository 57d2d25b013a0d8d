package domain

import "errors"

var (
	// ErrEmptyKey indica uma KeyFunc que devolveu chave vazia: defeito de configuração.
	ErrEmptyKey = errors.New("empty lane key")
	// ErrUnexpectedStatus indica resposta não-2xx da API de relatórios.
	ErrUnexpectedStatus = errors.New("unexpected status from reports api")
	// ErrSchedulerRunning indica uma segunda chamada concorrente a Run.
	ErrSchedulerRunning = errors.New("scheduler already running")
)

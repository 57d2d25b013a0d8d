package domain

import "time"

// Limiter é um token bucket por chave.
type Limiter interface {
	Allow() bool
	// Reserve separa o próximo token disponível, mesmo que ele esteja no futuro.
	Reserve() Reservation
}

// Reservation é um token reservado. Cancel devolve o token se ele não for usado.
type Reservation interface {
	OK() bool
	Delay() time.Duration
	Cancel()
}

// LimiterStore obtém um limiter por chave (aqui: por métrica).
type LimiterStore interface {
	Get(Key) Limiter
}

// Decision é o resultado da admissão de um evento.
//
// Allowed: entregue agora. Deferred: guardado e entregue quando o token chegar
// (um evento mais novo da mesma chave o substitui). Nenhum dos dois: recusado.
type Decision struct {
	Allowed  bool
	Deferred bool
	// RetryAfter é o valor a devolver em Retry-After quando recusar.
	RetryAfter time.Duration
}

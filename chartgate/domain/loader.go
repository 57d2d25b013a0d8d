package domain

import "context"

// Loader executa a chamada remota de leitura.
//
// É idempotente, pode falhar (rede/validação) e deve abortar a requisição
// subjacente quando ctx é cancelado.
type Loader interface {
	Load(ctx context.Context, p Params) (Dataset, error)
}

type LoaderFunc func(ctx context.Context, p Params) (Dataset, error)

func (f LoaderFunc) Load(ctx context.Context, p Params) (Dataset, error) { return f(ctx, p) }

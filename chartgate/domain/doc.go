// Package domain define contratos e tipos de domínio do pipeline de dados de gráfico:
// requisições, chaves de lane, notificações de estado e as interfaces de loader,
// tabela de lanes e estatísticas.
//
// Este pacote não depende de net/http, Redis nem de implementações concretas.
package domain

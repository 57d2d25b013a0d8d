// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - LaneTable: mapa chave -> task protegido por mutex, remoção por identidade
//   - LimiterStore: token bucket por métrica (Allow/Reserve) usando golang.org/x/time/rate
//   - HTTPLoader: cliente da API de relatórios
//   - MemoryStateStore / RedisStateStore: state containers que aplicam notificações
//   - MemoryStatsStore / RedisStatsStore: contadores do ciclo de vida das tasks
package infra

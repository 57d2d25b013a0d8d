// Package chartgate fornece os adapters HTTP (net/http) do pipeline de dados de gráfico.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (requisição, chave, notificações, loader, lanes)
//   - application: scheduler por chave, workflow de carga e throttle de entrada, sem net/http
//   - infra: implementações concretas (tabela de lanes, token bucket, loader HTTP, Redis)
//   - chartgate (este pacote): ingestão de eventos via HTTP e leitura do estado por métrica
//
// Fluxo no serviço:
//
//  1. A ingestão decodifica o evento e extrai a chave (métrica)
//  2. Passa pelo throttle por métrica (entrega agora, guarda o mais novo, ou 429)
//  3. Entrega o evento no canal consumido pelo Scheduler
//  4. O Scheduler cancela a Task anterior da mesma métrica e inicia o Workflow
//  5. O Workflow emite notificações para o state container
//
// Variáveis de ambiente do binário (cmd/chartgate) controlam o comportamento,
// como REPORTS_URL, RATE_ENABLED, RATE_RPS e STATE_BACKEND.
package chartgate

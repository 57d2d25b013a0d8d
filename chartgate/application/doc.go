// Package application contém os casos de uso do pipeline: o scheduler por chave
// (supersessão), o workflow de carga de gráfico e a admissão de eventos na entrada.
//
// Não conhece net/http nem Redis: fala com o mundo pelas interfaces de domain.
// Ex.: Scheduler.Run(ctx, source) despacha cada evento para uma Task na lane da sua chave,
// cancelando a Task anterior da mesma lane.
package application

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"chart-gateway/chartgate/application"
	"chart-gateway/chartgate/domain"
	"chart-gateway/chartgate/infra"
	"chart-gateway/logger"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type scenario struct {
	Events []scenarioEvent `yaml:"events"`
}

type scenarioEvent struct {
	// Delay é a espera antes de publicar o evento.
	Delay          time.Duration `yaml:"delay"`
	domain.Request `yaml:",inline"`
}

func newReplayCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Feed a YAML scenario of events through the scheduler and print the final state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(*envFile)
			if err != nil {
				return err
			}
			logger.Init(cfg.logConfig())
			defer logger.Sync()

			sc, err := loadScenario(args[0])
			if err != nil {
				return err
			}

			states, err := replay(cmd.Context(), infra.NewHTTPLoader(cfg.ReportsURL, infra.WithReportsPath(cfg.ReportsPath)), sc)
			if err != nil {
				return err
			}
			out, err := sonic.ConfigDefault.MarshalIndent(states, "", "  ")
			if err != nil {
				return fmt.Errorf("encode state: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

func loadScenario(path string) (scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	var sc scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return scenario{}, fmt.Errorf("parse scenario: %w", err)
	}
	return sc, nil
}

// replay publica os eventos respeitando os delays, espera a quiescência e
// devolve o estado final por métrica.
func replay(ctx context.Context, loader domain.Loader, sc scenario) (map[domain.Key]domain.ChartState, error) {
	log := logger.L()
	state := infra.NewMemoryStateStore()
	sched := application.NewScheduler(
		infra.NewLaneTable(),
		application.Workflow{Loader: loader, Log: log.Named("workflow")},
		state,
		application.WithLogger(log.Named("scheduler")),
	)

	events := make(chan domain.Request)
	runErr := make(chan error, 1)
	go func() { runErr <- sched.Run(ctx, events) }()

	for _, ev := range sc.Events {
		if ev.Delay > 0 {
			select {
			case <-time.After(ev.Delay):
			case <-ctx.Done():
			}
		}
		select {
		case events <- ev.Request:
		case <-ctx.Done():
		case err := <-runErr:
			sched.Close()
			return nil, err
		}
	}
	close(events)

	if err := <-runErr; err != nil {
		sched.Close()
		return nil, err
	}
	sched.Close()
	return state.All(), nil
}

package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chart-gateway/chartgate/domain"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStateStore guarda o estado de cada métrica num hash <prefix>:<métrica>
// com os campos loading, error, data e aggregate.
//
// Um lote vira uma transação (MULTI/EXEC). Notify é fire-and-forget: falhas
// vão para o log.
type RedisStateStore struct {
	rdb    redis.Cmdable
	ctx    context.Context
	prefix string
	log    *zap.Logger
}

type RedisStateOption func(*RedisStateStore)

func WithStatePrefix(prefix string) RedisStateOption {
	return func(s *RedisStateStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithStateLogger(log *zap.Logger) RedisStateOption {
	return func(s *RedisStateStore) {
		if log != nil {
			s.log = log
		}
	}
}

func NewRedisStateStore(ctx context.Context, rdb redis.Cmdable, opts ...RedisStateOption) *RedisStateStore {
	s := &RedisStateStore{
		rdb:    rdb,
		ctx:    ctx,
		prefix: "chartgate:state",
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStateStore) key(k domain.Key) string { return s.prefix + ":" + string(k) }

// Notify implementa domain.Notifier.
func (s *RedisStateStore) Notify(batch ...domain.Notification) {
	if len(batch) == 0 {
		return
	}

	_, err := s.rdb.TxPipelined(s.ctx, func(pipe redis.Pipeliner) error {
		for _, n := range batch {
			field, value, err := stateField(n)
			if err != nil {
				return err
			}
			if field == "" {
				continue
			}
			pipe.HSet(s.ctx, s.key(n.Key), field, value)
		}
		return nil
	})
	if err != nil {
		s.log.Warn("state batch not applied", zap.String("key", string(batch[0].Key)), zap.Error(err))
	}
}

func stateField(n domain.Notification) (string, string, error) {
	switch n.Kind {
	case domain.LoadingStarted:
		return "loading", "1", nil
	case domain.LoadingFinished:
		return "loading", "0", nil
	case domain.ErrorCleared:
		return "error", "", nil
	case domain.ErrorSet:
		return "error", n.Message, nil
	case domain.DataSet, domain.AggregateDataSet:
		raw, err := sonic.MarshalString(n.Dataset)
		if err != nil {
			return "", "", fmt.Errorf("encode %s: %w", n.Kind, err)
		}
		if n.Kind == domain.DataSet {
			return "data", raw, nil
		}
		return "aggregate", raw, nil
	}
	return "", "", nil
}

func (s *RedisStateStore) Snapshot(ctx context.Context, key domain.Key) (domain.ChartState, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ChartState{}, false, nil
		}
		return domain.ChartState{}, false, fmt.Errorf("read state %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domain.ChartState{}, false, nil
	}

	st := domain.ChartState{
		Loading: fields["loading"] == "1",
		Error:   fields["error"],
	}
	if raw := fields["data"]; raw != "" {
		if err := sonic.UnmarshalString(raw, &st.Data); err != nil {
			return domain.ChartState{}, false, fmt.Errorf("decode data %s: %w", key, err)
		}
	}
	if raw := fields["aggregate"]; raw != "" {
		if err := sonic.UnmarshalString(raw, &st.Aggregate); err != nil {
			return domain.ChartState{}, false, fmt.Errorf("decode aggregate %s: %w", key, err)
		}
	}
	return st, true, nil
}

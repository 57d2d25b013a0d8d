package infra

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"chart-gateway/chartgate/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRedis conecta no Redis de REDIS_TEST_ADDR; sem ele o teste é pulado.
func testRedis(t *testing.T) (*redis.Client, string) {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rdb.Ping(ctx).Err())

	prefix := "chartgate-test:" + uuid.NewString()
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
		_ = rdb.Close()
	})
	return rdb, prefix
}

func TestStateField(t *testing.T) {
	cases := []struct {
		n     domain.Notification
		field string
		value string
	}{
		{domain.LoadingStartedFor("m"), "loading", "1"},
		{domain.LoadingFinishedFor("m"), "loading", "0"},
		{domain.ErrorClearedFor("m"), "error", ""},
		{domain.ErrorSetFor("m", domain.GenericErrorMessage), "error", domain.GenericErrorMessage},
		{domain.DataSetFor("m", domain.Dataset{"total": 1}), "data", `{"total":1}`},
		{domain.AggregateDataSetFor("m", domain.Dataset{"total": 2}), "aggregate", `{"total":2}`},
		{domain.Notification{Kind: "unknown", Key: "m"}, "", ""},
	}

	for _, tc := range cases {
		field, value, err := stateField(tc.n)
		require.NoError(t, err)
		assert.Equal(t, tc.field, field, string(tc.n.Kind))
		assert.Equal(t, tc.value, value, string(tc.n.Kind))
	}
}

func TestRedisStateStore_RoundTrip(t *testing.T) {
	rdb, prefix := testRedis(t)
	ctx := context.Background()
	s := NewRedisStateStore(ctx, rdb, WithStatePrefix(prefix+":state"))

	_, ok, err := s.Snapshot(ctx, "revenue")
	require.NoError(t, err)
	assert.False(t, ok)

	s.Notify(domain.LoadingStartedFor("revenue"), domain.ErrorClearedFor("revenue"))
	s.Notify(
		domain.DataSetFor("revenue", domain.Dataset{"total": 100}),
		domain.AggregateDataSetFor("revenue", domain.Dataset{"total": 100, "compareTotal": 90}),
		domain.LoadingFinishedFor("revenue"),
	)

	st, ok, err := s.Snapshot(ctx, "revenue")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.EqualValues(t, 100, st.Data["total"])
	assert.EqualValues(t, 90, st.Aggregate["compareTotal"])
}

func TestRedisStatsStore_Record(t *testing.T) {
	rdb, prefix := testRedis(t)
	ctx := context.Background()
	s := NewRedisStatsStore(rdb,
		WithStatsPrefix(prefix+":stats:"),
		WithStatsTTL(time.Minute),
		WithStatsTrackKeys(true),
	)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Record(ctx, domain.StatsEvent{Key: "revenue", Outcome: domain.OutcomeDispatched, At: at}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Key: "revenue", Outcome: domain.OutcomeSuperseded, At: at}))

	p := strings.TrimSuffix(prefix+":stats:", ":")
	total, err := rdb.HGetAll(ctx, p+":total").Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dispatched": "1", "superseded": "1"}, total)

	bucket, err := rdb.HGet(ctx, p+":minute:202401020304", "dispatched").Result()
	require.NoError(t, err)
	assert.Equal(t, "1", bucket)

	ttl, err := rdb.TTL(ctx, p+":key:revenue").Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
}

func TestRedisStatsStore_NilClientIsNoop(t *testing.T) {
	var s *RedisStatsStore
	assert.NoError(t, s.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeDispatched}))
}

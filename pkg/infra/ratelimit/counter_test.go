package ratelimit_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/rimareum/gatekeeper/pkg/infra/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Unix(1740730536, 0)

func TestLimits_Risk(t *testing.T) {
	l := ratelimit.Limits{PerMinute: 5, PerHour: 100}
	tests := []struct {
		name   string
		counts ratelimit.Counts
		want   float64
	}{
		{"under both", ratelimit.Counts{Minute: 5, Hour: 100}, 0},
		{"minute exceeded", ratelimit.Counts{Minute: 6, Hour: 6}, ratelimit.MinuteRisk},
		{"hour exceeded", ratelimit.Counts{Minute: 1, Hour: 101}, ratelimit.HourRisk},
		{"minute wins", ratelimit.Counts{Minute: 6, Hour: 101}, ratelimit.MinuteRisk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.Risk(tt.counts))
		})
	}
	assert.Equal(t, ratelimit.MinuteRisk, ratelimit.Limits{}.Risk(ratelimit.Counts{Minute: 6}))
}

func TestMemoryCounter_Windows(t *testing.T) {
	c := ratelimit.NewMemoryCounter(0)
	defer c.Close()
	ctx := context.Background()

	var counts ratelimit.Counts
	for i := 0; i < 6; i++ {
		var err error
		counts, err = c.Hit(ctx, "1.2.3.4", t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}
	assert.Equal(t, ratelimit.Counts{Minute: 6, Hour: 6}, counts)

	counts, err := c.Hit(ctx, "1.2.3.4", t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, ratelimit.Counts{Minute: 1, Hour: 7}, counts)

	counts, err = c.Hit(ctx, "1.2.3.4", t0.Add(time.Hour+3*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, ratelimit.Counts{Minute: 1, Hour: 1}, counts)
}

func TestMemoryCounter_HourLimit(t *testing.T) {
	c := ratelimit.NewMemoryCounter(0)
	defer c.Close()
	l := ratelimit.Limits{PerMinute: 5, PerHour: 100}

	var risk float64
	for i := 0; i < 101; i++ {
		counts, err := c.Hit(context.Background(), "9.9.9.9", t0.Add(time.Duration(i)*30*time.Second))
		require.NoError(t, err)
		risk = l.Risk(counts)
		if i < 100 {
			require.Zero(t, risk, "hit %d", i+1)
		}
	}
	assert.Equal(t, ratelimit.HourRisk, risk)
}

func TestMemoryCounter_Concurrent(t *testing.T) {
	c := ratelimit.NewMemoryCounter(0)
	defer c.Close()

	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_, _ = c.Hit(context.Background(), "1.2.3.4", t0)
			}
		}()
	}
	wg.Wait()

	counts, err := c.Hit(context.Background(), "1.2.3.4", t0)
	require.NoError(t, err)
	assert.Equal(t, int64(501), counts.Minute)
}

func TestMemoryCounter_HitsSurviveConcurrentSweep(t *testing.T) {
	c := ratelimit.NewMemoryCounter(0)
	defer c.Close()

	stop := make(chan struct{})
	swept := make(chan struct{})
	go func() {
		defer close(swept)
		for {
			select {
			case <-stop:
				return
			default:
				c.Sweep(t0)
			}
		}
	}()

	const workers, keys = 8, 200
	var wg sync.WaitGroup
	for g := 0; g < workers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < keys; i++ {
				_, _ = c.Hit(context.Background(), strconv.Itoa(g)+"-"+strconv.Itoa(i), t0)
			}
		}(g)
	}
	wg.Wait()
	close(stop)
	<-swept

	for g := 0; g < workers; g++ {
		for i := 0; i < keys; i++ {
			key := strconv.Itoa(g) + "-" + strconv.Itoa(i)
			counts, err := c.Hit(context.Background(), key, t0)
			require.NoError(t, err)
			require.Equal(t, int64(2), counts.Minute, key)
		}
	}
}

func TestMemoryCounter_Sweep(t *testing.T) {
	c := ratelimit.NewMemoryCounter(0)
	defer c.Close()
	_, _ = c.Hit(context.Background(), "old", t0)
	_, _ = c.Hit(context.Background(), "new", t0.Add(30*time.Minute))

	assert.Equal(t, 1, c.Sweep(t0.Add(time.Hour+time.Second)))
	assert.Equal(t, 1, c.Len())
}

func TestRedisCounter_Hit(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()

	key := ratelimit.RedisKey("1.2.3.4")
	uid := uuid.New()
	nowMs := t0.UnixMilli()
	hourStart := strconv.FormatInt(t0.Add(-time.Hour).UnixMilli(), 10)
	minuteStart := strconv.FormatInt(t0.Add(-time.Minute).UnixMilli(), 10)

	mock.ExpectTxPipeline()
	mock.ExpectZRemRangeByScore(key, "0", hourStart).SetVal(0)
	mock.ExpectZAdd(key, &redis.Z{
		Score:  float64(nowMs),
		Member: strconv.FormatInt(nowMs, 10) + ":" + uid.String(),
	}).SetVal(1)
	mock.ExpectZCount(key, "("+minuteStart, "+inf").SetVal(6)
	mock.ExpectZCard(key).SetVal(42)
	mock.ExpectExpire(key, time.Hour).SetVal(true)
	mock.ExpectTxPipelineExec()

	counter := ratelimit.NewRedisCounter(redisMock, &ratelimit.RedisCounterOpts{
		UuidProvider: func() uuid.UUID { return uid },
	})
	counts, err := counter.Hit(context.Background(), "1.2.3.4", t0)

	require.NoError(t, err)
	assert.Equal(t, ratelimit.Counts{Minute: 6, Hour: 42}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCounter_PipelineError(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()
	key := ratelimit.RedisKey("1.2.3.4")
	uid := uuid.New()

	mock.ExpectTxPipeline()
	mock.ExpectZRemRangeByScore(key, "0", strconv.FormatInt(t0.Add(-time.Hour).UnixMilli(), 10)).
		SetErr(errors.New("connection refused"))

	counter := ratelimit.NewRedisCounter(redisMock, &ratelimit.RedisCounterOpts{
		UuidProvider: func() uuid.UUID { return uid },
	})
	_, err := counter.Hit(context.Background(), "1.2.3.4", t0)
	assert.Error(t, err)
}

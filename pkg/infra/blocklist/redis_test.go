package blocklist_test

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/rimareum/gatekeeper/pkg/infra/blocklist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

func TestRedisStore_Block(t *testing.T) {
	client, mock := redismock.NewClientMock()
	entry := security.NewBlockEntry("1.2.3.4", security.BlockReasonHighRisk, "rate", now, 24*time.Hour)
	data, err := json.Marshal(entry)
	require.NoError(t, err)

	mock.ExpectTxPipeline()
	mock.ExpectSet(blocklist.BlockKey("1.2.3.4"), data, 24*time.Hour).SetVal("OK")
	mock.ExpectZAdd("gatekeeper:blocks", &redis.Z{
		Score:  float64(entry.ExpiresAt.UnixMilli()),
		Member: "1.2.3.4",
	}).SetVal(1)
	mock.ExpectTxPipelineExec()

	store := blocklist.NewRedisStore(client, fixedNow)
	require.NoError(t, store.Block(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_BlockAlreadyExpired(t *testing.T) {
	client, mock := redismock.NewClientMock()
	entry := security.NewBlockEntry("1.2.3.4", security.BlockReasonHighRisk, "", now.Add(-2*time.Hour), time.Hour)

	store := blocklist.NewRedisStore(client, fixedNow)
	require.NoError(t, store.Block(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Get(t *testing.T) {
	client, mock := redismock.NewClientMock()
	entry := security.NewBlockEntry("1.2.3.4", security.BlockReasonGeo, "US", now, time.Hour)
	data, _ := json.Marshal(entry)

	mock.ExpectGet(blocklist.BlockKey("1.2.3.4")).SetVal(string(data))
	mock.ExpectGet(blocklist.BlockKey("5.6.7.8")).RedisNil()

	store := blocklist.NewRedisStore(client, fixedNow)
	got, err := store.Get(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, security.BlockReasonGeo, got.Reason)
	assert.True(t, entry.ExpiresAt.Equal(got.ExpiresAt))

	_, err = store.Get(context.Background(), "5.6.7.8")
	assert.ErrorIs(t, err, security.ErrBlockNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Unblock(t *testing.T) {
	client, mock := redismock.NewClientMock()

	mock.ExpectTxPipeline()
	mock.ExpectDel(blocklist.BlockKey("1.2.3.4")).SetVal(1)
	mock.ExpectZRem("gatekeeper:blocks", "1.2.3.4").SetVal(1)
	mock.ExpectTxPipelineExec()

	mock.ExpectTxPipeline()
	mock.ExpectDel(blocklist.BlockKey("9.9.9.9")).SetVal(0)
	mock.ExpectZRem("gatekeeper:blocks", "9.9.9.9").SetVal(0)
	mock.ExpectTxPipelineExec()

	store := blocklist.NewRedisStore(client, fixedNow)
	assert.NoError(t, store.Unblock(context.Background(), "1.2.3.4"))
	assert.ErrorIs(t, store.Unblock(context.Background(), "9.9.9.9"), security.ErrBlockNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ListAndCount(t *testing.T) {
	client, mock := redismock.NewClientMock()
	nowMs := strconv.FormatInt(now.UnixMilli(), 10)
	entry := security.NewBlockEntry("1.2.3.4", security.BlockReasonHoneypot, "/.env", now, time.Hour)
	data, _ := json.Marshal(entry)

	mock.ExpectZRemRangeByScore("gatekeeper:blocks", "-inf", nowMs).SetVal(1)
	mock.ExpectZRevRange("gatekeeper:blocks", 0, -1).SetVal([]string{"1.2.3.4", "5.6.7.8"})
	mock.ExpectMGet(blocklist.BlockKey("1.2.3.4"), blocklist.BlockKey("5.6.7.8")).SetVal([]interface{}{string(data), nil})
	mock.ExpectZRemRangeByScore("gatekeeper:blocks", "-inf", nowMs).SetVal(0)
	mock.ExpectZCard("gatekeeper:blocks").SetVal(1)

	store := blocklist.NewRedisStore(client, fixedNow)
	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1.2.3.4", list[0].IP)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waassist/connector/pkg/config"
)

func openTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	l, err := OpenRedis(srv.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, srv
}

func TestRedis_ContainsMatchesDigitsOnly(t *testing.T) {
	ctx := context.Background()
	l, srv := openTestRedis(t)

	require.NoError(t, l.Append(ctx, 1, Entry{Phone: "+55 (11) 99999-9999", Message: "hi"}))

	found, err := l.Contains(ctx, 1, "55 11 99999 9999")
	require.NoError(t, err)
	assert.True(t, found)
	fields, err := srv.HKeys("ledger:org:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"5511999999999"}, fields)

	found, err = l.Contains(ctx, 1, "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_ScopedPerOrganization(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestRedis(t)

	require.NoError(t, l.Append(ctx, 1, Entry{Phone: "5511999999999"}))

	found, err := l.Contains(ctx, 2, "5511999999999")
	require.NoError(t, err)
	assert.False(t, found)

	entries, err := l.Entries(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRedis_EntriesOldestFirst(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestRedis(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, l.Append(ctx, 1, Entry{Phone: "222", Message: "second", SentAt: now}))
	require.NoError(t, l.Append(ctx, 1, Entry{Phone: "111", Message: "first", SentAt: now.Add(-time.Minute)}))

	entries, err := l.Entries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
	assert.True(t, entries[1].SentAt.Equal(now))
}

func TestRedis_AppendRejectsEmptyPhoneAndDefaultsTime(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestRedis(t)

	assert.Error(t, l.Append(ctx, 1, Entry{Phone: "(  )", Message: "hi"}))

	require.NoError(t, l.Append(ctx, 1, Entry{Phone: "5511999999999"}))
	entries, err := l.Entries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].SentAt.IsZero())
}

func TestRedis_CorruptEntry(t *testing.T) {
	l, srv := openTestRedis(t)
	srv.HSet("ledger:org:1", "5511999999999", "not json")

	_, err := l.Entries(context.Background(), 1)
	assert.ErrorContains(t, err, "decode ledger entry")
}

func TestOpen_RedisDriver(t *testing.T) {
	srv := miniredis.RunT(t)

	l, err := Open(config.Ledger{Driver: "redis", RedisAddr: srv.Addr()})
	require.NoError(t, err)
	defer l.Close()
	_, ok := l.(*Redis)
	assert.True(t, ok)

	_, err = Open(config.Ledger{Driver: "redis"})
	assert.Error(t, err)
}

package follower

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDedup(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDedup()

	seen, err := m.Seen(ctx, "1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, m.Mark(ctx, "1"))
	seen, _ = m.Seen(ctx, "1")
	assert.True(t, seen)
}

func TestRedisDedup(t *testing.T) {
	ctx := context.Background()
	db, rmock := redismock.NewClientMock()
	r := NewRedisDedup(db, "processed")

	rmock.ExpectSIsMember("processed", "1700000000").SetVal(false)
	rmock.ExpectSAdd("processed", "1700000000").SetVal(1)
	rmock.ExpectSIsMember("processed", "1700000000").SetVal(true)
	rmock.ExpectSIsMember("processed", "2").SetErr(errors.New("connection refused"))

	seen, err := r.Seen(ctx, "1700000000")
	require.NoError(t, err)
	assert.False(t, seen)
	require.NoError(t, r.Mark(ctx, "1700000000"))
	seen, err = r.Seen(ctx, "1700000000")
	require.NoError(t, err)
	assert.True(t, seen)

	_, err = r.Seen(ctx, "2")
	assert.Error(t, err)

	assert.NoError(t, rmock.ExpectationsWereMet())
}

package pgxutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxOptions(t *testing.T) {
	assert.Equal(t, pgx.TxOptions{}, TxOptions(nil))

	got := TxOptions(&sql.TxOptions{Isolation: sql.LevelSerializable, ReadOnly: true})
	assert.Equal(t, pgx.Serializable, got.IsoLevel)
	assert.Equal(t, pgx.ReadOnly, got.AccessMode)

	got = TxOptions(&sql.TxOptions{Isolation: sql.LevelReadCommitted})
	assert.Equal(t, pgx.ReadCommitted, got.IsoLevel)
	assert.Equal(t, pgx.ReadWrite, got.AccessMode)
}

func TestWithPgxConnNilDB(t *testing.T) {
	err := WithPgxConn(context.Background(), nil, func(*pgx.Conn) error { return nil })
	require.Error(t, err)
}

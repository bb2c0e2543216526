package inmemory

import (
	"log/slog"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchparty/server/internal/repository/connection"
)

func TestAddAndGet(t *testing.T) {
	r := NewRepo(slog.Default())

	conn := connection.NewConn("conn-1", &websocket.Conn{})
	require.NoError(t, r.Add(conn))

	got, err := r.Get("conn-1")
	require.NoError(t, err)
	assert.Equal(t, conn, got)

	assert.ErrorIs(t, r.Add(conn), connection.ErrAlreadyExists)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

func TestSetRoomReplacesBinding(t *testing.T) {
	r := NewRepo(slog.Default())
	require.NoError(t, r.Add(connection.NewConn("conn-1", &websocket.Conn{})))

	prev, err := r.SetRoom("conn-1", "AB12CD")
	require.NoError(t, err)
	assert.Empty(t, prev)

	prev, err = r.SetRoom("conn-1", "XY99ZZ")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", prev)

	roomCode, err := r.GetRoom("conn-1")
	require.NoError(t, err)
	assert.Equal(t, "XY99ZZ", roomCode)
}

func TestRemove(t *testing.T) {
	r := NewRepo(slog.Default())
	conn := connection.NewConn("conn-1", &websocket.Conn{})
	require.NoError(t, r.Add(conn))

	removed, err := r.Remove("conn-1")
	require.NoError(t, err)
	assert.Equal(t, conn, removed)

	_, err = r.Get("conn-1")
	assert.ErrorIs(t, err, connection.ErrNotFound)

	_, err = r.Remove("conn-1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

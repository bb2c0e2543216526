package inmemory

import (
	"log/slog"
	"sync"

	"github.com/watchparty/server/internal/repository/connection"
)

type entry struct {
	conn     *connection.Conn
	roomCode string
}

type repo struct {
	conns  map[string]*entry
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		conns:  make(map[string]*entry),
		logger: logger,
	}
}

func (r *repo) Add(conn *connection.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.Id()]; ok {
		return connection.ErrAlreadyExists
	}

	r.conns[conn.Id()] = &entry{conn: conn}

	r.logger.Debug("connection added", "conn_id", conn.Id())
	return nil
}

// Remove unbinds the connection and returns it so the caller can close the
// underlying socket.
func (r *repo) Remove(connId string) (*connection.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	delete(r.conns, connId)

	r.logger.Debug("connection removed", "conn_id", connId)
	return e.conn, nil
}

func (r *repo) Get(connId string) (*connection.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return e.conn, nil
}

// SetRoom records the room the connection is bound to, replacing any prior
// binding. The previous room code is returned, empty if there was none.
func (r *repo) SetRoom(connId string, roomCode string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connId]
	if !ok {
		return "", connection.ErrNotFound
	}

	prev := e.roomCode
	e.roomCode = roomCode

	r.logger.Debug("connection bound to room", "conn_id", connId, "room_code", roomCode)
	return prev, nil
}

func (r *repo) GetRoom(connId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connId]
	if !ok {
		return "", connection.ErrNotFound
	}

	return e.roomCode, nil
}

package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Conn is the subset of a websocket connection the router needs. Reads are
// only ever issued from the ServeConn goroutine; writes may happen from any
// goroutine, so implementations must make WriteJSON safe for concurrent use.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
}

type HandlerFunc func(ctx context.Context, conn Conn, payload json.RawMessage) error

// ErrorFunc is invoked when a handler returns an error or an unknown message
// type arrives. The serve loop continues afterwards.
type ErrorFunc func(ctx context.Context, conn Conn, err error)

type Middleware func(next HandlerFunc) HandlerFunc

type WSRouter struct {
	routes      map[string]HandlerFunc
	middlewares []Middleware
	onError     ErrorFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

// Use registers middleware wrapped around every handler, outermost first.
// Must be called before Handle.
func (r *WSRouter) Use(middlewares ...Middleware) {
	r.middlewares = append(r.middlewares, middlewares...)
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}
	r.routes[messageType] = handler
}

func (r *WSRouter) OnError(f ErrorFunc) {
	r.onError = f
}

// ServeConn reads messages from the connection and dispatches them to the
// registered handlers until the read side fails or ctx is done. Handlers run
// sequentially, preserving the sender's message order.
func (r *WSRouter) ServeConn(ctx context.Context, conn Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			r.handleError(ctx, conn, fmt.Errorf("unknown message type %q", msg.Type))
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := handler(msgCtx, conn, msg.Payload); err != nil {
			r.handleError(msgCtx, conn, err)
		}
	}
}

func (r *WSRouter) handleError(ctx context.Context, conn Conn, err error) {
	if r.onError != nil {
		r.onError(ctx, conn, err)
	}
}

package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/rest"
)

// serveWS is the entry point for every real-time connection. The credential
// is taken from the handshake request and verified before the upgrade; a
// rejected connection receives the reason and is never upgraded, so no
// room-scoped event can originate from an unauthenticated session.
func (c *controller) serveWS(w http.ResponseWriter, r *http.Request) {
	identity, err := c.authService.Verify(c.getCredential(r))
	if err != nil {
		c.logger.DebugContext(r.Context(), "websocket handshake rejected", "error", err)
		rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": authErrorMessage(err)})
		return
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer ws.Close()

	connId := uuid.NewString()
	conn := connection.NewConn(connId, ws)

	ctx := context.WithValue(r.Context(), connIdCtxKey, connId)
	ctx = context.WithValue(ctx, identityCtxKey, identity)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("conn_id", connId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", identity.UserId))

	if err := c.roomService.Connect(ctx, &room.ConnectParams{Conn: conn}); err != nil {
		c.logger.WarnContext(ctx, "failed to register connection", "error", err)
		return
	}
	defer func() {
		if err := c.roomService.Disconnect(ctx, connId); err != nil {
			c.logger.WarnContext(ctx, "failed to disconnect", "error", err)
		}
	}()

	c.logger.InfoContext(ctx, "websocket connected", "username", identity.Username)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(ctx, "websocket closed", "reason", err)
	}
}

package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/wsrouter"
)

var ErrValidationError = errors.New("validation error")

func (c *controller) unmarshalInput(payload json.RawMessage, dst any) error {
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %s", ErrValidationError, err)
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		return fmt.Errorf("%w: %v", ErrValidationError, validationErrors)
	}

	return nil
}

// broadcast fans the output out to every target connection. A failed write
// means that member's socket is going away; it is logged and skipped so the
// remaining members still get the event.
func (c *controller) broadcast(ctx context.Context, conns []*connection.Conn, out *Output) {
	for _, conn := range conns {
		if err := conn.WriteJSON(out); err != nil {
			c.logger.DebugContext(ctx, "failed to write to member", "conn_id", conn.Id(), "error", err)
		}
	}
}

// handleWSError acknowledges a failed message to its sender. The relay to
// the room has already been skipped by the time this runs.
func (c *controller) handleWSError(ctx context.Context, conn wsrouter.Conn, err error) {
	c.logger.DebugContext(ctx, "websocket message failed", "error", err)

	if writeErr := conn.WriteJSON(&Output{
		Type: "ERROR",
		Payload: map[string]any{
			"error": wsErrorMessage(err),
		},
	}); writeErr != nil {
		c.logger.DebugContext(ctx, "failed to write error ack", "error", writeErr)
	}
}

func wsErrorMessage(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return "room not found"
	case errors.Is(err, room.ErrRoomFull):
		return "room is full"
	case errors.Is(err, room.ErrNotInRoom):
		return "not a member of this room"
	case errors.Is(err, ErrValidationError):
		return err.Error()
	default:
		return "internal error"
	}
}

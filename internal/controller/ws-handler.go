package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/wsrouter"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c *controller) handleAlive(_ context.Context, _ wsrouter.Conn, _ json.RawMessage) error {
	return nil
}

type joinRoomInput struct {
	RoomCode string `json:"room_code" validate:"required,len=6"`
}

func (c *controller) handleJoinRoom(ctx context.Context, conn wsrouter.Conn, payload json.RawMessage) error {
	var input joinRoomInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		return err
	}

	identity := c.getIdentityFromCtx(ctx)
	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		ConnId:   c.getConnIdFromCtx(ctx),
		UserId:   identity.UserId,
		Username: identity.Username,
		RoomCode: input.RoomCode,
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	if err := conn.WriteJSON(&Output{
		Type: "JOINED_ROOM",
		Payload: map[string]any{
			"room": joinRoomResp.Room,
		},
	}); err != nil {
		return fmt.Errorf("failed to write join ack: %w", err)
	}

	c.broadcast(ctx, joinRoomResp.Conns, &Output{
		Type: "MEMBER_JOINED",
		Payload: map[string]any{
			"username": identity.Username,
		},
	})

	return nil
}

type chatMessageInput struct {
	RoomCode string `json:"room_code" validate:"required,len=6"`
	Message  string `json:"message" validate:"required,max=2048"`
}

func (c *controller) handleChatMessage(ctx context.Context, conn wsrouter.Conn, payload json.RawMessage) error {
	var input chatMessageInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		return err
	}

	identity := c.getIdentityFromCtx(ctx)
	relayResp, err := c.roomService.RelayChat(ctx, &room.RelayChatParams{
		ConnId:   c.getConnIdFromCtx(ctx),
		RoomCode: input.RoomCode,
		Sender:   identity.Username,
		Text:     input.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to relay chat message: %w", err)
	}

	c.broadcast(ctx, relayResp.Conns, &Output{
		Type: "CHAT_MESSAGE",
		Payload: map[string]any{
			"sender": identity.Username,
			"text":   input.Message,
		},
	})

	return nil
}

type playerEventInput struct {
	RoomCode string             `json:"room_code" validate:"required,len=6"`
	Event    room.PlaybackEvent `json:"event" validate:"required"`
}

func (c *controller) handlePlayerEvent(ctx context.Context, conn wsrouter.Conn, payload json.RawMessage) error {
	var input playerEventInput
	if err := c.unmarshalInput(payload, &input); err != nil {
		return err
	}
	if input.Event.Type == "" {
		return fmt.Errorf("event type: %w", ErrValidationError)
	}

	identity := c.getIdentityFromCtx(ctx)
	relayResp, err := c.roomService.RelayPlayback(ctx, &room.RelayPlaybackParams{
		ConnId:   c.getConnIdFromCtx(ctx),
		RoomCode: input.RoomCode,
		Username: identity.Username,
		Event:    input.Event,
	})
	if err != nil {
		return fmt.Errorf("failed to relay player event: %w", err)
	}

	c.broadcast(ctx, relayResp.Conns, &Output{
		Type:    "PLAYER_EVENT",
		Payload: relayResp.Event,
	})

	return nil
}

package room

import (
	"context"
	"errors"
	"strconv"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/service/audit"
)

// getConnsByRoomCode resolves the room's member set to live connections at
// the instant of the call. Member ids without a live connection belong to
// sessions that just disconnected and are skipped, not errors. A non-empty
// excludeConnId leaves that connection out of the result.
func (s *service) getConnsByRoomCode(ctx context.Context, roomCode string, excludeConnId string) ([]*connection.Conn, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomCode)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get member ids", "error", err)
		return nil, err
	}

	conns := make([]*connection.Conn, 0, len(memberIds))
	for _, memberId := range memberIds {
		if memberId == excludeConnId {
			continue
		}

		conn, err := s.connRepo.Get(memberId)
		if err != nil {
			if errors.Is(err, connection.ErrNotFound) {
				s.logger.DebugContext(ctx, "member has no live connection, skipping", "conn_id", memberId)
				continue
			}
			return nil, err
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

// checkBinding confirms the connection is currently bound to the room it is
// emitting for. Cross-room relays are rejected, never delivered.
func (s *service) checkBinding(connId string, roomCode string) error {
	bound, err := s.connRepo.GetRoom(connId)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return ErrConnectionNotFound
		}
		return err
	}

	if bound != roomCode {
		return ErrNotInRoom
	}

	return nil
}

type RelayChatParams struct {
	ConnId   string
	RoomCode string
	Sender   string
	Text     string
}

type RelayChatResponse struct {
	// Conns includes the sender: everyone in the room sees the message,
	// origin included.
	Conns []*connection.Conn
}

func (s *service) RelayChat(ctx context.Context, params *RelayChatParams) (RelayChatResponse, error) {
	if err := s.checkBinding(params.ConnId, params.RoomCode); err != nil {
		return RelayChatResponse{}, err
	}

	conns, err := s.getConnsByRoomCode(ctx, params.RoomCode, "")
	if err != nil {
		return RelayChatResponse{}, err
	}

	s.auditSink.RecordChat(&audit.RecordChatParams{
		RoomCode: params.RoomCode,
		Sender:   params.Sender,
		Text:     params.Text,
	})

	return RelayChatResponse{Conns: conns}, nil
}

type RelayPlaybackParams struct {
	ConnId   string
	RoomCode string
	Username string
	Event    PlaybackEvent
}

type RelayPlaybackResponse struct {
	Conns []*connection.Conn
	Event PlaybackEvent
}

func (s *service) RelayPlayback(ctx context.Context, params *RelayPlaybackParams) (RelayPlaybackResponse, error) {
	if err := s.checkBinding(params.ConnId, params.RoomCode); err != nil {
		return RelayPlaybackResponse{}, err
	}

	conns, err := s.getConnsByRoomCode(ctx, params.RoomCode, "")
	if err != nil {
		return RelayPlaybackResponse{}, err
	}

	s.auditSink.RecordPlayback(&audit.RecordPlaybackParams{
		RoomCode: params.RoomCode,
		Username: params.Username,
		Event:    params.Event.Type,
		Position: strconv.FormatFloat(params.Event.Time, 'f', -1, 64),
	})

	return RelayPlaybackResponse{
		Conns: conns,
		Event: params.Event,
	}, nil
}

package room

import (
	"context"
	"errors"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
	"github.com/watchparty/server/internal/service/audit"
)

type ConnectParams struct {
	Conn *connection.Conn
}

// Connect registers an authenticated live connection. It is not yet a member
// of any room until JoinRoom.
func (s *service) Connect(ctx context.Context, params *ConnectParams) error {
	if err := s.connRepo.Add(params.Conn); err != nil {
		s.logger.InfoContext(ctx, "failed to add connection", "error", err)
		return err
	}

	return nil
}

// Disconnect removes the connection from its bound room's member set and
// drops it from the connection registry. Safe to call for connections that
// never joined a room.
func (s *service) Disconnect(ctx context.Context, connId string) error {
	roomCode, err := s.connRepo.GetRoom(connId)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return nil
		}
		return err
	}

	if roomCode != "" {
		if err := s.roomRepo.RemoveMemberFromList(ctx, &room.RemoveMemberParams{
			RoomCode: roomCode,
			ConnId:   connId,
		}); err != nil {
			s.logger.InfoContext(ctx, "failed to remove member from list", "error", err)
		}
	}

	// closing the socket is the transport layer's job
	if _, err := s.connRepo.Remove(connId); err != nil {
		return err
	}

	return nil
}

type JoinRoomParams struct {
	ConnId   string
	UserId   string
	Username string
	RoomCode string
}

type JoinRoomResponse struct {
	Room Room
	// Conns are the members present before the join, the targets of the
	// membership-changed broadcast.
	Conns []*connection.Conn
}

// JoinRoom binds the connection to the room, replacing any prior binding. A
// connection is a member of at most one room at a time; joining the room it
// is already in changes nothing.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	r, err := s.GetRoom(ctx, params.RoomCode)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	alreadyMember, err := s.roomRepo.IsMember(ctx, params.RoomCode, params.ConnId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	// A re-join changes no membership, so there is nobody to notify.
	var conns []*connection.Conn
	if !alreadyMember {
		count, err := s.roomRepo.GetMembersCount(ctx, params.RoomCode)
		if err != nil {
			return JoinRoomResponse{}, err
		}
		if count >= s.membersLimit {
			return JoinRoomResponse{}, ErrRoomFull
		}

		conns, err = s.getConnsByRoomCode(ctx, params.RoomCode, params.ConnId)
		if err != nil {
			return JoinRoomResponse{}, err
		}
	}

	prev, err := s.connRepo.SetRoom(params.ConnId, params.RoomCode)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return JoinRoomResponse{}, ErrConnectionNotFound
		}
		return JoinRoomResponse{}, err
	}

	if prev != "" && prev != params.RoomCode {
		if err := s.roomRepo.RemoveMemberFromList(ctx, &room.RemoveMemberParams{
			RoomCode: prev,
			ConnId:   params.ConnId,
		}); err != nil {
			s.logger.InfoContext(ctx, "failed to leave previous room", "error", err)
		}
	}

	if err := s.roomRepo.AddMemberToList(ctx, &room.AddMemberParams{
		RoomCode: params.RoomCode,
		ConnId:   params.ConnId,
	}); err != nil {
		return JoinRoomResponse{}, err
	}

	s.auditSink.RecordMembership(&audit.RecordMembershipParams{
		RoomCode: params.RoomCode,
		UserId:   params.UserId,
		Username: params.Username,
	})

	return JoinRoomResponse{
		Room:  r,
		Conns: conns,
	}, nil
}

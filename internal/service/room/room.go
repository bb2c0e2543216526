package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchparty/server/internal/repository/room"
)

type CreateRoomParams struct {
	HostId   string
	HostName string
	Title    string
	WatchURL string
}

type CreateRoomResponse struct {
	Code string
}

// CreateRoom persists the room under a freshly generated code. The code is
// reserved in the store, so a collision with an existing room is detected
// and retried instead of trusting entropy alone.
func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	for attempt := 0; attempt < codeGenerateAttempts; attempt++ {
		code := s.generateRoomCode()

		err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
			Code:     code,
			Title:    params.Title,
			WatchURL: params.WatchURL,
			HostId:   params.HostId,
			HostName: params.HostName,
		})
		if err != nil {
			if errors.Is(err, room.ErrRoomAlreadyExists) {
				s.logger.InfoContext(ctx, "room code collision, retrying", "code", code)
				continue
			}
			s.logger.InfoContext(ctx, "failed to set room", "error", err)
			return CreateRoomResponse{}, err
		}

		return CreateRoomResponse{Code: code}, nil
	}

	return CreateRoomResponse{}, ErrCodeSpaceExhausted
}

func (s *service) GetRoom(ctx context.Context, code string) (Room, error) {
	r, err := s.roomRepo.GetRoom(ctx, code)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return Room{}, ErrRoomNotFound
		}
		return Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	return Room{
		Code:      r.Code,
		Title:     r.Title,
		WatchURL:  r.WatchURL,
		HostName:  r.HostName,
		CreatedAt: r.CreatedAt,
	}, nil
}

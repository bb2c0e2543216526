package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc      *redis.Client
	roomTTL time.Duration
	logger  *slog.Logger
}

func NewRepo(rc *redis.Client, roomTTL time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:      rc,
		roomTTL: roomTTL,
		logger:  logger,
	}
}

func (r repo) getRoomKey(roomCode string) string {
	return "room:" + roomCode
}

func (r repo) getMemberListKey(roomCode string) string {
	return "room:" + roomCode + ":members"
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	_, err := pipe.Exec(ctx)
	return err
}

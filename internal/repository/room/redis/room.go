package redis

import (
	"context"
	"time"

	"github.com/watchparty/server/internal/repository/room"
)

type roomHash struct {
	Code      string `redis:"code"`
	Title     string `redis:"title"`
	WatchURL  string `redis:"watch_url"`
	HostId    string `redis:"host_id"`
	HostName  string `redis:"host_name"`
	CreatedAt int64  `redis:"created_at"`
}

// SetRoom reserves the room code and stores the metadata. The code field is
// written with HSETNX first so a concurrent create of the same code loses
// with ErrRoomAlreadyExists instead of overwriting.
func (r repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	roomKey := r.getRoomKey(params.Code)

	reserved, err := r.rc.HSetNX(ctx, roomKey, "code", params.Code).Result()
	if err != nil {
		return err
	}
	if !reserved {
		return room.ErrRoomAlreadyExists
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, roomKey, roomHash{
		Code:      params.Code,
		Title:     params.Title,
		WatchURL:  params.WatchURL,
		HostId:    params.HostId,
		HostName:  params.HostName,
		CreatedAt: time.Now().Unix(),
	})
	pipe.Expire(ctx, roomKey, r.roomTTL)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomCode string) (room.Room, error) {
	r.logger.DebugContext(ctx, "called", "room_code", roomCode)

	res := r.rc.HGetAll(ctx, r.getRoomKey(roomCode))
	if err := res.Err(); err != nil {
		return room.Room{}, err
	}

	if len(res.Val()) == 0 {
		return room.Room{}, room.ErrRoomNotFound
	}

	var h roomHash
	if err := res.Scan(&h); err != nil {
		return room.Room{}, err
	}

	return room.Room{
		Code:      h.Code,
		Title:     h.Title,
		WatchURL:  h.WatchURL,
		HostId:    h.HostId,
		HostName:  h.HostName,
		CreatedAt: time.Unix(h.CreatedAt, 0),
	}, nil
}

package redis

import (
	"context"

	"github.com/watchparty/server/internal/repository/room"
)

// AddMemberToList adds the connection to the room's member set and refreshes
// the room's expiry. Set semantics make a repeated add a no-op.
func (r repo) AddMemberToList(ctx context.Context, params *room.AddMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	memberListKey := r.getMemberListKey(params.RoomCode)

	pipe := r.rc.TxPipeline()
	pipe.SAdd(ctx, memberListKey, params.ConnId)
	pipe.Expire(ctx, memberListKey, r.roomTTL)
	pipe.Expire(ctx, r.getRoomKey(params.RoomCode), r.roomTTL)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) RemoveMemberFromList(ctx context.Context, params *room.RemoveMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	return r.rc.SRem(ctx, r.getMemberListKey(params.RoomCode), params.ConnId).Err()
}

func (r repo) GetMemberIds(ctx context.Context, roomCode string) ([]string, error) {
	return r.rc.SMembers(ctx, r.getMemberListKey(roomCode)).Result()
}

func (r repo) GetMembersCount(ctx context.Context, roomCode string) (int, error) {
	count, err := r.rc.SCard(ctx, r.getMemberListKey(roomCode)).Result()
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

func (r repo) IsMember(ctx context.Context, roomCode string, connId string) (bool, error) {
	return r.rc.SIsMember(ctx, r.getMemberListKey(roomCode), connId).Result()
}

// Package room implements the signaling core: room creation and lookup,
// binding live connections to rooms, and resolving the fan-out targets for
// room-scoped chat and playback events.
package room

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
	"github.com/watchparty/server/internal/service/audit"
	"github.com/watchparty/server/pkg/randstr"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrNotInRoom          = errors.New("connection is not a member of this room")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrCodeSpaceExhausted = errors.New("failed to generate a unique room code")
)

const codeGenerateAttempts = 5

type iRoomRepo interface {
	SetRoom(context.Context, *room.SetRoomParams) error
	GetRoom(context.Context, string) (room.Room, error)
	AddMemberToList(context.Context, *room.AddMemberParams) error
	RemoveMemberFromList(context.Context, *room.RemoveMemberParams) error
	GetMemberIds(context.Context, string) ([]string, error)
	GetMembersCount(context.Context, string) (int, error)
	IsMember(ctx context.Context, roomCode string, connId string) (bool, error)
}

type iConnRepo interface {
	Add(*connection.Conn) error
	Remove(connId string) (*connection.Conn, error)
	Get(connId string) (*connection.Conn, error)
	SetRoom(connId string, roomCode string) (string, error)
	GetRoom(connId string) (string, error)
}

type iAuditSink interface {
	RecordChat(*audit.RecordChatParams)
	RecordMembership(*audit.RecordMembershipParams)
	RecordPlayback(*audit.RecordPlaybackParams)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	MembersLimit int
	CodeLength   int
}

type service struct {
	roomRepo     iRoomRepo
	connRepo     iConnRepo
	auditSink    iAuditSink
	generator    iGenerator
	membersLimit int
	codeLength   int
	logger       *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, auditSink iAuditSink, cfg *Config, logger *slog.Logger) *service {
	return &service{
		roomRepo:     roomRepo,
		connRepo:     connRepo,
		auditSink:    auditSink,
		generator:    randstr.New([]byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")),
		membersLimit: cfg.MembersLimit,
		codeLength:   cfg.CodeLength,
		logger:       logger,
	}
}

func (s *service) generateRoomCode() string {
	return strings.ToUpper(s.generator.GenerateRandomString(s.codeLength))
}

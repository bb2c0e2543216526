package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/service/audit"
	"github.com/watchparty/server/internal/service/auth"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/validator"
	"github.com/watchparty/server/pkg/wsrouter"
)

type iRoomService interface {
	Connect(context.Context, *room.ConnectParams) error
	Disconnect(ctx context.Context, connId string) error
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	GetRoom(ctx context.Context, code string) (room.Room, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	RelayChat(context.Context, *room.RelayChatParams) (room.RelayChatResponse, error)
	RelayPlayback(context.Context, *room.RelayPlaybackParams) (room.RelayPlaybackResponse, error)
}

type iAuthService interface {
	Register(context.Context, *auth.RegisterParams) (auth.RegisterResponse, error)
	Login(context.Context, *auth.LoginParams) (auth.LoginResponse, error)
	Verify(credential string) (auth.Identity, error)
}

type iAuditSink interface {
	RecordPlayback(*audit.RecordPlaybackParams)
}

type controller struct {
	roomService iRoomService
	authService iAuthService
	auditSink   iAuditSink
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, authService iAuthService, auditSink iAuditSink, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		authService: authService,
		auditSink:   auditSink,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}

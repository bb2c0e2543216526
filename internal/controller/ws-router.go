package controller

import (
	"github.com/watchparty/server/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.loggerWSMw())

	mux.Handle("ALIVE", c.handleAlive)
	mux.Handle("JOIN_ROOM", c.handleJoinRoom)
	mux.Handle("CHAT_MESSAGE", c.handleChatMessage)
	mux.Handle("PLAYER_EVENT", c.handlePlayerEvent)

	mux.OnError(c.handleWSError)

	return mux
}

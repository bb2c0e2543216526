package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c *controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", c.register)
		r.Post("/login", c.login)
		r.Get("/room/{room-code}", c.getRoom)

		r.Group(func(r chi.Router) {
			r.Use(c.authMw)
			r.Post("/room", c.createRoom)
			r.Post("/logs", c.createPlaybackLog)
		})
	})

	r.Get("/ws", c.serveWS)

	return r
}

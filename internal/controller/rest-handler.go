package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watchparty/server/internal/service/audit"
	"github.com/watchparty/server/internal/service/auth"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/rest"
)

type registerInput struct {
	Username string `json:"username" validate:"required,min=2,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (c *controller) register(w http.ResponseWriter, r *http.Request) {
	var req registerInput

	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.authService.Register(r.Context(), &auth.RegisterParams{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			rest.WriteJSON(w, http.StatusConflict, rest.Envelope{"error": "username already taken"})
			return
		}
		c.logger.WarnContext(r.Context(), "failed to register user", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": map[string]any{
		"user_id": resp.UserId,
	}})
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *controller) login(w http.ResponseWriter, r *http.Request) {
	var req loginInput

	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.authService.Login(r.Context(), &auth.LoginParams{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidLogin) {
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "invalid username or password"})
			return
		}
		c.logger.WarnContext(r.Context(), "failed to login", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"token":    resp.Token,
		"username": resp.Username,
	}})
}

type createRoomInput struct {
	Title    string `json:"title" validate:"required,max=64"`
	WatchURL string `json:"watch_url" validate:"omitempty,url,max=2048"`
}

func (c *controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomInput

	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	identity := c.getIdentityFromCtx(r.Context())
	resp, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		HostId:   identity.UserId,
		HostName: identity.Username,
		Title:    req.Title,
		WatchURL: req.WatchURL,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to create room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": map[string]any{
		"room_code": resp.Code,
	}})
}

func (c *controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomCode := chi.URLParam(r, "room-code")

	roomResp, err := c.roomService.GetRoom(r.Context(), roomCode)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		c.logger.WarnContext(r.Context(), "failed to get room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": roomResp})
}

type createPlaybackLogInput struct {
	RoomCode  string `json:"room_code" validate:"required,len=6"`
	Event     string `json:"event" validate:"required,oneof=play pause seek"`
	Time      string `json:"time" validate:"required,max=32"`
	Service   string `json:"service" validate:"omitempty,max=32"`
	URL       string `json:"url" validate:"omitempty,max=2048"`
	Timestamp string `json:"timestamp" validate:"omitempty,max=40"`
}

// createPlaybackLog accepts playback logs from clients watching on external
// streaming services. The record goes to the audit sink; ingest never waits
// on storage, hence 202.
func (c *controller) createPlaybackLog(w http.ResponseWriter, r *http.Request) {
	var req createPlaybackLogInput

	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	identity := c.getIdentityFromCtx(r.Context())
	c.auditSink.RecordPlayback(&audit.RecordPlaybackParams{
		RoomCode: req.RoomCode,
		Username: identity.Username,
		Event:    req.Event,
		Position: req.Time,
		Service:  req.Service,
		URL:      req.URL,
	})

	rest.WriteJSON(w, http.StatusAccepted, rest.Envelope{"data": map[string]any{
		"accepted": true,
	}})
}

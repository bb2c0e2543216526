// Package audit implements the asynchronous sink room activity is recorded
// to. Callers enqueue and move on; a worker goroutine drains the queue into
// the durable store. A full queue drops the record and logs a warning so the
// relay path never blocks on storage.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/watchparty/server/internal/repository/audit"
)

type iAuditRepo interface {
	SaveChatMessage(context.Context, *audit.ChatMessage) error
	UpsertMembership(context.Context, *audit.Membership) error
	SavePlaybackLog(context.Context, *audit.PlaybackLog) error
}

type record struct {
	kind string
	save func(context.Context) error
}

type service struct {
	repo   iAuditRepo
	queue  chan record
	logger *slog.Logger
}

func NewService(repo iAuditRepo, queueSize int, logger *slog.Logger) *service {
	return &service{
		repo:   repo,
		queue:  make(chan record, queueSize),
		logger: logger,
	}
}

// Run drains the queue until ctx is done, then flushes whatever is still
// buffered before returning.
func (s *service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return nil
		case r := <-s.queue:
			s.process(ctx, r)
		}
	}
}

func (s *service) flush() {
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case r := <-s.queue:
			s.process(flushCtx, r)
		default:
			return
		}
	}
}

func (s *service) process(ctx context.Context, r record) {
	if err := r.save(ctx); err != nil {
		s.logger.WarnContext(ctx, "audit record write failed", "kind", r.kind, "error", err)
	}
}

func (s *service) enqueue(r record) {
	select {
	case s.queue <- r:
	default:
		s.logger.Warn("audit queue full, dropping record", "kind", r.kind)
	}
}

type RecordChatParams struct {
	RoomCode string
	Sender   string
	Text     string
}

func (s *service) RecordChat(params *RecordChatParams) {
	msg := audit.ChatMessage{
		RoomCode: params.RoomCode,
		Sender:   params.Sender,
		Text:     params.Text,
		SentAt:   time.Now(),
	}
	s.enqueue(record{
		kind: "chat_message",
		save: func(ctx context.Context) error {
			return s.repo.SaveChatMessage(ctx, &msg)
		},
	})
}

type RecordMembershipParams struct {
	RoomCode string
	UserId   string
	Username string
}

func (s *service) RecordMembership(params *RecordMembershipParams) {
	m := audit.Membership{
		RoomCode:  params.RoomCode,
		UserId:    params.UserId,
		Username:  params.Username,
		UpdatedAt: time.Now(),
	}
	s.enqueue(record{
		kind: "membership",
		save: func(ctx context.Context) error {
			return s.repo.UpsertMembership(ctx, &m)
		},
	})
}

type RecordPlaybackParams struct {
	RoomCode string
	Username string
	Event    string
	Position string
	Service  string
	URL      string
}

func (s *service) RecordPlayback(params *RecordPlaybackParams) {
	svc := params.Service
	if svc == "" {
		svc = ServiceFromURL(params.URL)
	}

	log := audit.PlaybackLog{
		RoomCode: params.RoomCode,
		Username: params.Username,
		Event:    params.Event,
		Position: params.Position,
		Service:  svc,
		URL:      params.URL,
		LoggedAt: time.Now(),
	}
	s.enqueue(record{
		kind: "playback_log",
		save: func(ctx context.Context) error {
			return s.repo.SavePlaybackLog(ctx, &log)
		},
	})
}

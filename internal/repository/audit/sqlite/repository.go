package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/watchparty/server/internal/repository/audit"
)

type repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *repo {
	return &repo{db: db}
}

func (r *repo) SaveChatMessage(ctx context.Context, msg *audit.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}

	return nil
}

// UpsertMembership inserts the membership record or, when the (room, user)
// pair already exists, refreshes the username and timestamp.
func (r *repo) UpsertMembership(ctx context.Context, m *audit.Membership) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_code"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}

	return nil
}

func (r *repo) SavePlaybackLog(ctx context.Context, log *audit.PlaybackLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to save playback log: %w", err)
	}

	return nil
}

// Package audit defines the records the server persists about room activity.
// The store is a pure side channel: writes happen off the relay path and a
// failed write never affects live delivery.
package audit

import "time"

type ChatMessage struct {
	Id       uint      `gorm:"primaryKey"`
	RoomCode string    `gorm:"index;size:6;not null"`
	Sender   string    `gorm:"size:32;not null"`
	Text     string    `gorm:"size:2048;not null"`
	SentAt   time.Time `gorm:"not null"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Membership is keyed by room and user so re-joining the same room upserts
// instead of stacking duplicates.
type Membership struct {
	RoomCode  string    `gorm:"primaryKey;size:6"`
	UserId    string    `gorm:"primaryKey;size:36"`
	Username  string    `gorm:"size:32;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Membership) TableName() string {
	return "memberships"
}

type PlaybackLog struct {
	Id       uint      `gorm:"primaryKey"`
	RoomCode string    `gorm:"index;size:6;not null"`
	Username string    `gorm:"size:32;not null"`
	Event    string    `gorm:"size:16;not null"`
	Position string    `gorm:"size:32"`
	Service  string    `gorm:"size:32"`
	URL      string    `gorm:"size:2048"`
	LoggedAt time.Time `gorm:"not null"`
}

func (PlaybackLog) TableName() string {
	return "playback_logs"
}

package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

type User struct {
	Id           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;size:32;not null"`
	PasswordHash string    `gorm:"size:72;not null"`
	CreatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}

package room

import (
	"errors"
	"time"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
)

type Room struct {
	Code      string
	Title     string
	WatchURL  string
	HostId    string
	HostName  string
	CreatedAt time.Time
}

type SetRoomParams struct {
	Code     string
	Title    string
	WatchURL string
	HostId   string
	HostName string
}

type AddMemberParams struct {
	RoomCode string
	ConnId   string
}

type RemoveMemberParams struct {
	RoomCode string
	ConnId   string
}

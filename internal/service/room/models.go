package room

import "time"

type Room struct {
	Code      string    `json:"code"`
	Title     string    `json:"title"`
	WatchURL  string    `json:"watch_url"`
	HostName  string    `json:"host_name"`
	CreatedAt time.Time `json:"created_at"`
}

// PlaybackEvent is relayed verbatim: the server owns no playback state, the
// latest event from any member wins.
type PlaybackEvent struct {
	Type   string   `json:"type"`
	Time   float64  `json:"time"`
	SeekTo *float64 `json:"seek_to,omitempty"`
}

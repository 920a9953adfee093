package domain

import "time"

const (
	InteractionModeBlocking  = "blocking"
	InteractionModeStreaming = "streaming"
)

// Interaction is one question/answer exchange kept in the history log.
type Interaction struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Mode         string    `json:"mode"`
	User         string    `json:"user"`
	Assistant    string    `json:"assistant"`
	TotalSeconds float64   `json:"total_time"`
}

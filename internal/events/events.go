// Package events defines the payloads emitted after successful writes and a
// kafka publisher for them.
package events

import "time"

// Topic is the stream all tracker events are produced to.
const Topic = "user_events"

// UserCreated is emitted when a user document is first persisted.
type UserCreated struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ExerciseLogged is emitted when an exercise is appended to a user's log.
type ExerciseLogged struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	DurationMin int       `json:"duration_min"`
	Date        time.Time `json:"date"`
	LoggedAt    time.Time `json:"logged_at"`
}

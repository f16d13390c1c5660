// Package domain defines the business logic for the exercise tracker.
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when a user id does not resolve. Malformed ids
// are treated the same as unknown ids.
var ErrUserNotFound = errors.New("user not found")

// ValidationError reports bad or missing input, including store-level
// rejections such as a duplicate username.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Exercise is a logged activity record embedded in exactly one user.
type Exercise struct {
	Description string
	DurationMin int
	Date        time.Time
}

// User is an account owning an append-only, ordered sequence of exercises.
// Insertion order is the default log order; nothing is ever deleted or
// mutated in place.
type User struct {
	ID        string
	Username  string
	Exercises []Exercise
}

// UserRef is the minimal projection returned by create and list.
type UserRef struct {
	ID       string
	Username string
}

// UserRepository captures persistence gateway operations. The gateway assigns
// the id at creation and surfaces a duplicate username as ValidationError.
// FindByID returns (nil, nil) when the id does not resolve.
type UserRepository interface {
	Create(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]UserRef, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Save(ctx context.Context, user *User) error
}

// Publisher receives notifications after successful writes. Implementations
// must not fail the request on broker trouble; publishing is best effort.
type Publisher interface {
	UserCreated(ctx context.Context, user UserRef, at time.Time)
	ExerciseLogged(ctx context.Context, user UserRef, exercise Exercise, at time.Time)
}

// NoopPublisher discards all events.
type NoopPublisher struct{}

func (NoopPublisher) UserCreated(context.Context, UserRef, time.Time) {}

func (NoopPublisher) ExerciseLogged(context.Context, UserRef, Exercise, time.Time) {}

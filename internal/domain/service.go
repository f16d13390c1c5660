package domain

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Service orchestrates user store workflows against the persistence gateway.
type Service struct {
	repo      UserRepository
	publisher Publisher
}

// NewService constructs a Service. Pass NoopPublisher when event emission is
// not configured.
func NewService(repo UserRepository, publisher Publisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// LoggedExercise is the append result: the new exercise merged with the
// owning user's identity.
type LoggedExercise struct {
	UserID      string
	Username    string
	Description string
	DurationMin int
	Date        time.Time
}

// CreateUser persists a new user with an empty exercise sequence and returns
// the minimal projection.
func (s *Service) CreateUser(ctx context.Context, username string) (*UserRef, error) {
	if strings.TrimSpace(username) == "" {
		return nil, &ValidationError{Reason: "username is required"}
	}

	user, err := s.repo.Create(ctx, username)
	if err != nil {
		return nil, err
	}

	ref := UserRef{ID: user.ID, Username: user.Username}
	s.publisher.UserCreated(ctx, ref, time.Now().UTC())
	return &ref, nil
}

// ListUsers returns all known users projected to id and username, in whatever
// order the gateway yields them.
func (s *Service) ListUsers(ctx context.Context) ([]UserRef, error) {
	return s.repo.List(ctx)
}

// GetUser resolves a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// AddExercise appends an exercise to the user's log and persists the whole
// user document. The duration arrives as raw text and must parse to an
// integer; a date that does not parse falls back to the current time, so a
// stored date is always valid.
func (s *Service) AddExercise(ctx context.Context, id, description, duration, date string) (*LoggedExercise, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	durationMin, err := strconv.Atoi(strings.TrimSpace(duration))
	if err != nil {
		return nil, &ValidationError{Reason: "duration must be an integer number of minutes"}
	}

	when := time.Now().UTC()
	if parsed, ok := ParseDate(date); ok {
		when = parsed
	}

	exercise := Exercise{
		Description: description,
		DurationMin: durationMin,
		Date:        when,
	}
	user.Exercises = append(user.Exercises, exercise)

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	ref := UserRef{ID: user.ID, Username: user.Username}
	s.publisher.ExerciseLogged(ctx, ref, exercise, time.Now().UTC())

	return &LoggedExercise{
		UserID:      user.ID,
		Username:    user.Username,
		Description: exercise.Description,
		DurationMin: exercise.DurationMin,
		Date:        exercise.Date,
	}, nil
}

// ParseDate accepts ISO-8601-like input, date-only or a full timestamp,
// interpreted as UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

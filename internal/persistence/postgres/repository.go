// Package postgres provides a Postgres-backed user gateway. Users are stored
// document-style: one row per user with the exercise sequence as a JSONB
// column, replaced wholesale on save.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/observability"
)

const uniqueViolation = "23505"

type exerciseRecord struct {
	Description string    `json:"description"`
	DurationMin int       `json:"duration_min"`
	Date        time.Time `json:"date"`
}

// Repository implements domain.UserRepository on a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a user row with an empty exercise document and a freshly
// generated id.
func (r *Repository) Create(ctx context.Context, username string) (*domain.User, error) {
	const stmt = `INSERT INTO users (user_id, username, exercises, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $4)`

	id := uuid.NewString()
	now := time.Now().UTC()

	if _, err := r.pool.Exec(ctx, stmt, id, username, []byte("[]"), now); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, &domain.ValidationError{Reason: "username already taken"}
		}
		return nil, err
	}

	observability.RecordUserPersisted()
	return &domain.User{ID: id, Username: username, Exercises: []domain.Exercise{}}, nil
}

// List projects every user row to id and username.
func (r *Repository) List(ctx context.Context) ([]domain.UserRef, error) {
	const query = `SELECT user_id, username FROM users ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make([]domain.UserRef, 0)
	for rows.Next() {
		var ref domain.UserRef
		if err := rows.Scan(&ref.ID, &ref.Username); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// FindByID fetches the user row and unpacks the exercise document. Anything
// that is not a UUID is simply not found.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	const query = `SELECT user_id, username, exercises FROM users WHERE user_id = $1`

	var (
		user domain.User
		raw  []byte
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var records []exerciseRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}

	user.Exercises = make([]domain.Exercise, 0, len(records))
	for _, record := range records {
		user.Exercises = append(user.Exercises, domain.Exercise{
			Description: record.Description,
			DurationMin: record.DurationMin,
			Date:        record.Date,
		})
	}
	return &user, nil
}

// Save replaces the exercise document for the user. Last write wins.
func (r *Repository) Save(ctx context.Context, user *domain.User) error {
	records := make([]exerciseRecord, 0, len(user.Exercises))
	for _, exercise := range user.Exercises {
		records = append(records, exerciseRecord{
			Description: exercise.Description,
			DurationMin: exercise.DurationMin,
			Date:        exercise.Date,
		})
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}

	const stmt = `UPDATE users SET exercises = $2, updated_at = $3 WHERE user_id = $1`

	tag, err := r.pool.Exec(ctx, stmt, user.ID, raw, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	observability.RecordExercisePersisted(time.Now().UTC())
	return nil
}

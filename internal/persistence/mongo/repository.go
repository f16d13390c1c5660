// Package mongo provides MongoDB-backed persistence for users. Each user is
// a single document embedding its exercise array, replaced wholesale on save.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/observability"
)

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Exercises []exerciseDocument `bson:"exercises"`
}

type exerciseDocument struct {
	Description string    `bson:"description"`
	DurationMin int       `bson:"duration_min"`
	Date        time.Time `bson:"date"`
}

// Repository implements domain.UserRepository on a users collection.
type Repository struct {
	users *mongo.Collection
}

// NewRepository constructs a Repository and ensures the unique username
// index backing the duplicate-username rejection.
func NewRepository(ctx context.Context, db *mongo.Database) (*Repository, error) {
	users := db.Collection("users")
	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &Repository{users: users}, nil
}

// Create inserts a user document with an empty exercise array. The generated
// object id becomes the user's opaque identifier.
func (r *Repository) Create(ctx context.Context, username string) (*domain.User, error) {
	doc := userDocument{Username: username, Exercises: []exerciseDocument{}}

	result, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &domain.ValidationError{Reason: "username already taken"}
		}
		return nil, err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, errors.New("unexpected inserted id type")
	}

	observability.RecordUserPersisted()
	return &domain.User{ID: oid.Hex(), Username: username, Exercises: []domain.Exercise{}}, nil
}

// List projects every user to id and username.
func (r *Repository) List(ctx context.Context) ([]domain.UserRef, error) {
	projection := options.Find().SetProjection(bson.D{{Key: "username", Value: 1}})
	cursor, err := r.users.Find(ctx, bson.D{}, projection)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	refs := make([]domain.UserRef, 0)
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		refs = append(refs, domain.UserRef{ID: doc.ID.Hex(), Username: doc.Username})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}

// FindByID fetches the full user document. A malformed id is simply not
// found, never a distinct error.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc userDocument
	if err := r.users.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return toUser(doc), nil
}

// Save replaces the whole user document. Concurrent appends to the same user
// resolve last write wins.
func (r *Repository) Save(ctx context.Context, user *domain.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	doc := userDocument{
		ID:        oid,
		Username:  user.Username,
		Exercises: make([]exerciseDocument, 0, len(user.Exercises)),
	}
	for _, exercise := range user.Exercises {
		doc.Exercises = append(doc.Exercises, exerciseDocument{
			Description: exercise.Description,
			DurationMin: exercise.DurationMin,
			Date:        exercise.Date,
		})
	}

	result, err := r.users.ReplaceOne(ctx, bson.D{{Key: "_id", Value: oid}}, doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}

	observability.RecordExercisePersisted(time.Now().UTC())
	return nil
}

func toUser(doc userDocument) *domain.User {
	user := domain.User{
		ID:        doc.ID.Hex(),
		Username:  doc.Username,
		Exercises: make([]domain.Exercise, 0, len(doc.Exercises)),
	}
	for _, exercise := range doc.Exercises {
		user.Exercises = append(user.Exercises, domain.Exercise{
			Description: exercise.Description,
			DurationMin: exercise.DurationMin,
			Date:        exercise.Date,
		})
	}
	return &user
}

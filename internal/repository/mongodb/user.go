package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/secrets/internal/apperror"
	"github.com/sakif/secrets/internal/model"
	"github.com/sakif/secrets/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// userDocument is the stored form of model.User.
type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username,omitempty"`
	Hash      string             `bson:"hash,omitempty"`
	GoogleID  string             `bson:"googleId,omitempty"`
	Secret    string             `bson:"secret,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func toDocument(u *model.User) (userDocument, error) {
	doc := userDocument{
		Username:  u.Username,
		Hash:      u.PasswordHash,
		GoogleID:  u.GoogleID,
		Secret:    u.Secret,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.ID != "" {
		oid, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			return userDocument{}, apperror.NotFound("user", u.ID)
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d userDocument) toModel() *model.User {
	return &model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.Hash,
		GoogleID:     d.GoogleID,
		Secret:       d.Secret,
		// BSON dates have millisecond precision and come back in UTC.
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// toFilter translates a repository filter into a BSON query document.
func toFilter(f repository.UserFilter) bson.M {
	q := bson.M{}
	if f.Username != "" {
		q["username"] = f.Username
	}
	if f.GoogleID != "" {
		q["googleId"] = f.GoogleID
	}
	if f.HasSecret {
		q["secret"] = bson.M{"$exists": true, "$ne": ""}
	}
	return q
}

// Create inserts a new user document and writes the generated ObjectID back.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.ID = ""

	doc, err := toDocument(user)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := db.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", user.GoogleID)
		}
		return fmt.Errorf("mongo: inserting user %q: %w", user.Username, err)
	}

	user.ID = doc.ID.Hex()
	return nil
}

// GetByID retrieves a user by ObjectID hex string.
// A malformed id can never match, so it is reported as not found.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("user", id)
	}

	var doc userDocument
	err = db.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("mongo: getting user %s: %w", id, err)
	}

	return doc.toModel(), nil
}

// FindOne returns the oldest user matching filter. ObjectIDs sort by creation time.
func (db *DB) FindOne(ctx context.Context, filter repository.UserFilter) (*model.User, error) {
	if !filter.Identifies() {
		return nil, apperror.ValidationFailed("filter", "username or Google id required")
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})

	var doc userDocument
	err := db.users.FindOne(ctx, toFilter(filter), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", fmt.Sprint(toFilter(filter)))
		}
		return nil, fmt.Errorf("mongo: finding user: %w", err)
	}

	return doc.toModel(), nil
}

// FindMany returns every matching user, oldest first.
func (db *DB) FindMany(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := db.users.Find(ctx, toFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding users: %w", err)
	}

	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, *d.toModel())
	}
	return users, nil
}

// Save replaces the stored document with user. Last write wins.
func (db *DB) Save(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	doc, err := toDocument(user)
	if err != nil {
		return err
	}

	result, err := db.users.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", user.GoogleID)
		}
		return fmt.Errorf("mongo: saving user %s: %w", user.ID, err)
	}
	if result.MatchedCount == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

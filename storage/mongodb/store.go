package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/authgate/auth"
)

const usersCollection = "users"

// UserStore persists user accounts in the "users" collection. It implements
// auth.UserStore and maps driver errors to the auth sentinels.
type UserStore struct {
	users *mongo.Collection
}

var _ auth.UserStore = (*UserStore)(nil)

// NewUserStore creates a user store bound to the database's users collection.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{users: db.Collection(usersCollection)}
}

// EnsureIndexes creates the indexes the store depends on. Email uniqueness is
// enforced here rather than in application code; external_id is unique but
// sparse so accounts without a linked provider do not collide.
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "verification_token", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "reset_token", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *auth.User) error {
	if _, err := s.users.InsertOne(ctx, toDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) GetUserByExternalID(ctx context.Context, externalID string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"external_id": externalID})
}

func (s *UserStore) GetUserByVerificationToken(ctx context.Context, token string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"verification_token": token})
}

func (s *UserStore) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	res, err := s.users.UpdateByID(ctx, id.String(), bson.M{"$set": bson.M{
		"verification_token":      token,
		"verification_expires_at": expiresAt,
		"updated_at":              time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("failed to set verification token: %w", err)
	}
	if res.MatchedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// ConsumeVerificationToken marks the matching account verified and clears the
// token in one conditional update. The filter requires an unexpired token on a
// not-yet-verified account, so replays and races fall through to not-found.
func (s *UserStore) ConsumeVerificationToken(ctx context.Context, token string) (*auth.User, error) {
	filter := bson.M{
		"verification_token":      token,
		"verification_expires_at": bson.M{"$gt": time.Now()},
		"is_email_verified":       false,
	}
	update := bson.M{
		"$set":   bson.M{"is_email_verified": true, "updated_at": time.Now()},
		"$unset": bson.M{"verification_token": "", "verification_expires_at": ""},
	}
	return s.findOneAndUpdate(ctx, filter, update)
}

func (s *UserStore) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	res, err := s.users.UpdateByID(ctx, id.String(), bson.M{"$set": bson.M{
		"reset_token":      token,
		"reset_expires_at": expiresAt,
		"updated_at":       time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if res.MatchedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// ConsumeResetToken installs the new password hash and clears the reset token
// in one conditional update keyed on an unexpired token.
func (s *UserStore) ConsumeResetToken(ctx context.Context, token string, newHash []byte) (*auth.User, error) {
	filter := bson.M{
		"reset_token":      token,
		"reset_expires_at": bson.M{"$gt": time.Now()},
	}
	update := bson.M{
		"$set":   bson.M{"password_hash": newHash, "updated_at": time.Now()},
		"$unset": bson.M{"reset_token": "", "reset_expires_at": ""},
	}
	return s.findOneAndUpdate(ctx, filter, update)
}

// UpdatePasswordHash is a compare-and-swap: the write only lands when the
// stored hash still equals oldHash. A lost race is reported as
// ErrConcurrentPasswordChange, never silently overwritten.
func (s *UserStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, oldHash, newHash []byte) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id.String(), "password_hash": oldHash},
		bson.M{"$set": bson.M{"password_hash": newHash, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	if _, err := s.GetUserByID(ctx, id); err != nil {
		return err
	}
	return auth.ErrConcurrentPasswordChange
}

// LinkExternalAccount attaches the provider identity to an existing account
// and marks it verified. The avatar is only adopted when the account has none;
// an avatar the user already set locally is kept.
func (s *UserStore) LinkExternalAccount(ctx context.Context, id uuid.UUID, externalID, avatarURL string) (*auth.User, error) {
	return s.findOneAndUpdate(ctx, bson.M{"_id": id.String()}, linkExternalAccountUpdate(externalID, avatarURL))
}

// linkExternalAccountUpdate builds the aggregation pipeline for linking.
// Pipeline $set evaluates string values starting with "$" as field paths,
// so caller-supplied strings must be wrapped in $literal.
func linkExternalAccountUpdate(externalID, avatarURL string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"external_id":       bson.M{"$literal": externalID},
			"is_email_verified": true,
			"avatar_url":        bson.M{"$ifNull": bson.A{"$avatar_url", bson.M{"$literal": avatarURL}}},
			"updated_at":        time.Now(),
		}}},
	}
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toUser()
}

func (s *UserStore) findOneAndUpdate(ctx context.Context, filter bson.M, update any) (*auth.User, error) {
	var doc userDocument
	err := s.users.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return doc.toUser()
}

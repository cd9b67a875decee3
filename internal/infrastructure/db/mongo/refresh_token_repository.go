package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

const collectionRefreshTokens = "refresh_tokens"

// RefreshTokenRepository is the store of record for refresh-token revocation
// records. Revocation is a single atomic UpdateOne, so a concurrent IsRevoked
// on the same token observes either the pre- or post-revocation state, never
// a partial one.
type RefreshTokenRepository struct {
	col *mongo.Collection
}

var _ ports.RefreshTokenStore = (*RefreshTokenRepository)(nil)

func NewRefreshTokenRepository(db *mongo.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{col: db.Collection(collectionRefreshTokens)}
}

type refreshTokenDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expires_at"`
	Revoked   bool      `bson:"revoked"`
	UserAgent string    `bson:"user_agent,omitempty"`
	IPAddress string    `bson:"ip_address,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d refreshTokenDoc) toDomain() *domain.RefreshTokenRecord {
	return &domain.RefreshTokenRecord{
		ID:        d.ID,
		UserID:    d.UserID,
		Token:     d.Token,
		ExpiresAt: d.ExpiresAt,
		Revoked:   d.Revoked,
		UserAgent: d.UserAgent,
		IPAddress: d.IPAddress,
		CreatedAt: d.CreatedAt,
	}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, rec *domain.RefreshTokenRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, refreshTokenDoc{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Token:     rec.Token,
		ExpiresAt: rec.ExpiresAt,
		Revoked:   rec.Revoked,
		UserAgent: rec.UserAgent,
		IPAddress: rec.IPAddress,
		CreatedAt: rec.CreatedAt,
	})
	return err
}

func (r *RefreshTokenRepository) Find(ctx context.Context, token string) (*domain.RefreshTokenRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc refreshTokenDoc
	if err := r.col.FindOne(ctx, bson.M{"token": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"token": token},
		bson.M{"$set": bson.M{"revoked": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true}},
	)
	return err
}

func (r *RefreshTokenRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc refreshTokenDoc
	if err := r.col.FindOne(ctx, bson.M{"token": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// A token we never recorded cannot be trusted.
			return true, nil
		}
		return false, err
	}
	return doc.Revoked, nil
}

func (r *RefreshTokenRepository) CountActiveForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"revoked":    false,
		"expires_at": bson.M{"$gt": now},
	})
}

func (r *RefreshTokenRepository) ListForUser(ctx context.Context, userID string) ([]*domain.RefreshTokenRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []*domain.RefreshTokenRecord
	for cur.Next(ctx) {
		var doc refreshTokenDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		recs = append(recs, doc.toDomain())
	}
	return recs, cur.Err()
}

// DeleteExpired purges expired and revoked records. The TTL index does the
// same job eventually; this hands schedulers a synchronous variant.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$lte": now}},
		bson.M{"revoked": true},
	}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the token lookup, per-user, and TTL indexes.
func (r *RefreshTokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

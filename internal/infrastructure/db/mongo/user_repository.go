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

const collectionUsers = "users"

// UserRepository persists the user aggregate.
type UserRepository struct {
	col *mongo.Collection
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

// userDoc is the storage schema. The credential hash lives only here, in a
// field that never appears in any domain or transport serialisation.
type userDoc struct {
	ID             string         `bson:"_id"`
	Email          string         `bson:"email"`
	CredentialHash string         `bson:"credential_hash"`
	Roles          []string       `bson:"roles"`
	Profile        userProfileDoc `bson:"profile"`
	EmailVerified  bool           `bson:"email_verified"`
	Active         bool           `bson:"active"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
	LastLoginAt    *time.Time     `bson:"last_login_at,omitempty"`
	CreatedBy      string         `bson:"created_by,omitempty"`
}

type userProfileDoc struct {
	FirstName   string     `bson:"first_name,omitempty"`
	LastName    string     `bson:"last_name,omitempty"`
	AvatarURL   string     `bson:"avatar_url,omitempty"`
	Phone       string     `bson:"phone,omitempty"`
	DateOfBirth *time.Time `bson:"date_of_birth,omitempty"`
}

func toUserDoc(u *domain.User) userDoc {
	rec := u.Record()
	roles := make([]string, len(rec.Roles))
	for i, r := range rec.Roles {
		roles[i] = string(r)
	}
	return userDoc{
		ID:             rec.ID,
		Email:          rec.Email,
		CredentialHash: rec.CredentialHash,
		Roles:          roles,
		Profile: userProfileDoc{
			FirstName:   rec.Profile.FirstName,
			LastName:    rec.Profile.LastName,
			AvatarURL:   rec.Profile.AvatarURL,
			Phone:       rec.Profile.Phone,
			DateOfBirth: rec.Profile.DateOfBirth,
		},
		EmailVerified: rec.EmailVerified,
		Active:        rec.Active,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		LastLoginAt:   rec.LastLoginAt,
		CreatedBy:     rec.CreatedBy,
	}
}

func (d userDoc) toDomain() *domain.User {
	roles := make([]domain.Role, 0, len(d.Roles))
	for _, r := range d.Roles {
		roles = append(roles, domain.Role(r))
	}
	return domain.UserFromRecord(domain.UserRecord{
		ID:             d.ID,
		Email:          d.Email,
		CredentialHash: d.CredentialHash,
		Roles:          roles,
		Profile: domain.Profile{
			FirstName:   d.Profile.FirstName,
			LastName:    d.Profile.LastName,
			AvatarURL:   d.Profile.AvatarURL,
			Phone:       d.Profile.Phone,
			DateOfBirth: d.Profile.DateOfBirth,
		},
		EmailVerified: d.EmailVerified,
		Active:        d.Active,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		LastLoginAt:   d.LastLoginAt,
		CreatedBy:     d.CreatedBy,
	})
}

// Save upserts the aggregate by id. Duplicate emails surface as
// domain.ErrDuplicateEmail through the unique index.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toUserDoc(user)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// ExistsByEmail reports whether the email is taken, optionally ignoring one id.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"email": email}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns a page of users matching the filter plus the total count.
func (r *UserRepository) List(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Role != "" {
		query["roles"] = string(filter.Role)
	}
	if filter.Active != nil {
		query["active"] = *filter.Active
	}
	if filter.Search != "" {
		pattern := bson.M{"$regex": filter.Search, "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"email": pattern},
			bson.M{"profile.first_name": pattern},
			bson.M{"profile.last_name": pattern},
		}
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, err
		}
		users = append(users, doc.toDomain())
	}
	return users, total, cur.Err()
}

// EnsureIndexes creates the unique email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "roles", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

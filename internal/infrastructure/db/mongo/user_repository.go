package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gadgetghar/account-service/internal/core/domain"
	"github.com/gadgetghar/account-service/internal/pkg/crypto"
)

const userCollection = "users"

// UserRepository is the Mongo credential store for customer accounts. It owns
// two transforms the layers above never see: full name and phone are
// encrypted before persistence and decrypted after fetch, and the lockout
// counter transition runs as a single aggregation-pipeline update so
// concurrent failed logins cannot race past the threshold.
type UserRepository struct {
	coll    *mongo.Collection
	cipher  *crypto.FieldCipher
	lockout domain.LockoutPolicy
}

func NewUserRepository(db *mongo.Database, cipher *crypto.FieldCipher, lockout domain.LockoutPolicy) *UserRepository {
	return &UserRepository{coll: db.Collection(userCollection), cipher: cipher, lockout: lockout}
}

// EnsureIndexes creates the unique email index. Duplicate signups rely on it.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

type mongoSecurityEvent struct {
	Timestamp time.Time `bson:"timestamp"`
	Event     string    `bson:"event"`
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FullName     string             `bson:"full_name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Phone        string             `bson:"phone,omitempty"`

	LoginAttempts int        `bson:"login_attempts"`
	LockUntil     *time.Time `bson:"lock_until,omitempty"`

	PasswordCreatedAt      time.Time `bson:"password_created_at"`
	PasswordExpiresAt      time.Time `bson:"password_expires_at,omitempty"`
	PreviousPasswordHashes []string  `bson:"previous_password_hashes,omitempty"`

	Role   string `bson:"role"`
	Status string `bson:"status"`

	ProfileImageURL string               `bson:"profile_image_url,omitempty"`
	SecurityLog     []mongoSecurityEvent `bson:"security_logs,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	fullName, err := r.cipher.Encrypt(user.FullName)
	if err != nil {
		return nil, fmt.Errorf("encrypt full name: %w", err)
	}
	phone := ""
	if user.Phone != "" {
		if phone, err = r.cipher.Encrypt(user.Phone); err != nil {
			return nil, fmt.Errorf("encrypt phone: %w", err)
		}
	}

	doc := mongoUser{
		FullName:               fullName,
		Email:                  user.Email,
		PasswordHash:           user.PasswordHash,
		Phone:                  phone,
		LoginAttempts:          user.LoginAttempts,
		LockUntil:              user.LockUntil,
		PasswordCreatedAt:      user.PasswordCreatedAt,
		PasswordExpiresAt:      user.PasswordExpiresAt,
		PreviousPasswordHashes: user.PreviousPasswordHashes,
		Role:                   user.Role,
		Status:                 user.Status,
		ProfileImageURL:        user.ProfileImageURL,
		CreatedAt:              user.CreatedAt,
		UpdatedAt:              user.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindAdminByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email, "role": domain.RoleAdmin})
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id, status string) error {
	oid, err := objectID(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// RegisterFailedLogin runs the lockout failure transition server-side in one
// findOneAndUpdate, so two concurrent failures both land on the counter and
// the threshold cannot be bypassed by racing read-modify-write cycles.
//
// Stage one: an expired lock resets the counter to 1 and clears the lock;
// otherwise the counter increments. Stage two: if the (new) counter reached
// the threshold while unlocked, the lock deadline is set.
func (r *UserRepository) RegisterFailedLogin(ctx context.Context, id string) (int, *time.Time, error) {
	oid, err := objectID(id)
	if err != nil {
		return 0, nil, domain.ErrUserNotFound
	}

	now := time.Now().UTC()
	deadline := now.Add(r.lockout.Duration)

	lockExpired := bson.M{"$and": bson.A{
		bson.M{"$ne": bson.A{bson.M{"$type": "$lock_until"}, "missing"}},
		bson.M{"$ne": bson.A{"$lock_until", primitive.Null{}}},
		bson.M{"$lte": bson.A{"$lock_until", now}},
	}}
	// Evaluated after stage one, where an expired lock is already null.
	notLocked := bson.M{"$or": bson.A{
		bson.M{"$eq": bson.A{bson.M{"$type": "$lock_until"}, "missing"}},
		bson.M{"$eq": bson.A{"$lock_until", primitive.Null{}}},
	}}

	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"login_attempts": bson.M{"$cond": bson.A{
				lockExpired,
				1,
				bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$login_attempts", 0}}, 1}},
			}},
			"lock_until": bson.M{"$cond": bson.A{
				lockExpired,
				primitive.Null{},
				"$lock_until",
			}},
		}},
		bson.M{"$set": bson.M{
			"lock_until": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$gte": bson.A{"$login_attempts", r.lockout.Threshold}},
					notLocked,
				}},
				deadline,
				"$lock_until",
			}},
			"updated_at": now,
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated mongoUser
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, pipeline, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil, domain.ErrUserNotFound
		}
		return 0, nil, fmt.Errorf("register failed login: %w", err)
	}
	return updated.LoginAttempts, updated.LockUntil, nil
}

func (r *UserRepository) ResetLoginCounters(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set":   bson.M{"login_attempts": 0, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"lock_until": ""},
	})
	if err != nil {
		return fmt.Errorf("reset login counters: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// RotatePassword swaps the hash, refreshes the lifecycle fields and stores
// the recomputed reuse history in one write. The caller computes the history,
// so the pre-rotation hash lands there exactly once.
func (r *UserRepository) RotatePassword(ctx context.Context, id, passwordHash string, history []string, createdAt, expiresAt time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"password_hash":            passwordHash,
			"previous_password_hashes": history,
			"password_created_at":      createdAt,
			"password_expires_at":      expiresAt,
			"updated_at":               time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("rotate password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) AppendSecurityEvent(ctx context.Context, id, event string) error {
	oid, err := objectID(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$push": bson.M{"security_logs": mongoSecurityEvent{Timestamp: time.Now().UTC(), Event: event}},
	})
	if err != nil {
		return fmt.Errorf("append security event: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return r.toDomain(&mu)
}

func (r *UserRepository) toDomain(mu *mongoUser) (*domain.User, error) {
	fullName, err := r.cipher.Decrypt(mu.FullName)
	if err != nil {
		return nil, fmt.Errorf("decrypt full name: %w", err)
	}
	phone := ""
	if mu.Phone != "" {
		if phone, err = r.cipher.Decrypt(mu.Phone); err != nil {
			return nil, fmt.Errorf("decrypt phone: %w", err)
		}
	}

	user := &domain.User{
		ID:                     mu.ID.Hex(),
		FullName:               fullName,
		Email:                  mu.Email,
		PasswordHash:           mu.PasswordHash,
		Phone:                  phone,
		LoginAttempts:          mu.LoginAttempts,
		LockUntil:              mu.LockUntil,
		PasswordCreatedAt:      mu.PasswordCreatedAt,
		PasswordExpiresAt:      mu.PasswordExpiresAt,
		PreviousPasswordHashes: mu.PreviousPasswordHashes,
		Role:                   mu.Role,
		Status:                 mu.Status,
		ProfileImageURL:        mu.ProfileImageURL,
		CreatedAt:              mu.CreatedAt,
		UpdatedAt:              mu.UpdatedAt,
	}
	for _, ev := range mu.SecurityLog {
		user.SecurityLog = append(user.SecurityLog, domain.SecurityEvent{Timestamp: ev.Timestamp, Event: ev.Event})
	}
	return user, nil
}

func objectID(id string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(id)
}

package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/civicchain/internal/domain/user"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const collectionName = "users"

// DBObserver times a logical database operation.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

type passthrough struct{}

func (passthrough) ObserveDB(_ string, fn func() error) error { return fn() }

// userDoc keeps the field names of the existing users collection. Accounts
// created before this service carry an ObjectID _id; new ones a UUID string.
type userDoc struct {
	ID           any           `bson:"_id"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password"`
	Profile      *user.Profile `bson:"profile,omitempty"`
	Verified     bool          `bson:"aadhaarVerified"`
	CreatedAt    time.Time     `bson:"createdAt"`
}

func (d userDoc) toUser() user.User {
	return user.User{
		ID:           idString(d.ID),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Profile:      d.Profile,
		Verified:     d.Verified,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func idString(v any) string {
	switch id := v.(type) {
	case bson.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

// idFilter matches id as stored by either generation of accounts.
func idFilter(id string) bson.D {
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		return bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: bson.A{oid, id}}}}}
	}
	return bson.D{{Key: "_id", Value: id}}
}

type UsersRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
	obs    DBObserver
}

// NewUsersRepo ensures the unique email index exists before returning, so
// uniqueness is enforced by the server from the first insert.
func NewUsersRepo(ctx context.Context, database *mongo.Database, obs DBObserver) (*UsersRepo, error) {
	if obs == nil {
		obs = passthrough{}
	}

	coll := database.Collection(collectionName)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return nil, fmt.Errorf("create email index: %w", err)
	}

	return &UsersRepo{client: database.Client(), coll: coll, obs: obs}, nil
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var doc userDoc

	err := r.obs.ObserveDB("users.find_by_email", func() error {
		return r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return doc.toUser(), nil
}

func (r *UsersRepo) Insert(ctx context.Context, in user.User) (user.User, error) {
	doc := userDoc{
		ID:           in.ID,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Profile:      in.Profile,
		Verified:     in.Verified,
		CreatedAt:    in.CreatedAt.UTC().Truncate(time.Millisecond),
	}

	err := r.obs.ObserveDB("users.insert", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrDuplicateUser
		}
		return user.User{}, err
	}

	return doc.toUser(), nil
}

func (r *UsersRepo) UpdateVerified(ctx context.Context, id string) (user.User, error) {
	var doc userDoc

	err := r.obs.ObserveDB("users.update_verified", func() error {
		return r.coll.FindOneAndUpdate(ctx,
			idFilter(id),
			bson.D{{Key: "$set", Value: bson.D{{Key: "aadhaarVerified", Value: true}}}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return doc.toUser(), nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

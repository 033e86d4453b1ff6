package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure UserRepository implements the interface
var _ repositories.UserRepository = (*UserRepository)(nil)

// UserRepository handles MongoDB operations for User
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(usersCollection),
	}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return repositories.ErrUserExists
	}
	return repositories.Wrap("users.create", err)
}

// Ensure upserts the user, only setting fields when the document is new
func (r *UserRepository) Ensure(ctx context.Context, id int64, name string) (models.EnsureResult, error) {
	filter := bson.M{"_id": id}
	update := bson.M{"$setOnInsert": bson.M{"name": name, "createdAt": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// Two concurrent upserts on the same _id: the loser sees a duplicate key
		if mongo.IsDuplicateKeyError(err) {
			return models.UserExisted, nil
		}
		return 0, repositories.Wrap("users.ensure", err)
	}
	if res.UpsertedCount > 0 {
		return models.UserCreated, nil
	}
	return models.UserExisted, nil
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrUserNotFound
	}
	if err != nil {
		return nil, repositories.Wrap("users.find", err)
	}
	return &user, nil
}

// FindAll retrieves all users ordered by id
func (r *UserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	opts := options.Find().SetSort(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, repositories.Wrap("users.find_all", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, repositories.Wrap("users.find_all", err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

package mongodb

import (
	"context"

	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	usersCollection    = "users"
	prizesCollection   = "prizes"
	winsCollection     = "wins"
	countersCollection = "counters"
)

// NewStore builds the MongoDB repositories and makes sure their indexes exist
func NewStore(ctx context.Context, db *mongo.Database, log *zap.Logger) (*repositories.Store, error) {
	if err := EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return &repositories.Store{
		Users:  NewUserRepository(db),
		Prizes: NewPrizeRepository(db),
		Wins:   NewWinRepository(db, log),
		Close:  func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
	}, nil
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// (userId, prizeId) index is what makes a second win row for a pair impossible.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(winsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "prizeId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_user_prize"),
		},
		{Keys: bson.D{{Key: "prizeId", Value: 1}}},
	})
	if err != nil {
		return repositories.Wrap("indexes.wins", err)
	}

	_, err = db.Collection(prizesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "used", Value: 1}}},
		{Keys: bson.D{{Key: "image", Value: 1}}},
	})
	return repositories.Wrap("indexes.prizes", err)
}

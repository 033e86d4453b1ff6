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

var _ repositories.PrizeRepository = (*PrizeRepository)(nil)

// PrizeRepository handles MongoDB operations for Prize
type PrizeRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewPrizeRepository creates a new PrizeRepository
func NewPrizeRepository(db *mongo.Database) *PrizeRepository {
	return &PrizeRepository{
		collection: db.Collection(prizesCollection),
		counters:   db.Collection(countersCollection),
	}
}

// nextIDs reserves n sequential prize ids and returns the first one
func (r *PrizeRepository) nextIDs(ctx context.Context, n int) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx, bson.M{"_id": prizesCollection}, bson.M{"$inc": bson.M{"seq": n}}, opts).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq - int64(n) + 1, nil
}

// CreateMany inserts one unused prize per image
func (r *PrizeRepository) CreateMany(ctx context.Context, images []string) ([]*models.Prize, error) {
	if len(images) == 0 {
		return []*models.Prize{}, nil
	}
	first, err := r.nextIDs(ctx, len(images))
	if err != nil {
		return nil, repositories.Wrap("prizes.next_ids", err)
	}

	now := time.Now()
	prizes := make([]*models.Prize, 0, len(images))
	docs := make([]interface{}, 0, len(images))
	for i, img := range images {
		p := &models.Prize{
			ID:        first + int64(i),
			Image:     img,
			WinnerIDs: []int64{}, // $push needs an array, not null
			CreatedAt: now,
		}
		prizes = append(prizes, p)
		docs = append(docs, p)
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return nil, repositories.Wrap("prizes.create_many", err)
	}
	return prizes, nil
}

// FindByID finds a prize by ID
func (r *PrizeRepository) FindByID(ctx context.Context, id int64) (*models.Prize, error) {
	return findPrize(ctx, r.collection, id)
}

func findPrize(ctx context.Context, collection *mongo.Collection, id int64) (*models.Prize, error) {
	var prize models.Prize
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&prize)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrPrizeNotFound
	}
	if err != nil {
		return nil, repositories.Wrap("prizes.find", err)
	}
	return &prize, nil
}

// FindAll retrieves all prizes ordered by id
func (r *PrizeRepository) FindAll(ctx context.Context) ([]*models.Prize, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, repositories.Wrap("prizes.find_all", err)
	}
	defer cursor.Close(ctx)

	var prizes []*models.Prize
	if err := cursor.All(ctx, &prizes); err != nil {
		return nil, repositories.Wrap("prizes.find_all", err)
	}
	if prizes == nil {
		prizes = []*models.Prize{}
	}
	return prizes, nil
}

// MarkUsed sets used = true
func (r *PrizeRepository) MarkUsed(ctx context.Context, id int64) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"used": true}})
	if err != nil {
		return repositories.Wrap("prizes.mark_used", err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrPrizeNotFound
	}
	return nil
}

// RandomUnused samples one unused prize server-side
func (r *PrizeRepository) RandomUnused(ctx context.Context) (*models.Prize, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"used": false}}},
		{{Key: "$sample", Value: bson.M{"size": 1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, repositories.Wrap("prizes.random_unused", err)
	}
	defer cursor.Close(ctx)

	var prizes []*models.Prize
	if err := cursor.All(ctx, &prizes); err != nil {
		return nil, repositories.Wrap("prizes.random_unused", err)
	}
	if len(prizes) == 0 {
		return nil, repositories.ErrNoPrizesLeft
	}
	return prizes[0], nil
}

// CountUnused counts prizes not yet retired
func (r *PrizeRepository) CountUnused(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"used": false})
	return n, repositories.Wrap("prizes.count_unused", err)
}

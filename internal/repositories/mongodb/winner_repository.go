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
	"go.uber.org/zap"
)

var _ repositories.WinRepository = (*WinRepository)(nil)

// WinRepository implements the repositories.WinRepository interface.
//
// The prize document carries winnerCount and winnerIds. A claim is a single
// conditional FindOneAndUpdate on that document, which MongoDB applies
// atomically per document; the win row is inserted afterwards and the prize
// update is reverted if that insert fails.
type WinRepository struct {
	collection *mongo.Collection
	prizes     *mongo.Collection
	users      *mongo.Collection
	log        *zap.Logger
}

// NewWinRepository creates a new WinRepository
func NewWinRepository(db *mongo.Database, log *zap.Logger) *WinRepository {
	return &WinRepository{
		collection: db.Collection(winsCollection),
		prizes:     db.Collection(prizesCollection),
		users:      db.Collection(usersCollection),
		log:        log,
	}
}

// CountByPrize counts the win records of a prize
func (r *WinRepository) CountByPrize(ctx context.Context, prizeID int64) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"prizeId": prizeID})
	return n, repositories.Wrap("wins.count_by_prize", err)
}

// Record inserts a win unless the user already won the prize
func (r *WinRepository) Record(ctx context.Context, userID, prizeID int64) (models.RecordResult, error) {
	outcome, _, err := r.Claim(ctx, userID, prizeID, 0)
	if err != nil {
		return 0, err
	}
	if outcome == models.ClaimDuplicate {
		return models.WinAlreadyWon, nil
	}
	return models.WinAccepted, nil
}

// Claim takes a winner slot on the prize and records the win
func (r *WinRepository) Claim(ctx context.Context, userID, prizeID int64, limit int) (models.ClaimOutcome, *models.Prize, error) {
	if err := r.users.FindOne(ctx, bson.M{"_id": userID}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil, repositories.ErrUserNotFound
		}
		return "", nil, repositories.Wrap("wins.claim.user", err)
	}

	filter := bson.M{"_id": prizeID, "winnerIds": bson.M{"$ne": userID}}
	if limit > 0 {
		filter["winnerCount"] = bson.M{"$lt": limit}
	}
	update := bson.M{
		"$inc":  bson.M{"winnerCount": 1},
		"$push": bson.M{"winnerIds": userID},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var prize models.Prize
	err := r.prizes.FindOneAndUpdate(ctx, filter, update, opts).Decode(&prize)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r.rejected(ctx, userID, prizeID)
	}
	if err != nil {
		return "", nil, repositories.Wrap("wins.claim.slot", err)
	}

	win := &models.WinRecord{UserID: userID, PrizeID: prizeID, WonAt: time.Now()}
	if _, err := r.collection.InsertOne(ctx, win); err != nil {
		r.release(ctx, userID, prizeID)
		if mongo.IsDuplicateKeyError(err) {
			return models.ClaimDuplicate, &prize, nil
		}
		return "", nil, repositories.Wrap("wins.claim.insert", err)
	}
	return models.ClaimAccepted, &prize, nil
}

// rejected works out why the conditional update matched nothing
func (r *WinRepository) rejected(ctx context.Context, userID, prizeID int64) (models.ClaimOutcome, *models.Prize, error) {
	prize, err := findPrize(ctx, r.prizes, prizeID)
	if err != nil {
		return "", nil, err
	}
	for _, id := range prize.WinnerIDs {
		if id == userID {
			return models.ClaimDuplicate, prize, nil
		}
	}
	return models.ClaimClosedOut, prize, nil
}

// release gives back a slot taken by a claim whose win row was not written
func (r *WinRepository) release(ctx context.Context, userID, prizeID int64) {
	filter := bson.M{"_id": prizeID, "winnerIds": userID}
	update := bson.M{
		"$inc":  bson.M{"winnerCount": -1},
		"$pull": bson.M{"winnerIds": userID},
	}
	if _, err := r.prizes.UpdateOne(ctx, filter, update); err != nil {
		r.log.Error("failed to release winner slot",
			zap.Int64("userId", userID), zap.Int64("prizeId", prizeID), zap.Error(err))
	}
}

// ImagesByUser joins the user's wins with their prizes
func (r *WinRepository) ImagesByUser(ctx context.Context, userID int64) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$sort", Value: bson.M{"wonAt": 1}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         prizesCollection,
			"localField":   "prizeId",
			"foreignField": "_id",
			"as":           "prize",
		}}},
		{{Key: "$unwind", Value: "$prize"}},
		{{Key: "$project", Value: bson.M{"_id": 0, "image": "$prize.image"}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, repositories.Wrap("wins.images_by_user", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Image string `bson:"image"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, repositories.Wrap("wins.images_by_user", err)
	}
	images := make([]string, 0, len(rows))
	for _, row := range rows {
		images = append(images, row.Image)
	}
	return images, nil
}

// TopWinners groups wins per user and joins the user name
func (r *WinRepository) TopWinners(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":      "$userId",
			"wins":     bson.M{"$sum": 1},
			"firstWin": bson.M{"$min": "$wonAt"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "wins", Value: -1}, {Key: "firstWin", Value: 1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		bson.D{{Key: "$unwind", Value: "$user"}},
		bson.D{{Key: "$project", Value: bson.M{"wins": 1, "firstWin": 1, "userName": "$user.name"}}},
		// $lookup does not guarantee order
		bson.D{{Key: "$sort", Value: bson.D{{Key: "wins", Value: -1}, {Key: "firstWin", Value: 1}, {Key: "_id", Value: 1}}}},
	)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, repositories.Wrap("wins.top_winners", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.LeaderboardEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, repositories.Wrap("wins.top_winners", err)
	}
	if entries == nil {
		entries = []*models.LeaderboardEntry{}
	}
	return entries, nil
}

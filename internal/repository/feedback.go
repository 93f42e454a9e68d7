package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/argus/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const feedbackCollection = "feedback"

type FeedbackRepository struct {
	coll *mongo.Collection
}

func NewFeedbackRepository(mongoRepo *MongoRepository) *FeedbackRepository {
	return &FeedbackRepository{
		coll: mongoRepo.Collection(feedbackCollection),
	}
}

func (r *FeedbackRepository) InsertFeedbackItems(ctx context.Context, items []models.FeedbackItem) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(items))
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		if items[i].Status == "" {
			items[i].Status = models.FeedbackPending
		}
		items[i].CreatedAt = now
		docs = append(docs, items[i])
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert feedback items: %w", err)
	}

	return nil
}

// ReplaceFeedbackForSubmission drops any feedback already stored for the
// submission before inserting the fresh items. Re-analyzing a replayed
// submission therefore never duplicates rows.
func (r *FeedbackRepository) ReplaceFeedbackForSubmission(ctx context.Context, submissionID string, items []models.FeedbackItem) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"submissionId": submissionID}); err != nil {
		return fmt.Errorf("failed to clear previous feedback: %w", err)
	}

	return r.InsertFeedbackItems(ctx, items)
}

func (r *FeedbackRepository) ListFeedbackBySubmission(ctx context.Context, submissionID string) ([]models.FeedbackItem, error) {
	filter := bson.M{"submissionId": submissionID}
	opts := options.Find().SetSort(bson.D{{Key: "line", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find feedback: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.FeedbackItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode feedback: %w", err)
	}

	return items, nil
}

func (r *FeedbackRepository) UpdateFeedbackStatus(ctx context.Context, id string, status models.FeedbackStatus) (*models.FeedbackItem, error) {
	update := bson.M{"$set": bson.M{"status": status}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var item models.FeedbackItem
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update feedback status: %w", err)
	}

	return &item, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/argus/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const submissionsCollection = "submissions"

type SubmissionsRepository struct {
	coll *mongo.Collection
}

func NewSubmissionsRepository(mongoRepo *MongoRepository) *SubmissionsRepository {
	return &SubmissionsRepository{
		coll: mongoRepo.Collection(submissionsCollection),
	}
}

// EnsureIndexes creates the assignment index used by sibling listing.
func (r *SubmissionsRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "assignmentId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create submission indexes: %w", err)
	}

	return nil
}

// InsertSubmission stores a new submission. Re-inserting an id that
// already exists is not an error, so replayed stream messages are benign.
func (r *SubmissionsRepository) InsertSubmission(ctx context.Context, submission *models.Submission) error {
	submission.SubmittedAt = time.Now()

	_, err := r.coll.InsertOne(ctx, submission)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	return nil
}

func (r *SubmissionsRepository) GetSubmissionByID(ctx context.Context, id string) (*models.Submission, error) {
	var submission models.Submission
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&submission)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}

	return &submission, nil
}

// ListSiblings returns the ids of all other submissions for the assignment
func (r *SubmissionsRepository) ListSiblings(ctx context.Context, assignmentID, excludeID string) ([]string, error) {
	filter := bson.M{
		"assignmentId": assignmentID,
		"_id":          bson.M{"$ne": excludeID},
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find siblings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode siblings: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}

	return ids, nil
}

func (r *SubmissionsRepository) UpdateSubmissionStatus(ctx context.Context, id string, status models.SubmissionStatus) error {
	update := bson.M{"$set": bson.M{"status": status}}

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update submission status: %w", err)
	}

	return nil
}

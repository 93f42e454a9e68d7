package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/argus/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const reportsCollection = "plagiarism_reports"

// ErrAlreadySettled is returned when a report transition is attempted on a
// report that already left the flagged state.
var ErrAlreadySettled = errors.New("report already reviewed or dismissed")

type ReportsRepository struct {
	coll *mongo.Collection
}

func NewReportsRepository(mongoRepo *MongoRepository) *ReportsRepository {
	return &ReportsRepository{
		coll: mongoRepo.Collection(reportsCollection),
	}
}

// EnsureIndexes creates the unique pair index that makes Upsert atomic
// under concurrent scans, plus the assignment listing index.
func (r *ReportsRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "submission1", Value: 1}, {Key: "submission2", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "assignmentId", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create report indexes: %w", err)
	}

	return nil
}

// canonicalPair orders two submission ids so the pair is unordered for
// uniqueness: the lexicographically smaller id always comes first.
func canonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Upsert creates the report for a pair if none exists and returns the
// stored record plus whether this call created it. An existing report
// comes back unchanged: score, matched lines and status are never
// overwritten.
func (r *ReportsRepository) Upsert(ctx context.Context, submissionA, submissionB, assignmentID string, score float64, matchedLines []int) (*models.PlagiarismReport, bool, error) {
	s1, s2 := canonicalPair(submissionA, submissionB)

	if matchedLines == nil {
		matchedLines = []int{}
	}

	filter := bson.M{"submission1": s1, "submission2": s2}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":             uuid.New().String(),
			"submission1":     s1,
			"submission2":     s2,
			"assignmentId":    assignmentID,
			"similarityScore": score,
			"matchedLines":    matchedLines,
			"status":          models.ReportFlagged,
			"createdAt":       time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)

	created := false
	result, err := r.coll.UpdateOne(ctx, filter, update, opts)
	switch {
	case mongo.IsDuplicateKeyError(err):
		// Lost a concurrent insert race; the winner's record is the record
	case err != nil:
		return nil, false, fmt.Errorf("failed to upsert report: %w", err)
	default:
		created = result.UpsertedCount > 0
	}

	report, err := r.GetReportByPair(ctx, s1, s2)
	if err != nil {
		return nil, false, err
	}
	if report == nil {
		return nil, false, fmt.Errorf("report for pair %s/%s vanished after upsert", s1, s2)
	}

	return report, created, nil
}

func (r *ReportsRepository) GetReportByID(ctx context.Context, id string) (*models.PlagiarismReport, error) {
	filter := bson.M{"_id": id}

	var report models.PlagiarismReport
	err := r.coll.FindOne(ctx, filter).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return &report, nil
}

func (r *ReportsRepository) GetReportByPair(ctx context.Context, submissionA, submissionB string) (*models.PlagiarismReport, error) {
	s1, s2 := canonicalPair(submissionA, submissionB)
	filter := bson.M{"submission1": s1, "submission2": s2}

	var report models.PlagiarismReport
	err := r.coll.FindOne(ctx, filter).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return &report, nil
}

func (r *ReportsRepository) ListReportsByAssignment(ctx context.Context, assignmentID string) ([]models.PlagiarismReport, error) {
	filter := bson.M{"assignmentId": assignmentID}
	opts := options.Find().SetSort(bson.D{
		{Key: "similarityScore", Value: -1},
		{Key: "createdAt", Value: -1},
	})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := make([]models.PlagiarismReport, 0)
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}

	return reports, nil
}

// MarkReviewed moves a flagged report to reviewed. Settled reports are
// never moved again.
func (r *ReportsRepository) MarkReviewed(ctx context.Context, id, reviewedBy, notes string) (*models.PlagiarismReport, error) {
	return r.transition(ctx, id, models.ReportReviewed, reviewedBy, notes)
}

// Dismiss moves a flagged report to dismissed. Settled reports are never
// moved again.
func (r *ReportsRepository) Dismiss(ctx context.Context, id, reviewedBy, notes string) (*models.PlagiarismReport, error) {
	return r.transition(ctx, id, models.ReportDismissed, reviewedBy, notes)
}

func (r *ReportsRepository) transition(ctx context.Context, id string, to models.ReportStatus, reviewedBy, notes string) (*models.PlagiarismReport, error) {
	filter := bson.M{"_id": id, "status": models.ReportFlagged}
	update := bson.M{"$set": bson.M{
		"status":          to,
		"reviewedAt":      time.Now(),
		"reviewedBy":      reviewedBy,
		"instructorNotes": notes,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var report models.PlagiarismReport
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&report)
	if err == mongo.ErrNoDocuments {
		// Either the report does not exist or it is no longer flagged
		existing, getErr := r.GetReportByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil {
			return nil, nil
		}
		return nil, ErrAlreadySettled
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update report status: %w", err)
	}

	return &report, nil
}

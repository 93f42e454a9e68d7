package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisInfra "github.com/RishiKendai/argus/internal/infra/redis"
	"github.com/RishiKendai/argus/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	statusKeyPrefix = "plagiarism_scan_status:"
	statusTTL       = 12 * time.Hour
)

// StatusStore keeps per-submission scan progress in Redis so the web
// layer can poll it. Entries expire on their own.
type StatusStore struct {
	client *redisInfra.Client
}

func NewStatusStore(client *redisInfra.Client) *StatusStore {
	return &StatusStore{client: client}
}

func (s *StatusStore) Update(ctx context.Context, submissionID string, step models.Step) error {
	validSteps := map[models.Step]bool{
		models.StepIdle:      true,
		models.StepStarted:   true,
		models.StepScanning:  true,
		models.StepCompleted: true,
		models.StepFailed:    true,
	}
	if !validSteps[step] {
		return fmt.Errorf("unknown step: %s", step)
	}

	rkey := statusKeyPrefix + submissionID

	if err := s.client.Set(ctx, rkey, string(step), statusTTL).Err(); err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("submissionId", submissionID).
			Str("redisKey", rkey).
			Msg("Failed to update scan status in Redis")
		return fmt.Errorf("failed to update scan status in Redis: %w", err)
	}

	return nil
}

// Get returns the stored step for a submission, or StepIdle when no scan
// has touched it yet (or the entry expired).
func (s *StatusStore) Get(ctx context.Context, submissionID string) (models.Step, error) {
	rkey := statusKeyPrefix + submissionID

	value, err := s.client.Get(ctx, rkey).Result()
	if errors.Is(err, redis.Nil) {
		return models.StepIdle, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read scan status from Redis: %w", err)
	}

	return models.Step(value), nil
}

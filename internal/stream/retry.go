package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/argus/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// streamAppender is the slice of the Redis client the handler needs to
// park exhausted messages.
type streamAppender interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// RetryHandler retries a failed message a fixed number of times with
// exponential backoff, then parks it on the dead letter stream.
type RetryHandler struct {
	client        streamAppender
	deadLetterKey string
	maxAttempts   int
	baseDelay     time.Duration
}

func NewRetryHandler(client *redis.Client, deadLetterKey string) *RetryHandler {
	return &RetryHandler{
		client:        client,
		deadLetterKey: deadLetterKey,
		maxAttempts:   3,
		baseDelay:     1 * time.Second,
	}
}

// RetryWithBackoff runs operation until it succeeds or attempts run out.
// Exhausted messages go to the dead letter stream with their original
// fields so they can be replayed by hand. Cancellation is not
// exhaustion: when ctx dies mid-retry the context error comes back and
// nothing is parked.
func (h *RetryHandler) RetryWithBackoff(ctx context.Context, operation func() error, messageID string, fields map[string]interface{}) error {
	var lastErr error

	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		log.Warn().
			Err(lastErr).
			Str("message_id", messageID).
			Int("attempt", attempt).
			Int("max_attempts", h.maxAttempts).
			Msg("Message processing failed")

		if attempt == h.maxAttempts {
			break
		}

		// 1s, 2s, 4s, ...
		delay := h.baseDelay * time.Duration(1<<(attempt-1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := h.sendToDeadLetter(ctx, messageID, fields, lastErr); err != nil {
		log.Error().
			Err(err).
			Str("message_id", messageID).
			Msg("Failed to park message on dead letter stream")
	}

	return fmt.Errorf("processing failed after %d attempts: %w", h.maxAttempts, lastErr)
}

func (h *RetryHandler) sendToDeadLetter(ctx context.Context, messageID string, fields map[string]interface{}, cause error) error {
	values := make(map[string]interface{}, len(fields)+3)
	for key, val := range fields {
		values[key] = val
	}
	values["original_message_id"] = messageID
	values["error"] = cause.Error()
	values["failed_at"] = time.Now().Format(time.RFC3339)

	if err := h.client.XAdd(ctx, &redis.XAddArgs{
		Stream: h.deadLetterKey,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("failed to append to dead letter stream: %w", err)
	}

	metrics.StreamDeadLetters.Inc()
	log.Error().
		Str("message_id", messageID).
		Str("dead_letter_key", h.deadLetterKey).
		Msg("Message parked on dead letter stream")

	return nil
}

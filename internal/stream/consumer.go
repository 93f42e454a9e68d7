// Package stream pulls submissions off a Redis Stream and feeds them to
// the intake pipeline. Delivery is at least once: entries are read
// through a consumer group, acknowledged only after the pipeline ran,
// and parked on a dead letter stream once retries are exhausted.
package stream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RishiKendai/argus/internal/intake"
	"github.com/RishiKendai/argus/internal/metrics"
	"github.com/RishiKendai/argus/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	readBatchSize = 10
	readBlock     = time.Second

	// Entries left pending longer than claimMinIdle belonged to a
	// consumer that died mid-message and are taken over here.
	claimInterval = 30 * time.Second
	claimMinIdle  = time.Minute
	claimBatch    = 100

	trimInterval = time.Hour
)

// Processor runs the submission pipeline for parsed messages.
type Processor interface {
	Process(ctx context.Context, submission *models.Submission, source string) error
}

// Consumer reads submission entries from one stream as a member of a
// consumer group. Multiple replicas with distinct names share the load.
type Consumer struct {
	client    *redis.Client
	stream    string
	group     string
	name      string
	processor Processor
	retries   *RetryHandler
	retention time.Duration
}

func NewConsumer(
	client *redis.Client,
	stream string,
	group string,
	name string,
	processor Processor,
	retries *RetryHandler,
	retention time.Duration,
) *Consumer {
	return &Consumer{
		client:    client,
		stream:    stream,
		group:     group,
		name:      name,
		processor: processor,
		retries:   retries,
		retention: retention,
	}
}

// Start blocks reading the stream until ctx is cancelled. Stale pending
// entries are reclaimed on startup and every claimInterval after that,
// and entries past the retention window are trimmed in the background.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.claimStale(ctx)
	go c.trimLoop(ctx)

	claim := time.NewTicker(claimInterval)
	defer claim.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-claim.C:
			c.claimStale(ctx)
		default:
		}

		if err := c.readBatch(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Str("stream", c.stream).Msg("Stream read failed")
			time.Sleep(time.Second)
		}
	}
}

// ensureGroup creates the consumer group, and the stream with it when
// this is the first consumer ever to come up.
func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "$").Err()
	switch {
	case err == nil:
		log.Info().
			Str("stream", c.stream).
			Str("group", c.group).
			Msg("Created consumer group")
		return nil
	case strings.Contains(err.Error(), "BUSYGROUP"):
		return nil
	default:
		return fmt.Errorf("create consumer group %s: %w", c.group, err)
	}
}

func (c *Consumer) readBatch(ctx context.Context) error {
	res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{c.stream, ">"},
		Count:    readBatchSize,
		Block:    readBlock,
	}).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read group %s: %w", c.group, err)
	}

	for _, str := range res {
		for i := range str.Messages {
			c.handle(ctx, &str.Messages[i])
		}
	}
	return nil
}

// handle runs one entry through the pipeline and settles its fate.
// Processed and malformed entries are acknowledged, exhausted ones are
// acknowledged after the retry handler parked them, and entries
// interrupted by shutdown stay pending for the next consumer to claim.
func (c *Consumer) handle(ctx context.Context, msg *redis.XMessage) {
	fields := stringFields(msg.Values)

	sub, err := ParseSubmission(&StreamMessage{ID: msg.ID, Fields: fields})
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Dropping malformed stream entry")
		metrics.StreamMessages.WithLabelValues("malformed").Inc()
		c.ack(ctx, msg.ID)
		return
	}

	log.Debug().
		Str("message_id", msg.ID).
		Str("submission_id", sub.ID).
		Str("assignment_id", sub.AssignmentID).
		Msg("Handling stream submission")

	err = c.retries.RetryWithBackoff(ctx, func() error {
		return c.processor.Process(ctx, sub, intake.SourceStream)
	}, msg.ID, deadLetterFields(fields))

	switch {
	case err == nil:
		metrics.StreamMessages.WithLabelValues("processed").Inc()
	case ctx.Err() != nil:
		// Interrupted, not exhausted. The entry stays pending and the
		// claim loop of the next consumer picks it up.
		return
	default:
		// Parked on the dead letter stream. Ack so the claim loop does
		// not resurrect an entry we already gave up on.
		metrics.StreamMessages.WithLabelValues("failed").Inc()
	}

	c.ack(ctx, msg.ID)
}

// claimStale takes over entries another consumer read but never
// acknowledged and runs them through the pipeline again.
func (c *Consumer) claimStale(ctx context.Context) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.stream,
		Group:  c.group,
		Start:  "-",
		End:    "+",
		Count:  claimBatch,
	}).Result()
	if err != nil && err != redis.Nil {
		log.Warn().Err(err).Msg("Could not inspect pending entries")
		return
	}

	ids := make([]string, 0, len(pending))
	for _, entry := range pending {
		if entry.Idle >= claimMinIdle {
			ids = append(ids, entry.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.stream,
		Group:    c.group,
		Consumer: c.name,
		MinIdle:  claimMinIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		log.Warn().Err(err).Msg("Could not claim stale entries")
		return
	}
	if len(claimed) == 0 {
		return
	}

	log.Info().
		Int("claimed", len(claimed)).
		Str("consumer", c.name).
		Msg("Reclaimed stale stream entries")

	for i := range claimed {
		c.handle(ctx, &claimed[i])
	}
}

// trimLoop drops entries older than the retention window. Acknowledged
// entries otherwise stay in the stream and Redis memory grows without
// bound.
func (c *Consumer) trimLoop(ctx context.Context) {
	ticker := time.NewTicker(trimInterval)
	defer ticker.Stop()

	for {
		if err := c.trimExpired(ctx); err != nil {
			log.Warn().Err(err).Str("stream", c.stream).Msg("Stream trim failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Consumer) trimExpired(ctx context.Context) error {
	cutoff := time.Now().Add(-c.retention)
	minID := strconv.FormatInt(cutoff.UnixMilli(), 10) + "-0"

	trimmed, err := c.client.XTrimMinID(ctx, c.stream, minID).Result()
	if err != nil {
		return err
	}
	if trimmed > 0 {
		log.Info().
			Int64("entries", trimmed).
			Str("stream", c.stream).
			Msg("Trimmed expired stream entries")
	}
	return nil
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, c.stream, c.group, id).Err(); err != nil {
		log.Error().Err(err).Str("message_id", id).Msg("Failed to acknowledge stream entry")
	}
}

// stringFields keeps the string-typed values of a raw stream entry.
func stringFields(values map[string]interface{}) map[string]string {
	fields := make(map[string]string, len(values))
	for key, val := range values {
		if s, ok := val.(string); ok {
			fields[key] = s
		}
	}
	return fields
}

// deadLetterFields widens parsed fields back to the map type XAdd takes.
func deadLetterFields(fields map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for key, val := range fields {
		out[key] = val
	}
	return out
}

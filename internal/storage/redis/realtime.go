package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"jober/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const applicantChannelPrefix = "applications:applicant:"

func ApplicantChannel(applicantID int64) string {
	return fmt.Sprintf("%s%d", applicantChannelPrefix, applicantID)
}

func ApplicantChannelPattern() string {
	return applicantChannelPrefix + "*"
}

// PublishStatusChange notifies subscribers of the applicant's channel
func (c *Cache) PublishStatusChange(ctx context.Context, change models.StatusChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal status change: %w", err)
	}

	receivers, err := c.client.Publish(ctx, ApplicantChannel(change.ApplicantID), data).Result()
	if err != nil {
		c.logger.Error("failed to publish status change",
			zap.Int64("application_id", change.ApplicationID),
			zap.Error(err),
		)
		return fmt.Errorf("publish status change: %w", err)
	}

	c.logger.Debug("status change published",
		zap.Int64("application_id", change.ApplicationID),
		zap.Int64("applicant_id", change.ApplicantID),
		zap.Int64("receivers", receivers),
	)

	return nil
}

// SubscribeStatusChanges follows one applicant's channel until ctx is done
// or the returned close func is called
func (c *Cache) SubscribeStatusChanges(ctx context.Context, applicantID int64) (<-chan models.StatusChange, func() error, error) {
	return c.subscribe(ctx, c.client.Subscribe(ctx, ApplicantChannel(applicantID)))
}

// SubscribeAllStatusChanges follows every applicant channel
func (c *Cache) SubscribeAllStatusChanges(ctx context.Context) (<-chan models.StatusChange, func() error, error) {
	return c.subscribe(ctx, c.client.PSubscribe(ctx, ApplicantChannelPattern()))
}

func (c *Cache) subscribe(ctx context.Context, pubsub *redis.PubSub) (<-chan models.StatusChange, func() error, error) {
	// wait for the subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan models.StatusChange)

	go func() {
		defer close(out)

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var change models.StatusChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					c.logger.Warn("invalid status change payload",
						zap.String("channel", msg.Channel),
						zap.Error(err),
					)
					continue
				}

				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, pubsub.Close, nil
}

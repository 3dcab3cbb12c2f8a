// Package notification delivers user notifications to a Redis stream a
// downstream worker drains.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/notification"
	"github.com/redis/go-redis/v9"
)

type message struct {
	UserID  uuid.UUID `json:"user_id"`
	Kind    string    `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Link    string    `json:"link,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// RedisStreamSink publishes notifications to a Redis stream via XADD.
type RedisStreamSink struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

var _ notification.Sink = (*RedisStreamSink)(nil)

// NewRedisStreamSink connects a sink to a Redis stream.
func NewRedisStreamSink(
	url, stream string,
	logger *slog.Logger,
) (*RedisStreamSink, error) {
	if url == "" || stream == "" {
		return nil, fmt.Errorf("notification sink: url and stream are required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("notification sink: invalid URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("notification sink: connection failed: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStreamSink{
		client: client,
		stream: stream,
		logger: logger.With("component", "redis-notification-sink"),
	}, nil
}

// Notify implements notification.Sink.
func (s *RedisStreamSink) Notify(
	ctx context.Context,
	userID uuid.UUID,
	kind, title, msg, link string,
) error {
	data, err := json.Marshal(message{
		UserID:  userID,
		Kind:    kind,
		Title:   title,
		Message: msg,
		Link:    link,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("notification sink: marshal failed: %w", err)
	}
	if err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{"notification": string(data)},
	}).Err(); err != nil {
		s.logger.Error("failed to publish notification",
			"user_id", userID, "kind", kind, "error", err)
		return fmt.Errorf("notification sink: publish failed: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStreamSink) Close() error {
	return s.client.Close()
}

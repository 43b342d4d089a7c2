package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// notificationRelay carries notification events between API replicas.
type notificationRelay interface {
	Name() string
	Publish(ctx context.Context, payload []byte) error
	// Consume delivers every received payload to handle until ctx is cancelled.
	Consume(ctx context.Context, handle func([]byte))
}

type redisRelay struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

func newRedisRelay(client *redis.Client, base string, logger zerolog.Logger) *redisRelay {
	return &redisRelay{client: client, channel: base + ":notifications", logger: logger}
}

func (r *redisRelay) Name() string { return "redis" }

func (r *redisRelay) Publish(ctx context.Context, payload []byte) error {
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *redisRelay) Consume(ctx context.Context, handle func([]byte)) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				r.logger.Error().Err(err).Str("channel", r.channel).Msg("notification redis subscription closed")
			}
			return
		}
		handle([]byte(msg.Payload))
	}
}

type natsRelay struct {
	conn    *nats.Conn
	subject string
	queue   string
	logger  zerolog.Logger
}

func newNATSRelay(conn *nats.Conn, base string, logger zerolog.Logger) *natsRelay {
	return &natsRelay{
		conn:    conn,
		subject: strings.ReplaceAll(base, ":", ".") + ".notifications",
		logger:  logger,
	}
}

func (r *natsRelay) Name() string { return "nats" }

func (r *natsRelay) Publish(_ context.Context, payload []byte) error {
	return r.conn.Publish(r.subject, payload)
}

// Consume uses a plain subscription: every replica must see every event to reach its own
// SSE clients.
func (r *natsRelay) Consume(ctx context.Context, handle func([]byte)) {
	sub, err := r.conn.Subscribe(r.subject, func(msg *nats.Msg) {
		handle(msg.Data)
	})
	if err != nil {
		r.logger.Error().Err(err).Str("subject", r.subject).Msg("failed to subscribe to notification subject")
		return
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		r.logger.Warn().Err(err).Msg("failed to drain notification subscription")
	}
}

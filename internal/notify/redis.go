package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/events"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// Pusher is the slice of the redis client this package uses.
type Pusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisNotifier appends JSON messages to a Redis list drained by the
// delivery service. A circuit breaker stops hammering Redis while it is
// down; open-circuit calls fail fast with gobreaker.ErrOpenState.
type RedisNotifier struct {
	client  Pusher
	key     string
	breaker *gobreaker.CircuitBreaker[int64]
}

type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}
}

func NewRedisNotifier(client Pusher, key string, bs BreakerSettings, log *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		key:    key,
		breaker: gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
			Name:        "redis-notify",
			MaxRequests: 1,
			Timeout:     bs.OpenTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= bs.ConsecutiveFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

func (n *RedisNotifier) Notify(ctx context.Context, kind events.Type, doctorID uuid.UUID, ap models.Appointment, patient PatientSnapshot) error {
	body, err := json.Marshal(messageFor(kind, doctorID, ap, patient))
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	_, err = n.breaker.Execute(func() (int64, error) {
		return n.client.RPush(ctx, n.key, body).Result()
	})
	if err != nil {
		return fmt.Errorf("pushing notification: %w", err)
	}
	return nil
}

// State exposes the breaker state for health reporting.
func (n *RedisNotifier) State() gobreaker.State {
	return n.breaker.State()
}

var _ Notifier = (*RedisNotifier)(nil)

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/config"
	"github.com/christi903/fraudwatch-service/pkg/metrics"
)

const channelPrefix = "fraudwatch:changes:"

// NewRedisClient connects to Redis from configuration
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Notifier fans row-change events out to subscribed sessions over Redis
// pub/sub. Delivery is best-effort: correctness of the views depends on
// refetch, not on every event arriving.
type Notifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(client *redis.Client, logger *zap.Logger) *Notifier {
	return &Notifier{
		client: client,
		logger: logger,
	}
}

// Publish announces a row change on the table's channel.
func (n *Notifier) Publish(ctx context.Context, event entities.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := n.client.Publish(ctx, channelPrefix+event.Table, payload).Err(); err != nil {
		n.logger.Warn("Failed to publish change event",
			zap.Error(err), zap.String("table", event.Table))
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	metrics.ChangeEventsTotal.WithLabelValues(event.Table, string(event.Kind)).Inc()
	return nil
}

// Subscribe registers a callback for changes on a table and returns an
// unsubscribe function. The unsubscribe function must be called on
// teardown; it blocks until the delivery goroutine has exited.
func (n *Notifier) Subscribe(ctx context.Context, table string, fn func(entities.ChangeEvent)) (func(), error) {
	sub := n.client.Subscribe(ctx, channelPrefix+table)

	// Force the subscription to be established before returning so that
	// events published immediately after Subscribe are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s changes: %w", table, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range sub.Channel() {
			var event entities.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				n.logger.Warn("Dropping malformed change event", zap.Error(err))
				continue
			}
			fn(event)
		}
	}()

	unsubscribe := func() {
		sub.Close()
		wg.Wait()
	}
	return unsubscribe, nil
}

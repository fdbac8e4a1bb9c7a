package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orchestra-mcp/relay/src/types"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	publishTimeout = 2 * time.Second
	queueSize      = 256
)

var (
	// ErrQueueFull is returned when an activity is dropped because the
	// publish queue is saturated.
	ErrQueueFull = errors.New("bridge: publish queue full")
	// ErrStopped is returned by PublishActivity after Stop.
	ErrStopped = errors.New("bridge: stopped")
)

// publishFunc sends one encoded envelope to a channel.
type publishFunc func(ctx context.Context, channel string, data []byte) error

// redisEnvelope wraps an activity with the originating instance ID so
// observers can tell relay processes apart.
type redisEnvelope struct {
	InstanceID string         `json:"instance_id"`
	Activity   types.Activity `json:"activity"`
}

// RedisBridge publishes presence activity on per-room Redis channels.
// PublishActivity only queues; a worker started by Start does the I/O.
type RedisBridge struct {
	client     *redis.Client
	cfg        *RedisConfig
	instanceID string
	logger     zerolog.Logger
	publish    publishFunc
	queue      chan types.Activity

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	active bool
}

// NewRedisBridge creates a bridge publishing through Redis pub/sub.
func NewRedisBridge(cfg *RedisConfig, logger zerolog.Logger) *RedisBridge {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithCancel(context.Background())

	b := &RedisBridge{
		client:     client,
		cfg:        cfg,
		instanceID: uuid.New().String(),
		logger:     logger.With().Str("component", "redis-bridge").Logger(),
		queue:      make(chan types.Activity, queueSize),
		ctx:        ctx,
		cancel:     cancel,
	}
	b.publish = func(ctx context.Context, channel string, data []byte) error {
		return client.Publish(ctx, channel, data).Err()
	}
	return b
}

// Start verifies connectivity and marks the bridge available.
func (b *RedisBridge) Start() error {
	if err := b.client.Ping(b.ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", b.cfg.Addr, err)
	}

	b.startWorker()

	b.mu.Lock()
	b.active = true
	b.mu.Unlock()

	b.logger.Info().
		Str("instance_id", b.instanceID).
		Str("addr", b.cfg.Addr).
		Msg("redis bridge started")
	return nil
}

// PublishActivity queues a for publication without blocking. A full queue
// drops the activity.
func (b *RedisBridge) PublishActivity(a types.Activity) error {
	if b.ctx.Err() != nil {
		return ErrStopped
	}
	select {
	case b.queue <- a:
		return nil
	default:
		b.logger.Warn().Str("event", a.Event).Str("room_id", a.RoomID).Msg("publish queue full, dropping activity")
		return ErrQueueFull
	}
}

func (b *RedisBridge) startWorker() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case a := <-b.queue:
				b.send(a)
			case <-b.ctx.Done():
				return
			}
		}
	}()
}

func (b *RedisBridge) send(a types.Activity) {
	data, err := b.encode(a)
	if err != nil {
		b.logger.Error().Err(err).Str("event", a.Event).Msg("encode activity")
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, publishTimeout)
	defer cancel()
	if err := b.publish(ctx, b.cfg.Channel(a.RoomID), data); err != nil {
		b.logger.Warn().Err(err).Str("event", a.Event).Str("room_id", a.RoomID).Msg("activity publish failed")
	}
}

func (b *RedisBridge) encode(a types.Activity) ([]byte, error) {
	return json.Marshal(redisEnvelope{InstanceID: b.instanceID, Activity: a})
}

// Stop waits for the worker and closes the Redis connection. Activities
// still queued are discarded.
func (b *RedisBridge) Stop() error {
	b.mu.Lock()
	b.active = false
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

// Available reports whether the bridge is connected.
func (b *RedisBridge) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

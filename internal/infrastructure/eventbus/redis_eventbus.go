package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/statuswatch/internal/domain/event"
)

// DefaultChannelPrefix is prepended to the event type to build the pub/sub channel.
const DefaultChannelPrefix = "statuswatch:events:"

// ErrAlreadyRunning is returned by Start when the bus is consuming already.
var ErrAlreadyRunning = errors.New("event bus is already running")

// RedisEventBus publishes events to Redis pub/sub, one channel per event type,
// and fans received events out to local handlers.
type RedisEventBus struct {
	client   redis.UniversalClient
	handlers *handlerSet

	logger   *slog.Logger
	retry    RetryConfig
	prefix   string
	observer PublishObserver

	running  atomic.Bool
	inflight sync.WaitGroup

	// stop и done принадлежат текущему вызову Start
	mu       sync.Mutex
	stop     context.CancelFunc
	done     chan struct{}
	closeErr error
}

// RedisEventBusOption configures RedisEventBus.
type RedisEventBusOption func(*RedisEventBus)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RedisEventBusOption {
	return func(b *RedisEventBus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithRetryConfig sets the handler retry policy.
func WithRetryConfig(cfg RetryConfig) RedisEventBusOption {
	return func(b *RedisEventBus) {
		b.retry = cfg
	}
}

// WithChannelPrefix overrides DefaultChannelPrefix.
func WithChannelPrefix(prefix string) RedisEventBusOption {
	return func(b *RedisEventBus) {
		b.prefix = prefix
	}
}

// WithPublishObserver registers a callback for publish outcomes.
func WithPublishObserver(observer PublishObserver) RedisEventBusOption {
	return func(b *RedisEventBus) {
		b.observer = observer
	}
}

// NewRedisEventBus creates a Redis backed bus. Subscribe handlers before Start.
func NewRedisEventBus(client redis.UniversalClient, opts ...RedisEventBusOption) *RedisEventBus {
	b := &RedisEventBus{
		client:   client,
		handlers: newHandlerSet(),
		logger:   slog.Default(),
		retry:    DefaultRetryConfig(),
		prefix:   DefaultChannelPrefix,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish sends the event to the channel of its type.
func (b *RedisEventBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	if evt == nil {
		return ErrNilEvent
	}

	err := b.send(ctx, evt)
	if b.observer != nil {
		b.observer(evt.EventType(), err)
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("event_type", evt.EventType()),
			slog.String("aggregate_id", evt.AggregateID()),
			slog.String("error", err.Error()),
		)
		return err
	}

	b.logger.DebugContext(ctx, "event published",
		slog.String("event_type", evt.EventType()),
		slog.String("aggregate_id", evt.AggregateID()),
	)
	return nil
}

func (b *RedisEventBus) send(ctx context.Context, evt event.DomainEvent) error {
	envelope, err := NewEnvelope(evt)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err = b.client.Publish(ctx, b.channel(evt.EventType()), data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.EventType(), err)
	}
	return nil
}

// Subscribe registers a handler. Types subscribed after Start are not consumed
// until the next Start.
func (b *RedisEventBus) Subscribe(eventType string, handler EventHandler) error {
	if err := b.handlers.add(eventType, handler); err != nil {
		return err
	}
	b.logger.Debug("handler subscribed", slog.String("event_type", eventType))
	return nil
}

// HandlerCount returns the number of handlers for the event type.
func (b *RedisEventBus) HandlerCount(eventType string) int {
	return b.handlers.count(eventType)
}

// IsRunning reports whether Start is consuming messages.
func (b *RedisEventBus) IsRunning() bool {
	return b.running.Load()
}

// Start subscribes to the channels of all registered event types and blocks
// until ctx is canceled or Shutdown is called. Shutdown makes Start return nil.
func (b *RedisEventBus) Start(ctx context.Context) error {
	runCtx, done, err := b.begin(ctx)
	if err != nil {
		return err
	}
	defer b.finish(done)

	eventTypes := b.handlers.eventTypes()
	if len(eventTypes) == 0 {
		b.logger.WarnContext(ctx, "event bus started without subscriptions")
		<-runCtx.Done()
		return ctx.Err()
	}

	channels := make([]string, len(eventTypes))
	for i, eventType := range eventTypes {
		channels[i] = b.channel(eventType)
	}

	pubsub := b.client.Subscribe(runCtx, channels...)
	defer func() {
		if closeErr := pubsub.Close(); closeErr != nil {
			b.mu.Lock()
			b.closeErr = fmt.Errorf("failed to close pubsub: %w", closeErr)
			b.mu.Unlock()
		}
	}()

	if _, err = pubsub.Receive(runCtx); err != nil {
		return fmt.Errorf("failed to subscribe to channels: %w", err)
	}

	b.logger.InfoContext(ctx, "event bus started", slog.Any("channels", channels))

	messages := pubsub.Channel()
	for {
		select {
		case <-runCtx.Done():
			b.logger.InfoContext(ctx, "event bus stopping")
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				b.logger.WarnContext(ctx, "pubsub channel closed")
				return nil
			}
			b.dispatch(runCtx, msg)
		}
	}
}

func (b *RedisEventBus) begin(ctx context.Context) (context.Context, chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running.CompareAndSwap(false, true) {
		return nil, nil, ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.stop = cancel
	b.done = make(chan struct{})
	b.closeErr = nil
	return runCtx, b.done, nil
}

func (b *RedisEventBus) finish(done chan struct{}) {
	b.mu.Lock()
	stop := b.stop
	b.mu.Unlock()
	stop()

	b.inflight.Wait()
	b.running.Store(false)
	close(done)
}

// Shutdown stops a running Start and waits for in-flight handlers.
// Calling it on a stopped bus is a no-op.
func (b *RedisEventBus) Shutdown() error {
	b.mu.Lock()
	stop, done := b.stop, b.done
	b.mu.Unlock()

	if stop == nil || !b.running.Load() {
		return nil
	}

	stop()
	<-done

	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger.Info("event bus shutdown complete")
	return b.closeErr
}

func (b *RedisEventBus) channel(eventType string) string {
	return b.prefix + eventType
}

func (b *RedisEventBus) dispatch(ctx context.Context, msg *redis.Message) {
	var envelope Envelope
	if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
		b.logger.ErrorContext(ctx, "failed to unmarshal envelope",
			slog.String("channel", msg.Channel),
			slog.String("error", err.Error()),
		)
		return
	}
	if envelope.EventType == "" {
		envelope.EventType = strings.TrimPrefix(msg.Channel, b.prefix)
	}

	evt := &ReceivedEvent{envelope: envelope}
	for i, handler := range b.handlers.get(envelope.EventType) {
		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			b.handle(ctx, handler, i, evt)
		}()
	}
}

func (b *RedisEventBus) handle(ctx context.Context, handler EventHandler, index int, evt *ReceivedEvent) {
	attrs := []any{
		slog.String("event_type", evt.EventType()),
		slog.String("event_id", evt.ID()),
		slog.Int("handler", index),
	}

	err := b.retry.run(ctx, func() error {
		return handler(ctx, evt)
	}, func(attempt int, err error) {
		b.logger.WarnContext(ctx, "event handler failed",
			append(attrs, slog.Int("attempt", attempt+1), slog.String("error", err.Error()))...)
	})
	if err != nil {
		b.logger.ErrorContext(ctx, "event handler gave up",
			append(attrs, slog.Int("max_retries", b.retry.MaxRetries), slog.String("error", err.Error()))...)
	}
}

var _ event.Bus = (*RedisEventBus)(nil)

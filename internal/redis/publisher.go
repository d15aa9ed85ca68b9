package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"guardplan/internal/events"

	"github.com/redis/go-redis/v9"
)

// Publisher forwards bus events to a Redis pub/sub channel as JSON so map
// surfaces running in other processes can follow the plan.
type Publisher struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	queue   chan events.Event
	logger  *slog.Logger

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewPublisher creates a publisher with a bounded queue
func NewPublisher(client *redis.Client, channel string, buffer int, timeout time.Duration, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client:  client,
		channel: channel,
		timeout: timeout,
		queue:   make(chan events.Event, buffer),
		logger:  logger,
	}
}

// Attach subscribes the publisher to every event on the bus. Enqueueing never
// blocks the emitter; events are dropped when the queue is full.
func (p *Publisher) Attach(bus *events.Emitter) func() {
	id := bus.Subscribe(p.enqueue)
	return func() { bus.Unsubscribe(id) }
}

func (p *Publisher) enqueue(ev events.Event) {
	select {
	case p.queue <- ev:
	default:
		if p.dropped.Add(1) == 1 {
			p.logger.Warn("redis publisher queue full, dropping events", slog.String("channel", p.channel))
		}
	}
}

// Run publishes queued events until ctx is done
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("redis publisher started", slog.String("channel", p.channel))
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("redis publisher stopped",
				slog.Uint64("published", p.published.Load()),
				slog.Uint64("dropped", p.dropped.Load()),
			)
			return nil
		case ev := <-p.queue:
			p.publish(ctx, ev)
		}
	}
}

func (p *Publisher) publish(ctx context.Context, ev events.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("encode event", slog.String("type", string(ev.Type)), slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn("publish event", slog.String("type", string(ev.Type)), slog.Any("error", err))
		return
	}
	p.published.Add(1)
}

// Published returns the number of events delivered to Redis
func (p *Publisher) Published() uint64 {
	return p.published.Load()
}

// Dropped returns the number of events lost to a full queue
func (p *Publisher) Dropped() uint64 {
	return p.dropped.Load()
}

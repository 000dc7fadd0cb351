// Package queue fans repository change messages out over Redis pub/sub so
// several server processes sharing one Redis store see each other's writes.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/common/events"
)

const DefaultChannel = "acm:events"

type Options struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Handler receives messages published by other instances.
type Handler func(events.Message)

type PubSub struct {
	rdb        *redis.Client
	channel    string
	instanceID string
	handler    Handler
	logger     zerolog.Logger

	mu     sync.Mutex
	sub    *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
}

// Connect pings Redis before returning the fan-out.
func Connect(ctx context.Context, opts Options, handler Handler, logger zerolog.Logger) (*PubSub, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("queue.Connect: could not connect to redis at %s: %w", opts.Addr, err)
	}
	return New(rdb, opts.Channel, handler, logger), nil
}

func New(rdb *redis.Client, channel string, handler Handler, logger zerolog.Logger) *PubSub {
	if channel == "" {
		channel = DefaultChannel
	}
	return &PubSub{
		rdb:        rdb,
		channel:    channel,
		instanceID: uuid.NewString()[:8],
		handler:    handler,
		logger:     logger.With().Str("component", "pubsub").Str("channel", channel).Logger(),
	}
}

func (p *PubSub) InstanceID() string { return p.instanceID }

// Start subscribes and delivers remote messages to the handler until Close.
func (p *PubSub) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	sub := p.rdb.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		sub.Close()
		return fmt.Errorf("queue.PubSub.Start: failed to subscribe: %w", err)
	}

	p.mu.Lock()
	p.sub, p.cancel, p.done = sub, cancel, make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go p.listen(ctx, sub.Channel(), done)
	p.logger.Info().Str("instanceId", p.instanceID).Msg("PubSub started")
	return nil
}

func (p *PubSub) listen(ctx context.Context, ch <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			p.deliver([]byte(msg.Payload))
		}
	}
}

func (p *PubSub) deliver(payload []byte) {
	m, err := events.ParseMessage(payload)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Dropping malformed pubsub message")
		return
	}
	if m.Instance == p.instanceID || p.handler == nil {
		return
	}
	p.handler(m)
}

// Publish stamps the message with this instance id and sends it.
func (p *PubSub) Publish(ctx context.Context, m events.Message) error {
	m.Instance = p.instanceID
	data, err := m.Bytes()
	if err != nil {
		return fmt.Errorf("queue.PubSub.Publish: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("queue.PubSub.Publish: %w", err)
	}
	return nil
}

func (p *PubSub) Close() error {
	p.mu.Lock()
	sub, cancel, done := p.sub, p.cancel, p.done
	p.sub = nil
	p.mu.Unlock()

	if sub != nil {
		cancel()
		sub.Close()
		<-done
	}
	err := p.rdb.Close()
	p.logger.Info().Msg("Redis connection closed")
	return err
}

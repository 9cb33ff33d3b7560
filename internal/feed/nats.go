package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/storefront/pkg/config"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsSubscriber reads product changes from a JetStream stream.
// Every subscription gets its own ephemeral consumer that only sees new messages.
type NatsSubscriber struct {
	js       jetstream.JetStream
	stream   string
	subject  string
	timeout  time.Duration
	interval time.Duration
	logger   *slog.Logger
}

var _ Subscriber = (*NatsSubscriber)(nil)

// NewNatsSubscriber creates a subscriber for the stream and subject in cfg.
func NewNatsSubscriber(js jetstream.JetStream, cfg config.FeedConfig, logger *slog.Logger) *NatsSubscriber {
	return &NatsSubscriber{
		js:       js,
		stream:   cfg.Stream,
		subject:  cfg.Subject,
		timeout:  cfg.Timeout,
		interval: cfg.Interval,
		logger:   logger.With("component", "nats_feed"),
	}
}

// Subscribe creates the consumer and starts the fetch loop.
func (n *NatsSubscriber) Subscribe(ctx context.Context, handler Handler) (Subscription, error) {
	consumer, err := n.js.CreateConsumer(ctx, n.stream, jetstream.ConsumerConfig{
		FilterSubject:     n.subject,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		AckPolicy:         jetstream.AckExplicitPolicy,
		InactiveThreshold: 10 * n.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer on %s: %w", n.stream, err)
	}
	name := consumer.CachedInfo().Name

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		cancel: cancel,
		done:   make(chan struct{}),
		onStop: func() { n.deleteConsumer(name) },
	}
	go func() {
		defer close(sub.done)
		n.runWorker(subCtx, consumer, handler)
	}()
	n.logger.Info("subscribed to change feed", "stream", n.stream, "subject", n.subject, "consumer", name)
	return sub, nil
}

// runWorker fetches messages one at a time until ctx is done.
func (n *NatsSubscriber) runWorker(ctx context.Context, consumer jetstream.Consumer, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(n.timeout))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, jetstream.ErrNoMessages) {
				continue
			}
			n.logger.Error("failed to fetch messages", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(n.interval):
			}
			continue
		}
		for msg := range batch.Messages() {
			n.handleMessage(ctx, msg, handler)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			n.logger.Debug("fetch batch ended with error", "error", err)
		}
	}
}

// ackableMsg is the part of jetstream.Msg the worker needs.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
}

// handleMessage delivers one message. A payload that cannot be decoded is still a valid change signal.
func (n *NatsSubscriber) handleMessage(ctx context.Context, msg ackableMsg, handler Handler) {
	event, err := events.DecodeProductChanged(msg.Data())
	if err != nil {
		n.logger.Warn("undecodable change payload, delivering generic signal", "error", err, "subject", msg.Subject())
	}
	if ctx.Err() == nil {
		handler(ctx, event)
	}
	if err := msg.Ack(); err != nil {
		n.logger.Error("failed to ack message", "error", err)
	}
}

func (n *NatsSubscriber) deleteConsumer(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	if err := n.js.DeleteConsumer(ctx, n.stream, name); err != nil && !errors.Is(err, jetstream.ErrConsumerNotFound) {
		n.logger.Warn("failed to delete consumer", "consumer", name, "error", err)
	}
}

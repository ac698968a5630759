package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/fleet-live/internal/interp"
	"github.com/example/fleet-live/internal/models"
	"github.com/example/fleet-live/internal/observability"
	"github.com/example/fleet-live/internal/reconcile"
	"github.com/example/fleet-live/internal/storage"
)

// Handler processes one raw feed message. Returning an error never
// stops the consumer; bad messages are logged and skipped.
type Handler func(ctx context.Context, value []byte) error

// Consumer wraps a kafka reader with the read/backoff loop shared by
// both feeds (booking change events and driver positions).
type Consumer struct {
	reader *kafka.Reader
	logger *slog.Logger
	handle Handler
}

func NewConsumer(brokers []string, topic, group string, logger *slog.Logger, handle Handler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: r, logger: logger, handle: handle}
}

// Run consumes until the context is cancelled. Read errors back off
// exponentially up to 30s and reset on the next successful read.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("kafka read error", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		if err := c.handle(ctx, m.Value); err != nil {
			c.logger.Warn("message dropped", "topic", c.reader.Config().Topic, "error", err)
		}
	}
}

// NewBookingEventHandler decodes change events and applies them to the
// view. Applied insert/update rows are written through the store so a
// restarted server seeds the same list the feed built. Malformed events
// are already counted and logged by the view; they are swallowed here
// so the feed never halts. store may be nil when the server runs
// without persistence.
func NewBookingEventHandler(view *BookingView, store storage.BookingStore) Handler {
	return func(ctx context.Context, value []byte) error {
		var ev models.ChangeEvent
		if err := json.Unmarshal(value, &ev); err != nil {
			observability.EventsMalformed.Inc()
			return err
		}
		if ev.ReceivedAt.IsZero() {
			ev.ReceivedAt = time.Now()
		}
		if err := view.Apply(ev); err != nil {
			if errors.Is(err, reconcile.ErrMalformedEvent) {
				return nil
			}
			return err
		}
		if store == nil || ev.Row == nil {
			return nil
		}
		switch ev.Kind {
		case models.EventInsert, models.EventUpdate:
			if err := store.SaveBooking(ctx, ev.Row); err != nil {
				return fmt.Errorf("persist booking %s: %w", ev.Row.ID, err)
			}
		}
		return nil
	}
}

// NewPositionHandler decodes raw position samples and observes them
// into the tracker, keeping the sample counters honest: an invalid
// sample is dropped and the previous animation keeps running.
func NewPositionHandler(tracker *interp.Tracker, logger *slog.Logger) Handler {
	return func(ctx context.Context, value []byte) error {
		var s models.PositionSample
		if err := json.Unmarshal(value, &s); err != nil {
			observability.SamplesInvalid.Inc()
			return err
		}
		accepted, err := tracker.Observe(s, time.Now())
		switch {
		case err != nil:
			observability.SamplesInvalid.Inc()
			logger.Warn("invalid sample", "entity_id", s.EntityID, "error", err)
		case !accepted:
			observability.SamplesStale.Inc()
		default:
			observability.SamplesObserved.Inc()
			observability.EntitiesTracked.Set(float64(tracker.Tracked()))
		}
		return nil
	}
}

// Package worker consumes the notes queue and turns each note into
// persisted actionable steps.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samuel/go-metrics/metrics"

	"github.com/carebridge/carebridge/internal/domain/note"
	"github.com/carebridge/carebridge/internal/domain/schedule"
	"github.com/carebridge/carebridge/internal/domain/steps"
	"github.com/carebridge/carebridge/internal/extract"
)

// Extractor produces a step payload from note content.
type Extractor interface {
	Extract(ctx context.Context, noteContent, patientID string) (*steps.Payload, error)
}

// StepCreator replaces a note's steps from an extracted payload.
type StepCreator interface {
	CreateActionableSteps(ctx context.Context, noteID string, payload steps.Payload) ([]string, error)
}

// Delivery is one queue message under manual acknowledgement.
type Delivery interface {
	Body() []byte
	Ack() error
	Nack(requeue bool) error
}

// Result is published to the actions queue after a note has been
// processed.
type Result struct {
	NoteID    string   `json:"note_id"`
	PatientID string   `json:"patient_id"`
	StepIDs   []string `json:"step_ids"`
}

// Consumer drains note messages, extracting and storing steps for
// each. Unprocessable messages are dropped; transient failures are
// requeued for redelivery.
type Consumer struct {
	extractor    Extractor
	creator      StepCreator
	publisher    note.Publisher
	resultsQueue string
	logger       *slog.Logger

	statProcessed *metrics.Counter
	statFailed    *metrics.Counter
	statSteps     *metrics.Counter
}

// NewConsumer creates a worker consumer. The publisher may be nil when
// no downstream consumer wants result messages.
func NewConsumer(extractor Extractor, creator StepCreator, publisher note.Publisher, resultsQueue string, statsRegistry metrics.Registry, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	if statsRegistry == nil {
		statsRegistry = metrics.NewRegistry()
	}

	statProcessed := metrics.NewCounter()
	statFailed := metrics.NewCounter()
	statSteps := metrics.NewCounter()
	statsRegistry.Add("notes/processed", statProcessed)
	statsRegistry.Add("notes/failed", statFailed)
	statsRegistry.Add("steps/created", statSteps)

	return &Consumer{
		extractor:     extractor,
		creator:       creator,
		publisher:     publisher,
		resultsQueue:  resultsQueue,
		logger:        logger,
		statProcessed: statProcessed,
		statFailed:    statFailed,
		statSteps:     statSteps,
	}
}

// Run drains deliveries until the channel closes or the context is
// cancelled. A closed channel usually means the broker connection
// dropped; the caller decides whether to redial.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	c.logger.Info("worker consuming")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("delivery channel closed")
				return nil
			}
			c.HandleDelivery(ctx, amqpDelivery{d})
		}
	}
}

// HandleDelivery processes one queue message and settles it.
func (c *Consumer) HandleDelivery(ctx context.Context, d Delivery) {
	var msg note.QueueMessage
	if err := json.Unmarshal(d.Body(), &msg); err != nil {
		c.statFailed.Inc(1)
		c.logger.Error("dropping malformed message", "error", err)
		c.settle(d, false)
		return
	}
	if msg.NoteContent == "" || msg.NoteID == "" {
		c.statFailed.Inc(1)
		c.logger.Error("dropping message without note content or id")
		c.settle(d, false)
		return
	}

	ids, err := c.process(ctx, msg)
	if err != nil {
		c.statFailed.Inc(1)
		if permanent(err) {
			c.logger.Error("dropping unprocessable note",
				"note_id", msg.NoteID, "error", err)
			c.settle(d, false)
		} else {
			c.logger.Error("processing failed, requeueing",
				"note_id", msg.NoteID, "error", err)
			c.settle(d, true)
		}
		return
	}

	if err := d.Ack(); err != nil {
		c.logger.Error("acking message", "note_id", msg.NoteID, "error", err)
		return
	}
	c.statProcessed.Inc(1)
	c.statSteps.Inc(uint64(len(ids)))
	c.logger.Info("note processed", "note_id", msg.NoteID, "steps", len(ids))
}

func (c *Consumer) process(ctx context.Context, msg note.QueueMessage) ([]string, error) {
	payload, err := c.extractor.Extract(ctx, msg.NoteContent, msg.PatientID)
	if err != nil {
		return nil, fmt.Errorf("extracting steps: %w", err)
	}
	ids, err := c.creator.CreateActionableSteps(ctx, msg.NoteID, *payload)
	if err != nil {
		return nil, fmt.Errorf("creating steps: %w", err)
	}

	if c.publisher != nil {
		body, err := json.Marshal(Result{
			NoteID:    msg.NoteID,
			PatientID: msg.PatientID,
			StepIDs:   ids,
		})
		if err == nil {
			err = c.publisher.Publish(ctx, c.resultsQueue, body)
		}
		if err != nil {
			// The steps are already stored; losing the result
			// announcement is not worth a redelivery.
			c.logger.Error("publishing result", "note_id", msg.NoteID, "error", err)
		}
	}
	return ids, nil
}

func (c *Consumer) settle(d Delivery, requeue bool) {
	if err := d.Nack(requeue); err != nil {
		c.logger.Error("nacking message", "requeue", requeue, "error", err)
	}
}

// permanent reports whether reprocessing the same message can ever
// succeed.
func permanent(err error) bool {
	return errors.Is(err, extract.ErrBadPayload) ||
		errors.Is(err, extract.ErrEmptyNote) ||
		errors.Is(err, schedule.ErrInvalidDefinition) ||
		errors.Is(err, schedule.ErrInvalidTime) ||
		errors.Is(err, schedule.ErrInvalidInput) ||
		errors.Is(err, steps.ErrInvalidInput)
}

type amqpDelivery struct {
	d amqp.Delivery
}

func (a amqpDelivery) Body() []byte            { return a.d.Body }
func (a amqpDelivery) Ack() error              { return a.d.Ack(false) }
func (a amqpDelivery) Nack(requeue bool) error { return a.d.Nack(false, requeue) }

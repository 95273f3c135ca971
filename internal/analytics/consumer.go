package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
	"github.com/fishermenfirst/fleetquota-backend/pkg/pubsub"
)

const consumerName = "fleet-alerts"

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

type processedStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Consumer writes shared fleet alert events to BigQuery while honoring
// Redis idempotency, so a redelivered message never doubles a row.
type Consumer struct {
	inserter tableInserter
	table    string
	store    processedStore
	ttl      time.Duration
	logg     *logger.Logger
}

// NewConsumer builds a fleet alert analytics consumer.
func NewConsumer(inserter tableInserter, table string, store processedStore, ttl time.Duration, logg *logger.Logger) (*Consumer, error) {
	if inserter == nil {
		return nil, errors.New("bigquery inserter required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("bigquery table name required")
	}
	if store == nil {
		return nil, errors.New("processed event store required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Consumer{
		inserter: inserter,
		table:    strings.TrimSpace(table),
		store:    store,
		ttl:      ttl,
		logg:     logg,
	}, nil
}

// Run consumes fleet alert messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context, subscription *gcppubsub.Subscriber) error {
	if subscription == nil {
		return errors.New("fleet alert subscription is required")
	}
	return subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if c.process(innerCtx, msg.Data, msg.Attributes).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	nack bool
}

func (c *Consumer) process(ctx context.Context, data []byte, attributes map[string]string) processResult {
	fields := map[string]any{"event_type": attributes["event_type"]}
	logCtx := c.logg.WithFields(ctx, fields)

	var event pubsub.FleetAlertEvent
	if err := json.Unmarshal(data, &event); err != nil {
		fields["error"] = err.Error()
		c.logg.Warn(logCtx, "invalid fleet alert payload")
		return processResult{}
	}
	if _, err := uuid.Parse(event.AlertID); err != nil {
		c.logg.Warn(logCtx, "invalid alert id")
		return processResult{}
	}
	fields["alert_id"] = event.AlertID
	fields["org_id"] = event.OrgID
	logCtx = c.logg.WithFields(ctx, fields)

	key := c.store.IdempotencyKey(consumerName, event.AlertID)
	fresh, err := c.store.SetNX(logCtx, key, "1", c.ttl)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !fresh {
		c.logg.Info(logCtx, "alert already ingested")
		return processResult{}
	}

	row := buildRow(event)
	if err := c.inserter.InsertRows(logCtx, c.table, []any{row}); err != nil {
		c.logg.Error(logCtx, "failed to insert fleet alert row", err)
		_ = c.store.Del(logCtx, key)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "fleet alert ingested")
	return processResult{}
}

type fleetAlertRow struct {
	AlertID        string    `bigquery:"alert_id"`
	OrgID          string    `bigquery:"org_id"`
	SpeciesCode    int       `bigquery:"species_code"`
	SpeciesName    string    `bigquery:"species_name"`
	Latitude       float64   `bigquery:"latitude"`
	Longitude      float64   `bigquery:"longitude"`
	Position       string    `bigquery:"position"`
	Amount         string    `bigquery:"amount"`
	Unit           string    `bigquery:"unit"`
	RecipientCount int       `bigquery:"recipient_count"`
	SharedAt       time.Time `bigquery:"shared_at"`
	IngestedAt     time.Time `bigquery:"ingested_at"`
}

func buildRow(event pubsub.FleetAlertEvent) *fleetAlertRow {
	return &fleetAlertRow{
		AlertID:        event.AlertID,
		OrgID:          event.OrgID,
		SpeciesCode:    event.SpeciesCode,
		SpeciesName:    event.SpeciesName,
		Latitude:       event.Latitude,
		Longitude:      event.Longitude,
		Position:       event.Position,
		Amount:         event.Amount,
		Unit:           event.Unit,
		RecipientCount: event.RecipientCount,
		SharedAt:       event.SharedAt,
		IngestedAt:     time.Now().UTC(),
	}
}

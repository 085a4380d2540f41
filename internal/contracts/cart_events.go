package contracts

import (
	"time"

	"github.com/google/uuid"

	"github.com/LilyNov/store/internal/cart"
)

const (
	CartClaimedEventName = "CartClaimed"
	CartsMergedEventName = "CartsMerged"

	CartEventVersion = 1

	CartClaimedSchemaPath = "contracts/events/cart/CartClaimed.v1.schema.json"
	CartsMergedSchemaPath = "contracts/events/cart/CartsMerged.v1.schema.json"

	CartServiceProducer = "cart-service"
)

type EventEnvelope struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CausationID   string    `json:"causationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      int64     `json:"sequence"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
	Payload       any       `json:"payload"`
}

type CartClaimedPayload struct {
	CartID        string     `json:"cartId"`
	UserID        string     `json:"userId"`
	SessionCartID string     `json:"sessionCartId"`
	Items         []CartLine `json:"items"`
	Timestamp     time.Time  `json:"timestamp"`
}

type CartsMergedPayload struct {
	CartID           string     `json:"cartId"`
	SupersededCartID string     `json:"supersededCartId"`
	UserID           string     `json:"userId"`
	Items            []CartLine `json:"items"`
	Timestamp        time.Time  `json:"timestamp"`
}

type CartLine struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type EnvelopeOptions struct {
	PartitionKey  string
	Sequence      int64
	Producer      string
	CorrelationID string
	CausationID   string
	EventID       string
	OccurredAt    time.Time
}

func BuildCartClaimedEvent(rec *cart.Record, opts EnvelopeOptions) EventEnvelope {
	occurredAt := occurredAtOrNow(opts)

	payload := CartClaimedPayload{
		CartID:        rec.ID,
		SessionCartID: rec.SessionCartID,
		Items:         cartLines(rec),
		Timestamp:     occurredAt,
	}
	if rec.UserID != nil {
		payload.UserID = *rec.UserID
	}

	return envelope(CartClaimedEventName, CartClaimedSchemaPath, payload, opts, occurredAt)
}

func BuildCartsMergedEvent(rec *cart.Record, supersededCartID string, opts EnvelopeOptions) EventEnvelope {
	occurredAt := occurredAtOrNow(opts)

	payload := CartsMergedPayload{
		CartID:           rec.ID,
		SupersededCartID: supersededCartID,
		Items:            cartLines(rec),
		Timestamp:        occurredAt,
	}
	if rec.UserID != nil {
		payload.UserID = *rec.UserID
	}

	return envelope(CartsMergedEventName, CartsMergedSchemaPath, payload, opts, occurredAt)
}

func cartLines(rec *cart.Record) []CartLine {
	items, _ := cart.ParseItems(rec.Items)
	lines := make([]CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, CartLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return lines
}

func occurredAtOrNow(opts EnvelopeOptions) time.Time {
	if opts.OccurredAt.IsZero() {
		return time.Now().UTC()
	}
	return opts.OccurredAt
}

func envelope(name, schemaPath string, payload any, opts EnvelopeOptions, occurredAt time.Time) EventEnvelope {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	producer := opts.Producer
	if producer == "" {
		producer = CartServiceProducer
	}

	return EventEnvelope{
		EventName:     name,
		EventVersion:  CartEventVersion,
		EventID:       eventID,
		CorrelationID: opts.CorrelationID,
		CausationID:   opts.CausationID,
		Producer:      producer,
		PartitionKey:  opts.PartitionKey,
		Sequence:      opts.Sequence,
		OccurredAt:    occurredAt,
		Schema:        schemaPath,
		Payload:       payload,
	}
}

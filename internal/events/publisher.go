package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/LilyNov/store/internal/cart"
	"github.com/LilyNov/store/internal/contracts"
)

// Publisher emits enveloped cart lifecycle events to the topic exchange.
// Events for one cart share a partition key (the cart id) and carry a
// database-backed sequence number.
type Publisher struct {
	ch      *amqp.Channel
	seqRepo SequenceRepository
}

func NewPublisher(conn *amqp.Connection, seqRepo SequenceRepository) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &Publisher{ch: ch, seqRepo: seqRepo}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishCartClaimed(ctx context.Context, rec *cart.Record) error {
	seq, err := p.seqRepo.NextSequence(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := contracts.BuildCartClaimedEvent(rec, contracts.EnvelopeOptions{
		PartitionKey: rec.ID,
		Sequence:     seq,
	})
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartClaimed envelope: %w", err)
	}
	return p.publishJSON(ctx, CartClaimedRoutingKey, body)
}

func (p *Publisher) PublishCartsMerged(ctx context.Context, survivor *cart.Record, supersededID string) error {
	seq, err := p.seqRepo.NextSequence(ctx, survivor.ID)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := contracts.BuildCartsMergedEvent(survivor, supersededID, contracts.EnvelopeOptions{
		PartitionKey: survivor.ID,
		Sequence:     seq,
	})
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartsMerged envelope: %w", err)
	}
	return p.publishJSON(ctx, CartsMergedRoutingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

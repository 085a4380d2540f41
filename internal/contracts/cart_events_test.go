package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilyNov/store/internal/cart"
)

func claimedRecord() *cart.Record {
	owner := "user-1"
	return &cart.Record{
		ID:            "c1",
		UserID:        &owner,
		SessionCartID: "sess-1",
		Items: cart.MarshalItems([]cart.Item{
			{ProductID: "p1", Name: "Polo Shirt", Slug: "polo-shirt", Image: "/img/polo.jpg", Quantity: 2, Price: 24.99},
		}),
	}
}

func TestBuildCartClaimedEvent(t *testing.T) {
	occurredAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	evt := BuildCartClaimedEvent(claimedRecord(), EnvelopeOptions{
		PartitionKey:  "c1",
		Sequence:      7,
		CorrelationID: "corr-1",
		EventID:       "evt-1",
		OccurredAt:    occurredAt,
	})

	assert.Equal(t, CartClaimedEventName, evt.EventName)
	assert.Equal(t, CartEventVersion, evt.EventVersion)
	assert.Equal(t, "evt-1", evt.EventID)
	assert.Equal(t, "corr-1", evt.CorrelationID)
	assert.Equal(t, CartServiceProducer, evt.Producer)
	assert.Equal(t, "c1", evt.PartitionKey)
	assert.Equal(t, int64(7), evt.Sequence)
	assert.Equal(t, occurredAt, evt.OccurredAt)
	assert.Equal(t, CartClaimedSchemaPath, evt.Schema)

	payload, ok := evt.Payload.(CartClaimedPayload)
	require.True(t, ok)
	assert.Equal(t, "c1", payload.CartID)
	assert.Equal(t, "user-1", payload.UserID)
	assert.Equal(t, "sess-1", payload.SessionCartID)
	assert.Equal(t, []CartLine{{ProductID: "p1", Quantity: 2, Price: 24.99}}, payload.Items)
	assert.Equal(t, occurredAt, payload.Timestamp)
}

func TestBuildCartClaimedEventDefaults(t *testing.T) {
	before := time.Now().UTC()
	evt := BuildCartClaimedEvent(claimedRecord(), EnvelopeOptions{PartitionKey: "c1", Sequence: 1})

	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, CartServiceProducer, evt.Producer)
	assert.False(t, evt.OccurredAt.Before(before))
}

func TestBuildCartsMergedEvent(t *testing.T) {
	evt := BuildCartsMergedEvent(claimedRecord(), "c-session", EnvelopeOptions{
		PartitionKey: "c1",
		Sequence:     3,
	})

	assert.Equal(t, CartsMergedEventName, evt.EventName)
	assert.Equal(t, CartsMergedSchemaPath, evt.Schema)

	payload, ok := evt.Payload.(CartsMergedPayload)
	require.True(t, ok)
	assert.Equal(t, "c1", payload.CartID)
	assert.Equal(t, "c-session", payload.SupersededCartID)
	assert.Equal(t, "user-1", payload.UserID)
	require.Len(t, payload.Items, 1)
}

func TestEnvelopeWireFormat(t *testing.T) {
	occurredAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	evt := BuildCartClaimedEvent(claimedRecord(), EnvelopeOptions{
		PartitionKey: "c1",
		Sequence:     1,
		EventID:      "evt-1",
		OccurredAt:   occurredAt,
	})

	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, key := range []string{"eventName", "eventVersion", "eventId", "producer", "partitionKey", "sequence", "occurredAt", "schema", "payload"} {
		assert.Contains(t, decoded, key)
	}
	// Empty correlation/causation ids stay off the wire.
	assert.NotContains(t, decoded, "correlationId")
	assert.NotContains(t, decoded, "causationId")
}

package kafka

import (
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		SessionID string `json:"session_id"`
	}
	got, err := UnwrapPayload[payload](json.RawMessage(`{"session_id":"cs_1"}`))
	require.NoError(t, err)
	assert.Equal(t, "cs_1", got.SessionID)

	_, err = UnwrapPayload[payload](json.RawMessage(`{bad`))
	assert.ErrorContains(t, err, "decode payload")
}

func TestEventHeaders(t *testing.T) {
	m := kafka.Message{Headers: EventHeaders("OrderConfirmed", 1)}

	assert.Equal(t, "OrderConfirmed", Header(m, HeaderEventType))
	assert.Equal(t, "1", Header(m, HeaderEventVersion))
	assert.Equal(t, "", Header(m, "x-missing"))
}

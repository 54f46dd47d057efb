package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	OrderID string `json:"order_id"`
}

func TestUnwrapPayload(t *testing.T) {
	got, err := UnwrapPayload[samplePayload](json.RawMessage(`{"order_id":"o1"}`))
	require.NoError(t, err)
	assert.Equal(t, "o1", got.OrderID)

	_, err = UnwrapPayload[samplePayload](json.RawMessage(`{`))
	assert.ErrorContains(t, err, "decode payload")
}

func TestEventHeaders(t *testing.T) {
	h := EventHeaders("PackRequested", 1)
	require.Len(t, h, 2)
	assert.Equal(t, "x-event-type", h[0].Key)
	assert.Equal(t, "PackRequested", string(h[0].Value))
	assert.Equal(t, "1", string(h[1].Value))
}

func TestMustMarshalPanicsOnUnsupported(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(make(chan int)) })
}

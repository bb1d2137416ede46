package broker

import (
	"math/rand"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/tick-follower/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlpacaOrderToEntity(t *testing.T) {
	order, err := alpacaOrder{
		ID:            "904837e3-3b76-47ec-b432-046db621571b",
		ClientOrderID: "my-order-1",
		Symbol:        "SNAP",
		Side:          "buy",
		Qty:           "100",
		FilledQty:     "40",
		LimitPrice:    "10.01",
		Status:        "partially_filled",
	}.toEntity()
	require.NoError(t, err)

	assert.Equal(t, "904837e3-3b76-47ec-b432-046db621571b", order.ID)
	assert.Equal(t, entity.OrderSideBuy, order.Side)
	assert.Equal(t, int64(100), order.Qty)
	assert.Equal(t, int64(40), order.FilledQty)
	assert.True(t, order.LimitPrice.Equal(decimal.RequireFromString("10.01")))
}

func TestAlpacaOrderToEntity_OptionalFieldsEmpty(t *testing.T) {
	// Market orders and fresh acks come back without filled_qty or
	// limit_price.
	order, err := alpacaOrder{
		ID:     "904837e3-3b76-47ec-b432-046db621571b",
		Symbol: "SNAP",
		Side:   "sell",
		Qty:    "100",
		Status: "new",
	}.toEntity()
	require.NoError(t, err)

	assert.Equal(t, int64(0), order.FilledQty)
	assert.True(t, order.LimitPrice.IsZero())
}

func TestAlpacaOrderToEntity_BadQty(t *testing.T) {
	_, err := alpacaOrder{ID: "x", Qty: "one hundred"}.toEntity()
	require.Error(t, err)
}

func TestAlpacaStreamEnvelopeDecoding(t *testing.T) {
	raw := []byte(`{
		"stream": "Q.SNAP",
		"data": {
			"bidprice": 10.00,
			"askprice": 10.01,
			"bidsize": 300,
			"asksize": 200,
			"timestamp": 1767711600000000000
		}
	}`)

	var envelope alpacaStreamMessage
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, "Q.SNAP", envelope.Stream)

	var payload alpacaQuotePayload
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, int64(300), payload.BidSize)
	assert.Equal(t, time.Date(2026, time.January, 6, 15, 0, 0, 0, time.UTC), time.Unix(0, payload.Timestamp).UTC())
}

func TestHandleStreamMessage_IgnoresControlAcks(t *testing.T) {
	b := &AlpacaBroker{}

	// Authorization and listening acks carry stream names outside the data
	// prefixes and must be swallowed without touching jetstream.
	err := b.handleStreamMessage([]byte(`{"stream":"authorization","data":{"status":"authorized"}}`))
	require.NoError(t, err)

	err = b.handleStreamMessage([]byte(`{"stream":"listening","data":{"streams":["Q.SNAP"]}}`))
	require.NoError(t, err)
}

func TestHandleStreamMessage_BadJSON(t *testing.T) {
	b := &AlpacaBroker{}

	err := b.handleStreamMessage([]byte(`{"stream":`))
	require.Error(t, err)
}

func TestStreamReconnectDelayIsBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for attempt := 0; attempt < 20; attempt++ {
		delay := streamReconnectDelay(attempt, rng)
		assert.GreaterOrEqual(t, delay, alpacaWSReconnectMinDelay)
		assert.LessOrEqual(t, delay, alpacaWSReconnectMaxDelay)
	}
}

package broker

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/krobus00/tick-follower/internal/constant"
	"github.com/krobus00/tick-follower/internal/entity"
	"github.com/krobus00/tick-follower/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	alpacaWSReconnectMinDelay = 1 * time.Second
	alpacaWSReconnectMaxDelay = 15 * time.Second
	alpacaWSReconnectFactor   = 2.0
	alpacaWSPingInterval      = 2 * time.Minute
)

type alpacaStreamMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type alpacaQuotePayload struct {
	BidPrice  float64 `json:"bidprice"`
	AskPrice  float64 `json:"askprice"`
	BidSize   int64   `json:"bidsize"`
	AskSize   int64   `json:"asksize"`
	Timestamp int64   `json:"timestamp"` // epoch nanoseconds
}

type alpacaTradePayload struct {
	Price     float64 `json:"price"`
	Size      int64   `json:"size"`
	Timestamp int64   `json:"timestamp"` // epoch nanoseconds
}

type alpacaOrderUpdatePayload struct {
	Event string      `json:"event"`
	Order alpacaOrder `json:"order"`
}

func (b *AlpacaBroker) JetstreamEventInit(ctx context.Context) error {
	marketDataStream := &nats.StreamConfig{
		Name:      constant.MarketDataStreamName,
		Subjects:  []string{constant.MarketDataStreamSubjectAll},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    5 * time.Minute,
		Replicas:  1,
	}

	orderUpdateStream := &nats.StreamConfig{
		Name:      constant.OrderUpdateStreamName,
		Subjects:  []string{constant.OrderUpdateStreamSubjectAll},
		Retention: nats.WorkQueuePolicy,
		Storage:   nats.FileStorage,
		MaxAge:    24 * time.Hour,
	}

	for _, streamConfig := range []*nats.StreamConfig{marketDataStream, orderUpdateStream} {
		stream, err := b.js.StreamInfo(streamConfig.Name, nats.Context(ctx))
		if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
			logrus.Error(err)
			return err
		}

		if stream == nil {
			logrus.Infof("creating stream: %s", streamConfig.Name)
			if _, err := b.js.AddStream(streamConfig, nats.Context(ctx)); err != nil {
				return err
			}
			continue
		}

		logrus.Infof("updating stream: %s", streamConfig.Name)
		if _, err := b.js.UpdateStream(streamConfig, nats.Context(ctx)); err != nil {
			logrus.Error(err)
			return err
		}
	}

	return nil
}

// SubscribeMarketData owns the broker websocket: it authenticates, listens to
// the per-symbol quote and trade channels plus the shared trade_updates
// channel, and republishes every message as a normalized JetStream event.
// The connection is re-dialed with backoff until ctx is canceled.
func (b *AlpacaBroker) SubscribeMarketData(ctx context.Context, symbols []string) error {
	streams := make([]string, 0, len(symbols)*2+1)
	for _, symbol := range symbols {
		streams = append(streams, "Q."+symbol, "T."+symbol)
	}
	streams = append(streams, "trade_updates")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil
		}

		err := b.runStream(ctx, streams)
		if err == nil {
			return nil
		}

		delay := streamReconnectDelay(attempt, rng)
		logrus.WithFields(logrus.Fields{
			"attempt":  attempt + 1,
			"retry_in": delay.String(),
		}).Warnf("broker stream disconnected: %v", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		}
	}
}

func (b *AlpacaBroker) runStream(ctx context.Context, streams []string) error {
	logrus.Infof("connecting to %s", b.streamURL)

	conn, _, err := websocket.DefaultDialer.Dial(b.streamURL, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()

	conn.SetPongHandler(func(string) error {
		return nil
	})

	authMessage := map[string]any{
		"action": "authenticate",
		"data": map[string]string{
			"key_id":     b.apiKey,
			"secret_key": b.apiSecret,
		},
	}
	if err := conn.WriteJSON(authMessage); err != nil {
		return err
	}

	listenMessage := map[string]any{
		"action": "listen",
		"data": map[string]any{
			"streams": streams,
		},
	}
	if err := conn.WriteJSON(listenMessage); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(alpacaWSPingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					logrus.Error(err)
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			_, message, err := conn.ReadMessage()
			if err != nil {
				return err
			}

			if err := b.handleStreamMessage(message); err != nil {
				logrus.Error(err)
			}
		}
	}
}

func (b *AlpacaBroker) handleStreamMessage(message []byte) error {
	var envelope alpacaStreamMessage
	if err := json.Unmarshal(message, &envelope); err != nil {
		return err
	}

	switch {
	case strings.HasPrefix(envelope.Stream, "Q."):
		var payload alpacaQuotePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}

		symbol := strings.TrimPrefix(envelope.Stream, "Q.")
		event := entity.QuoteEvent{
			Data: entity.QuoteTick{
				Symbol:    symbol,
				BidPrice:  decimal.NewFromFloat(payload.BidPrice),
				AskPrice:  decimal.NewFromFloat(payload.AskPrice),
				BidSize:   payload.BidSize,
				AskSize:   payload.AskSize,
				Timestamp: time.Unix(0, payload.Timestamp).UTC(),
			},
		}
		return util.PublishEvent(b.js, constant.GetQuoteStreamSubject(symbol), event)

	case strings.HasPrefix(envelope.Stream, "T."):
		var payload alpacaTradePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}

		symbol := strings.TrimPrefix(envelope.Stream, "T.")
		event := entity.TradeEvent{
			Data: entity.TradeTick{
				Symbol:    symbol,
				Price:     decimal.NewFromFloat(payload.Price),
				Size:      payload.Size,
				Timestamp: time.Unix(0, payload.Timestamp).UTC(),
			},
		}
		return util.PublishEvent(b.js, constant.GetTradeStreamSubject(symbol), event)

	case envelope.Stream == "trade_updates":
		var payload alpacaOrderUpdatePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}

		order, err := payload.Order.toEntity()
		if err != nil {
			return err
		}

		event := entity.OrderUpdateEvent{
			Data: entity.OrderUpdate{
				Event: payload.Event,
				Order: order,
			},
		}
		return util.PublishEvent(b.js, constant.OrderUpdateStreamSubjectData, event)
	}

	// Authorization and listening acks land here.
	logrus.WithField("stream", envelope.Stream).Debug(string(message))
	return nil
}

func streamReconnectDelay(attempt int, rng *rand.Rand) time.Duration {
	backoff := float64(alpacaWSReconnectMinDelay) * math.Pow(alpacaWSReconnectFactor, float64(attempt))
	if backoff > float64(alpacaWSReconnectMaxDelay) {
		backoff = float64(alpacaWSReconnectMaxDelay)
	}

	jitter := time.Duration(rng.Int63n(int64(time.Second)))
	delay := time.Duration(backoff) + jitter
	if delay > alpacaWSReconnectMaxDelay {
		return alpacaWSReconnectMaxDelay
	}

	return delay
}

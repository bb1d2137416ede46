package broker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/tick-follower/internal/config"
	"github.com/krobus00/tick-follower/internal/entity"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultAlpacaBaseURL   = "https://paper-api.alpaca.markets"
	defaultAlpacaStreamURL = "wss://data.alpaca.markets/stream"
)

type AlpacaBroker struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	streamURL  string
	httpClient *http.Client

	js nats.JetStreamContext
}

func InitAlpacaBroker(brokerConfig config.BrokerConfig, js nats.JetStreamContext) *AlpacaBroker {
	baseURL := strings.TrimSpace(brokerConfig.BaseURL)
	if baseURL == "" {
		baseURL = defaultAlpacaBaseURL
	}

	streamURL := strings.TrimSpace(brokerConfig.StreamURL)
	if streamURL == "" {
		streamURL = defaultAlpacaStreamURL
	}

	newBroker := &AlpacaBroker{
		apiKey:     strings.TrimSpace(brokerConfig.APIKey),
		apiSecret:  strings.TrimSpace(brokerConfig.APISecret),
		baseURL:    strings.TrimRight(baseURL, "/"),
		streamURL:  streamURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		js:         js,
	}

	RegisterBroker(entity.BrokerAlpaca, newBroker)

	return newBroker
}

// alpacaOrder mirrors the broker's order payload; numeric quantities arrive
// as strings.
type alpacaOrder struct {
	ID            string `json:"id"`
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Qty           string `json:"qty"`
	FilledQty     string `json:"filled_qty"`
	LimitPrice    string `json:"limit_price"`
	Status        string `json:"status"`
}

type alpacaPosition struct {
	Symbol string `json:"symbol"`
	Qty    string `json:"qty"`
}

func (b *AlpacaBroker) ListPositions(ctx context.Context) ([]entity.BrokerPosition, error) {
	body, err := b.doRequest(ctx, http.MethodGet, "/v2/positions", nil)
	if err != nil {
		return nil, err
	}

	var payload []alpacaPosition
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}

	positions := make([]entity.BrokerPosition, 0, len(payload))
	for _, item := range payload {
		qty, err := strconv.ParseInt(item.Qty, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse position qty for %s: %w", item.Symbol, err)
		}
		positions = append(positions, entity.BrokerPosition{
			Symbol: item.Symbol,
			Qty:    qty,
		})
	}

	return positions, nil
}

func (b *AlpacaBroker) ListOpenOrders(ctx context.Context) ([]entity.Order, error) {
	body, err := b.doRequest(ctx, http.MethodGet, "/v2/orders?status=open&limit=500", nil)
	if err != nil {
		return nil, err
	}

	var payload []alpacaOrder
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode open orders: %w", err)
	}

	orders := make([]entity.Order, 0, len(payload))
	for _, item := range payload {
		order, err := item.toEntity()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func (b *AlpacaBroker) SubmitOrder(ctx context.Context, req entity.OrderRequest) (*entity.Order, error) {
	payload := map[string]any{
		"symbol":          req.Symbol,
		"qty":             strconv.FormatInt(req.Qty, 10),
		"side":            string(req.Side),
		"type":            "limit",
		"time_in_force":   string(req.TimeInForce),
		"limit_price":     req.LimitPrice.String(),
		"client_order_id": req.ClientOrderID,
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	body, err := b.doRequest(ctx, http.MethodPost, "/v2/orders", requestBody)
	if err != nil {
		return nil, err
	}

	var responseOrder alpacaOrder
	if err := json.Unmarshal(body, &responseOrder); err != nil {
		return nil, fmt.Errorf("decode submitted order: %w", err)
	}

	order, err := responseOrder.toEntity()
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (b *AlpacaBroker) CancelOrder(ctx context.Context, orderID string) error {
	_, err := b.doRequest(ctx, http.MethodDelete, "/v2/orders/"+orderID, nil)
	return err
}

func (b *AlpacaBroker) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("APCA-API-KEY-ID", b.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", b.apiSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		logrus.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Error(string(responseBody))
		return nil, fmt.Errorf("broker request %s %s failed with status %d", method, path, resp.StatusCode)
	}

	return responseBody, nil
}

func (o alpacaOrder) toEntity() (entity.Order, error) {
	qty, err := strconv.ParseInt(o.Qty, 10, 64)
	if err != nil {
		return entity.Order{}, fmt.Errorf("parse order qty for %s: %w", o.ID, err)
	}

	filledQty := int64(0)
	if o.FilledQty != "" {
		filledQty, err = strconv.ParseInt(o.FilledQty, 10, 64)
		if err != nil {
			return entity.Order{}, fmt.Errorf("parse order filled qty for %s: %w", o.ID, err)
		}
	}

	limitPrice := decimal.Zero
	if o.LimitPrice != "" {
		limitPrice, err = decimal.NewFromString(o.LimitPrice)
		if err != nil {
			return entity.Order{}, fmt.Errorf("parse order limit price for %s: %w", o.ID, err)
		}
	}

	return entity.Order{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          entity.OrderSide(o.Side),
		Qty:           qty,
		FilledQty:     filledQty,
		LimitPrice:    limitPrice,
		Status:        o.Status,
	}, nil
}

package tickfollower

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/krobus00/tick-follower/internal/config"
	"github.com/krobus00/tick-follower/internal/constant"
	"github.com/krobus00/tick-follower/internal/entity"
	"github.com/krobus00/tick-follower/internal/repository"
	"github.com/krobus00/tick-follower/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const instrumentEventBuffer = 1024

var ErrUnknownSymbol = errors.New("symbol is not traded by this strategy")

// Service runs the penny-spread level-following strategy: for every eligible
// one-tick level change it follows a confirming trade print with a single
// bounded limit order, canceled right after submission to approximate an IOC
// order.
type Service struct {
	config      config.TickFollowerStrategyConfig
	brokerName  string
	broker      entity.Broker
	js          nats.JetStreamContext
	journalRepo *repository.OrderJournalRepository
	stateStore  PositionStateStore
	session     *Session
	instruments map[string]*Instrument

	// now is the wall clock used by the session gate.
	now func() time.Time
}

// Instrument owns the mutable quote and ledger state of one symbol. All
// events for the symbol are drained by a single goroutine, so events for one
// instrument are processed in arrival order and no instrument can stall
// another.
type Instrument struct {
	symbol string
	quote  *Quote
	ledger *Position
	events chan instrumentEvent
}

type instrumentEvent struct {
	quote       *entity.QuoteTick
	trade       *entity.TradeTick
	orderUpdate *entity.OrderUpdate
}

func NewService(
	cfg config.TickFollowerStrategyConfig,
	brokerName string,
	broker entity.Broker,
	journalRepo *repository.OrderJournalRepository,
	stateStore PositionStateStore,
	js nats.JetStreamContext,
) (*Service, error) {
	cfg.ApplyDefaults()

	if len(cfg.Symbols) == 0 {
		return nil, errors.New("at least one symbol is required")
	}

	session, err := NewSession(cfg.Session)
	if err != nil {
		return nil, err
	}

	instruments := make(map[string]*Instrument, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		instruments[symbol] = &Instrument{
			symbol: symbol,
			quote:  NewQuote(symbol),
			ledger: NewPosition(symbol),
			events: make(chan instrumentEvent, instrumentEventBuffer),
		}
	}

	return &Service{
		config:      cfg,
		brokerName:  brokerName,
		broker:      broker,
		js:          js,
		journalRepo: journalRepo,
		stateStore:  stateStore,
		session:     session,
		instruments: instruments,
		now:         time.Now,
	}, nil
}

// Symbols lists the instruments the strategy trades.
func (s *Service) Symbols() []string {
	symbols := make([]string, 0, len(s.instruments))
	for symbol := range s.instruments {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// SyncPositions initializes every instrument's ledger from the broker's
// position and open-order snapshot. Called once at startup, never again
// during the run.
func (s *Service) SyncPositions(ctx context.Context) error {
	brokerPositions, err := s.broker.ListPositions(ctx)
	if err != nil {
		return err
	}

	openOrders, err := s.broker.ListOpenOrders(ctx)
	if err != nil {
		return err
	}

	positionsBySymbol := make(map[string]entity.BrokerPosition, len(brokerPositions))
	for _, position := range brokerPositions {
		positionsBySymbol[position.Symbol] = position
	}

	ordersBySymbol := make(map[string][]entity.Order)
	for _, order := range openOrders {
		ordersBySymbol[order.Symbol] = append(ordersBySymbol[order.Symbol], order)
	}

	for symbol, inst := range s.instruments {
		var brokerPosition *entity.BrokerPosition
		if position, ok := positionsBySymbol[symbol]; ok {
			brokerPosition = &position
		}

		inst.ledger.Sync(brokerPosition, ordersBySymbol[symbol])
		s.saveSnapshot(ctx, inst)

		logrus.WithFields(logrus.Fields{
			"symbol":         symbol,
			"total_shares":   inst.ledger.TotalShares,
			"pending_buy":    inst.ledger.PendingBuyShares,
			"pending_sell":   inst.ledger.PendingSellShares,
			"pending_orders": inst.ledger.PendingOrderCount(),
		}).Info("position synced")
	}

	return nil
}

// Start launches one worker per instrument. Events enqueued before Start are
// drained once the workers run.
func (s *Service) Start(ctx context.Context) {
	for _, inst := range s.instruments {
		go s.runInstrument(ctx, inst)
	}
}

func (s *Service) runInstrument(ctx context.Context, inst *Instrument) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-inst.events:
			switch {
			case event.quote != nil:
				inst.quote.Update(*event.quote)
			case event.trade != nil:
				s.handleTrade(ctx, inst, *event.trade)
			case event.orderUpdate != nil:
				s.handleOrderUpdate(ctx, inst, *event.orderUpdate)
			}
		}
	}
}

// handleTrade applies the decision gates to one trade print and, when every
// gate passes, submits the offsetting order.
func (s *Service) handleTrade(ctx context.Context, inst *Instrument, trade entity.TradeTick) {
	if !s.session.Contains(s.now()) {
		return
	}

	quote := inst.quote
	if quote.Traded {
		logrus.WithField("symbol", inst.symbol).Debug("level already traded")
		return
	}

	// A print this close to the level change may still belong to the
	// previous level and would produce a false signal.
	if !trade.Timestamp.After(quote.Time.Add(s.config.QuoteGuard)) {
		return
	}

	// Small prints carry no directional information.
	if trade.Size < s.config.MinTradeSize {
		return
	}

	ledger := inst.ledger
	unit := s.config.Unit

	switch {
	case trade.Price.Equal(quote.Ask) &&
		float64(quote.BidSize) > float64(quote.AskSize)*s.config.ImbalanceRatio &&
		ledger.TotalShares+ledger.PendingBuyShares < s.config.MaxShares-unit:
		s.submitLevelOrder(ctx, inst, entity.OrderSideBuy, quote.Ask)

	case trade.Price.Equal(quote.Bid) &&
		float64(quote.AskSize) > float64(quote.BidSize)*s.config.ImbalanceRatio &&
		ledger.TotalShares-ledger.PendingSellShares >= unit:
		s.submitLevelOrder(ctx, inst, entity.OrderSideSell, quote.Bid)
	}
}

// submitLevelOrder fires the one order this level is allowed: a limit order
// at the followed price, canceled immediately after submission because the
// broker API has no native IOC order type. The level is consumed up front;
// a failed submission is logged and never retried on this level.
func (s *Service) submitLevelOrder(ctx context.Context, inst *Instrument, side entity.OrderSide, limitPrice decimal.Decimal) {
	inst.quote.Traded = true

	request := entity.OrderRequest{
		ClientOrderID: uuid.NewString(),
		Symbol:        inst.symbol,
		Side:          side,
		Qty:           s.config.Unit,
		LimitPrice:    limitPrice,
		TimeInForce:   entity.TimeInForceDay,
	}

	order, err := s.broker.SubmitOrder(ctx, request)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"symbol": inst.symbol,
			"side":   side,
			"price":  limitPrice,
		}).Errorf("order submit failed: %v", err)
		return
	}

	// Register before the cancel round trip so that a fill or cancel
	// notification arriving during it always finds the order in the ledger.
	inst.ledger.RegisterPendingOrder(order.ID)
	inst.ledger.AddPending(side, s.config.Unit)

	logrus.WithFields(logrus.Fields{
		"symbol":       inst.symbol,
		"side":         side,
		"price":        limitPrice,
		"total_shares": inst.ledger.TotalShares,
		"pending_buy":  inst.ledger.PendingBuyShares,
		"pending_sell": inst.ledger.PendingSellShares,
	}).Info("level order submitted")

	if err := s.broker.CancelOrder(ctx, order.ID); err != nil {
		logrus.WithFields(logrus.Fields{
			"symbol":   inst.symbol,
			"order_id": order.ID,
		}).Warnf("order cancel failed: %v", err)
	}

	s.journalOrder(ctx, inst, order, request)
	s.saveSnapshot(ctx, inst)
}

// handleOrderUpdate reconciles one order lifecycle notification against the
// ledger. Terminal events release the pending shares using the configured
// unit size; partial fills move the cumulative fill amount forward.
func (s *Service) handleOrderUpdate(ctx context.Context, inst *Instrument, update entity.OrderUpdate) {
	order := update.Order
	logger := logrus.WithFields(logrus.Fields{
		"symbol":   inst.symbol,
		"order_id": order.ID,
		"event":    update.Event,
	})

	ledger := inst.ledger

	switch update.Event {
	case entity.OrderEventFill:
		oldAmount, ok := ledger.FilledAmount(order.ID)
		if !ok {
			logger.Errorf("fill for untracked order: %v", ErrUnknownOrder)
			return
		}

		delta := order.FilledQty - oldAmount
		if order.Side == entity.OrderSideBuy {
			ledger.AddTotalShares(delta)
		} else {
			ledger.AddTotalShares(-delta)
		}

		if err := ledger.RemovePendingOrder(order.ID, order.Side, s.config.Unit); err != nil {
			logger.Error(err)
			return
		}
		logger.WithField("filled_qty", order.FilledQty).Info("order filled")

	case entity.OrderEventPartialFill:
		if err := ledger.ApplyFill(order.ID, order.FilledQty, order.Side); err != nil {
			logger.Error(err)
			return
		}
		logger.WithField("filled_qty", order.FilledQty).Info("order partially filled")

	case entity.OrderEventCanceled, entity.OrderEventRejected:
		if err := ledger.RemovePendingOrder(order.ID, order.Side, s.config.Unit); err != nil {
			logger.Error(err)
			return
		}
		logger.Info("order removed")

	default:
		logger.Warn("unhandled order event")
		return
	}

	s.updateJournal(ctx, update)
	s.saveSnapshot(ctx, inst)
}

func (s *Service) journalOrder(ctx context.Context, inst *Instrument, order *entity.Order, request entity.OrderRequest) {
	if s.journalRepo == nil {
		return
	}

	now := time.Now().UTC()
	journal := &entity.OrderJournal{
		RequestID:     uuid.NewString(),
		Broker:        s.brokerName,
		Symbol:        inst.symbol,
		OrderID:       order.ID,
		ClientOrderID: sql.NullString{String: request.ClientOrderID, Valid: request.ClientOrderID != ""},
		Side:          request.Side,
		Qty:           request.Qty,
		LimitPrice:    request.LimitPrice,
		FilledQty:     0,
		Status:        "accepted",
		LevelCount:    inst.quote.LevelCount,
		SubmittedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Journal failures must never block the trading path.
	if err := s.journalRepo.Create(ctx, journal); err != nil {
		logrus.WithField("order_id", order.ID).Errorf("journal order failed: %v", err)
	}
}

func (s *Service) updateJournal(ctx context.Context, update entity.OrderUpdate) {
	if s.journalRepo == nil {
		return
	}

	if err := s.journalRepo.UpdateFromOrderUpdate(ctx, update); err != nil {
		logrus.WithField("order_id", update.Order.ID).Errorf("journal update failed: %v", err)
	}
}

func (s *Service) saveSnapshot(ctx context.Context, inst *Instrument) {
	if s.stateStore == nil {
		return
	}

	snapshot := PositionSnapshot{
		Symbol:            inst.symbol,
		TotalShares:       inst.ledger.TotalShares,
		PendingBuyShares:  inst.ledger.PendingBuyShares,
		PendingSellShares: inst.ledger.PendingSellShares,
		PendingOrders:     inst.ledger.PendingOrderCount(),
		LevelCount:        inst.quote.LevelCount,
		UpdatedAt:         time.Now().UTC(),
	}

	if err := s.stateStore.Save(ctx, snapshot); err != nil {
		logrus.WithField("symbol", inst.symbol).Errorf("save position snapshot failed: %v", err)
	}
}

func (s *Service) JetstreamEventInit(ctx context.Context) error {
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
		if err := ensureStream(ctx, s.js, streamConfig); err != nil {
			logrus.Error(err)
			return err
		}
	}

	return nil
}

func (s *Service) JetstreamEventSubscribe(ctx context.Context) error {
	err := s.JetstreamEventInit(ctx)
	if err != nil {
		logrus.Error(err)
		return err
	}

	_, err = s.js.Subscribe(
		constant.MarketDataStreamSubjectAll,
		func(msg *nats.Msg) {
			err := util.ProcessWithTimeout(config.Env.NatsJetstream.TimeoutHandler["market_data"], msg, s.handleMarketDataEvent)
			if err != nil {
				logrus.Errorf("error processing message: %v", err)
				return
			}

			err = msg.Ack()
			if err != nil {
				logrus.Errorf("failed to acknowledge message: %v", err)
				return
			}
		},
		nats.ManualAck(),
		nats.DeliverNew(), // quotes and trades are only useful live
	)
	if err != nil {
		return err
	}

	_, err = s.js.QueueSubscribe(
		constant.OrderUpdateStreamSubjectData,
		constant.OrderUpdateQueueName,
		func(msg *nats.Msg) {
			err := util.ProcessWithTimeout(config.Env.NatsJetstream.TimeoutHandler["order_update"], msg, s.handleOrderUpdateEvent)
			if err != nil {
				logrus.Errorf("error processing message: %v", err)
				return
			}

			err = msg.Ack()
			if err != nil {
				logrus.Errorf("failed to acknowledge message: %v", err)
				return
			}
		},
		nats.ManualAck(),
		nats.Durable(constant.OrderUpdateQueueGroup),
	)
	if err != nil {
		return err
	}

	return nil
}

func (s *Service) handleMarketDataEvent(ctx context.Context, msg *nats.Msg) error {
	var err error

	switch {
	case strings.HasPrefix(msg.Subject, "marketdata.quote."):
		var event *entity.QuoteEvent
		if err = json.Unmarshal(msg.Data, &event); err != nil {
			logrus.Error(err)
			return err
		}
		err = s.enqueue(ctx, event.Data.Symbol, instrumentEvent{quote: &event.Data})

	case strings.HasPrefix(msg.Subject, "marketdata.trade."):
		var event *entity.TradeEvent
		if err = json.Unmarshal(msg.Data, &event); err != nil {
			logrus.Error(err)
			return err
		}
		err = s.enqueue(ctx, event.Data.Symbol, instrumentEvent{trade: &event.Data})

	default:
		logrus.WithField("subject", msg.Subject).Warn("unexpected market data subject")
		return nil
	}

	if errors.Is(err, ErrUnknownSymbol) {
		logrus.WithField("subject", msg.Subject).Debug("market data for untracked symbol")
		return nil
	}

	return err
}

func (s *Service) handleOrderUpdateEvent(ctx context.Context, msg *nats.Msg) error {
	var event *entity.OrderUpdateEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logrus.Error(err)
		return err
	}

	err := s.enqueue(ctx, event.Data.Order.Symbol, instrumentEvent{orderUpdate: &event.Data})
	if errors.Is(err, ErrUnknownSymbol) {
		// One stray event must not halt processing of the rest.
		logrus.WithField("symbol", event.Data.Order.Symbol).Warn("position not found")
		return nil
	}

	return err
}

func (s *Service) enqueue(ctx context.Context, symbol string, event instrumentEvent) error {
	inst, ok := s.instruments[symbol]
	if !ok {
		return ErrUnknownSymbol
	}

	select {
	case inst.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func ensureStream(ctx context.Context, js nats.JetStreamContext, streamConfig *nats.StreamConfig) error {
	stream, err := js.StreamInfo(streamConfig.Name, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}

	if stream == nil {
		logrus.Infof("creating stream: %s", streamConfig.Name)
		_, err = js.AddStream(streamConfig, nats.Context(ctx))
		return err
	}

	logrus.Infof("updating stream: %s", streamConfig.Name)
	_, err = js.UpdateStream(streamConfig, nats.Context(ctx))
	return err
}

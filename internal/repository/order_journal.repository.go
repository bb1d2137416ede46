package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/tick-follower/internal/entity"
)

type OrderJournalRepository struct {
	db *sqlx.DB
}

func NewOrderJournalRepository(db *sqlx.DB) *OrderJournalRepository {
	return &OrderJournalRepository{db: db}
}

func (r *OrderJournalRepository) Create(ctx context.Context, journal *entity.OrderJournal) error {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(journal.TableName()).
		Columns(
			"request_id",
			"broker",
			"symbol",
			"order_id",
			"client_order_id",
			"side",
			"qty",
			"limit_price",
			"filled_qty",
			"status",
			"level_count",
			"error_message",
			"submitted_at",
			"created_at",
			"updated_at",
		).
		Values(
			journal.RequestID,
			journal.Broker,
			journal.Symbol,
			journal.OrderID,
			journal.ClientOrderID,
			journal.Side,
			journal.Qty,
			journal.LimitPrice,
			journal.FilledQty,
			journal.Status,
			journal.LevelCount,
			journal.ErrorMessage,
			journal.SubmittedAt,
			journal.CreatedAt,
			journal.UpdatedAt,
		).
		Suffix("RETURNING id")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	var id string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err != nil {
		return err
	}

	journal.ID = id

	return err
}

func (r *OrderJournalRepository) GetByOrderID(ctx context.Context, orderID string) (*entity.OrderJournal, error) {
	var journal entity.OrderJournal
	err := r.db.GetContext(ctx, &journal, "SELECT * FROM order_journals WHERE order_id = $1", orderID)
	if err != nil {
		return nil, err
	}
	return &journal, nil
}

func (r *OrderJournalRepository) GetByStatus(ctx context.Context, statuses []string) ([]entity.OrderJournal, error) {
	if len(statuses) == 0 {
		return []entity.OrderJournal{}, nil
	}

	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("*").
		From("order_journals").
		Where(sq.Eq{"status": statuses}).
		OrderBy("submitted_at desc")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	var journals []entity.OrderJournal
	err = r.db.SelectContext(ctx, &journals, query, args...)
	if err != nil {
		return nil, err
	}

	return journals, nil
}

// UpdateFromOrderUpdate moves the journal row forward to the state reported by
// the broker's order-update stream.
func (r *OrderJournalRepository) UpdateFromOrderUpdate(ctx context.Context, update entity.OrderUpdate) error {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update("order_journals").
		Set("filled_qty", update.Order.FilledQty).
		Set("status", statusForOrderEvent(update.Event, update.Order.Status)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"order_id": update.Order.ID})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func statusForOrderEvent(event string, reported string) string {
	switch event {
	case entity.OrderEventFill:
		return "filled"
	case entity.OrderEventPartialFill:
		return "partially_filled"
	case entity.OrderEventCanceled:
		return "canceled"
	case entity.OrderEventRejected:
		return "rejected"
	}

	if reported != "" {
		return reported
	}

	return event
}

package tickfollower

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// PositionSnapshot is the externally visible view of one instrument's ledger,
// refreshed after every ledger mutation. The status command and the HTTP
// status surface read these instead of touching live strategy state.
type PositionSnapshot struct {
	Symbol            string    `json:"symbol"`
	TotalShares       int64     `json:"total_shares"`
	PendingBuyShares  int64     `json:"pending_buy_shares"`
	PendingSellShares int64     `json:"pending_sell_shares"`
	PendingOrders     int       `json:"pending_orders"`
	LevelCount        int       `json:"level_count"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type PositionStateStore interface {
	Load(ctx context.Context, symbol string) (PositionSnapshot, bool, error)
	Save(ctx context.Context, snapshot PositionSnapshot) error
	Close() error
}

type RedisPositionStateStore struct {
	client *redis.Client
}

func NewRedisPositionStateStore(cacheDSN string) (*RedisPositionStateStore, error) {
	if cacheDSN == "" {
		return nil, fmt.Errorf("redis cache_dsn is required")
	}

	options, err := redis.ParseURL(cacheDSN)
	if err != nil {
		return nil, fmt.Errorf("parse redis cache_dsn: %w", err)
	}

	return &RedisPositionStateStore{client: redis.NewClient(options)}, nil
}

func (s *RedisPositionStateStore) Load(ctx context.Context, symbol string) (PositionSnapshot, bool, error) {
	rawSnapshot, err := s.client.Get(ctx, positionSnapshotKey(symbol)).Result()
	if err != nil {
		if err == redis.Nil {
			return PositionSnapshot{}, false, nil
		}
		return PositionSnapshot{}, false, err
	}

	var snapshot PositionSnapshot
	if err := json.Unmarshal([]byte(rawSnapshot), &snapshot); err != nil {
		return PositionSnapshot{}, false, err
	}

	return snapshot, true, nil
}

func (s *RedisPositionStateStore) Save(ctx context.Context, snapshot PositionSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, positionSnapshotKey(snapshot.Symbol), payload, 0).Err()
}

func (s *RedisPositionStateStore) Close() error {
	return s.client.Close()
}

func positionSnapshotKey(symbol string) string {
	return fmt.Sprintf("tick-follower:position:%s", symbol)
}

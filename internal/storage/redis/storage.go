package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/storage"
)

// Storage is a Redis-backed implementation of storage.RoundStore.
// Each room's archive is a list with the newest round at the head.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.RoundStore = (*Storage)(nil)

func (s *Storage) AppendRound(ctx context.Context, summary *model.RoundSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	key := roundsKey(summary.Room)

	// Push, cap and refresh expiry together
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if s.cfg.HistoryLimit > 0 {
		pipe.LTrim(ctx, key, 0, int64(s.cfg.HistoryLimit-1))
	}
	if s.cfg.HistoryTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.HistoryTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListRounds(ctx context.Context, code model.RoomCode) ([]model.RoundSummary, error) {
	items, err := s.client.LRange(ctx, roundsKey(code), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	rounds := make([]model.RoundSummary, 0, len(items))
	for _, item := range items {
		var summary model.RoundSummary
		if err := json.Unmarshal([]byte(item), &summary); err != nil {
			return nil, fmt.Errorf("decode round for room %s: %w", code, err)
		}
		rounds = append(rounds, summary)
	}
	return rounds, nil
}

func (s *Storage) DeleteRounds(ctx context.Context, code model.RoomCode) error {
	return s.client.Del(ctx, roundsKey(code)).Err()
}

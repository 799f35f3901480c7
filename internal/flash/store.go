package flash

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "flash:"
	defaultTTL = 10 * time.Minute
)

// Categories used by the pages.
const (
	Success = "success"
	Error   = "danger"
)

// Message is a one-shot notice shown on the next rendered page.
type Message struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Store keeps pending messages per browser in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a new flash store. Unread messages expire after ttl.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Push appends a message for the given browser session.
func (s *Store) Push(ctx context.Context, sessionID string, m Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	key := keyPrefix + sessionID
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, b)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

// Pop returns and removes all pending messages, oldest first.
func (s *Store) Pop(ctx context.Context, sessionID string) ([]Message, error) {
	key := keyPrefix + sessionID
	var lrange *redis.StringSliceCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		lrange = p.LRange(ctx, key, 0, -1)
		p.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(lrange.Val()))
	for _, raw := range lrange.Val() {
		var m Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

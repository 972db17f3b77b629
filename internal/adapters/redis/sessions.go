package redisad

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"unistay/internal/adapters/observability"
	"unistay/internal/domain"
)

// Sessions is a server-side login session store. Tokens are opaque; the
// browser only ever sees the token, never the session contents.
type Sessions struct{ c *redis.Client }

func New(addr, pass string, db int) *Sessions {
	return &Sessions{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func key(token string) string { return "sess:" + token }

func (s *Sessions) SaveSession(ctx context.Context, token string, sess domain.Session, ttl time.Duration) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	observability.ObserveSession("save")
	return s.c.Set(ctx, key(token), b, ttl).Err()
}

func (s *Sessions) GetSession(ctx context.Context, token string) (domain.Session, bool, error) {
	v, err := s.c.Get(ctx, key(token)).Bytes()
	if err == redis.Nil {
		observability.ObserveSession("miss")
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	var sess domain.Session
	if err := json.Unmarshal(v, &sess); err != nil {
		return domain.Session{}, false, err
	}
	observability.ObserveSession("hit")
	return sess, true, nil
}

func (s *Sessions) DestroySession(ctx context.Context, token string) error {
	observability.ObserveSession("destroy")
	return s.c.Del(ctx, key(token)).Err()
}

// NewToken returns a 32-byte hex token for session ids and CSRF tokens.
func NewToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

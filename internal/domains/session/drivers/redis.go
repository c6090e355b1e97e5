package drivers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/voxbridge/voxbridge/internal/domains/session"
)

const (
	sessionKeyPrefix = "voxbridge:session:"
	defaultTTL       = 24 * time.Hour
)

// RedisStore implements session.Store on Redis, for deployments where the
// stream-end webhook may land on a different process than the relay.
// Sessions are JSON blobs with a TTL refreshed on write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Create implements session.Store.
func (s *RedisStore) Create(ctx context.Context, callerNumber string) (string, error) {
	now := time.Now()
	sess := &session.Session{
		ID:           uuid.NewString(),
		CallerNumber: callerNumber,
		Transcript: []session.Turn{
			{Role: session.RoleSystem, Text: session.SeedSystemTurn, At: now},
		},
		ControlState: session.StateActive,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.put(ctx, sess); err != nil {
		return "", err
	}
	return sess.ID, nil
}

// Get implements session.Store.
func (s *RedisStore) Get(ctx context.Context, id string) (*session.Session, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SetState implements session.Store. Uses WATCH so racing escalation paths
// cannot clobber a forward transition with a stale read.
func (s *RedisStore) SetState(ctx context.Context, id string, state session.ControlState) error {
	key := s.key(id)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return session.ErrNotFound
		}
		if err != nil {
			return err
		}

		var sess session.Session
		if err := json.Unmarshal([]byte(val), &sess); err != nil {
			return err
		}
		if !sess.ControlState.CanTransition(state) {
			return nil
		}
		sess.ControlState = state

		newVal, err := json.Marshal(&sess)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		return err
	}, key)
}

// AppendTurn implements session.Store.
func (s *RedisStore) AppendTurn(ctx context.Context, id string, turn session.Turn) error {
	if turn.At.IsZero() {
		turn.At = time.Now()
	}
	return s.update(ctx, id, func(sess *session.Session) {
		sess.Transcript = append(sess.Transcript, turn)
	})
}

// Touch implements session.Store.
func (s *RedisStore) Touch(ctx context.Context, id string) error {
	return s.update(ctx, id, func(sess *session.Session) {
		sess.LastActivity = time.Now()
	})
}

// Close implements session.Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) update(ctx context.Context, id string, mutate func(*session.Session)) error {
	key := s.key(id)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return session.ErrNotFound
		}
		if err != nil {
			return err
		}

		var sess session.Session
		if err := json.Unmarshal([]byte(val), &sess); err != nil {
			return err
		}
		mutate(&sess)

		newVal, err := json.Marshal(&sess)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		return err
	}, key)
}

func (s *RedisStore) put(ctx context.Context, sess *session.Session) error {
	val, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sess.ID), val, s.ttl).Err()
}

func (s *RedisStore) key(id string) string {
	return sessionKeyPrefix + id
}

var _ session.Store = (*RedisStore)(nil)

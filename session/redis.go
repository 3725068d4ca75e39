package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/ublc/libchat/core"
)

const redisKeyPrefix = "libchat:session:"

// RedisStore persists sessions as JSON blobs in Redis with a TTL, allowing
// several service instances to share conversation state.
//
// Per-session mutation is serialized with an instance-local mutex per id.
// That upholds the locking contract within one process; deployments routing
// the same session id to multiple instances additionally need sticky
// routing, since cross-instance turns for one session are not serialized.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl, locks: make(map[string]*sync.Mutex)}, nil
}

// GetOrCreate returns the stored session or a fresh idle one.
func (s *RedisStore) GetOrCreate(id string) (*core.Session, error) {
	lock := s.lock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = core.NewSession(id)
		if err := s.save(sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// Peek returns the stored session without creating one.
func (s *RedisStore) Peek(id string) (*core.Session, bool) {
	sess, err := s.load(id)
	if err != nil || sess == nil {
		return nil, false
	}
	return sess, true
}

// Update loads the session, runs fn, and writes the result back with a
// refreshed TTL, all under the instance-local per-session lock.
func (s *RedisStore) Update(id string, fn func(*core.Session) error) error {
	lock := s.lock(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.load(id)
	if err != nil {
		return err
	}
	if sess == nil {
		sess = core.NewSession(id)
	}
	if err := fn(sess); err != nil {
		return err
	}
	return s.save(sess)
}

// Delete removes the session. Unknown ids are a no-op.
func (s *RedisStore) Delete(id string) error {
	lock := s.lock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()

	return s.client.Del(context.Background(), redisKeyPrefix+id).Err()
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) load(id string) (*core.Session, error) {
	data, err := s.client.Get(context.Background(), redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	var sess core.Session
	if err := sonic.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) save(sess *core.Session) error {
	data, err := sonic.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	return s.client.Set(context.Background(), redisKeyPrefix+sess.ID, data, s.ttl).Err()
}

func (s *RedisStore) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

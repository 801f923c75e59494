package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"svomo/internal/domain"
)

// ErrSessionNotFound indica que la sesion no existe o ya expiro.
var ErrSessionNotFound = errors.New("wizard session not found")

// WizardSessionStore guarda sesiones del wizard con expiracion. Save renueva el TTL.
type WizardSessionStore interface {
	Save(ctx context.Context, session *domain.WizardSession) error
	Get(ctx context.Context, id string) (*domain.WizardSession, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	session   *domain.WizardSession
	expiresAt time.Time
}

type MemoryWizardSessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryWizardSessionStore(ttl time.Duration) *MemoryWizardSessionStore {
	return &MemoryWizardSessionStore{
		ttl:   ttl,
		items: make(map[string]memoryEntry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryWizardSessionStore) Save(ctx context.Context, session *domain.WizardSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("save wizard session: missing id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.ID] = memoryEntry{
		session:   session.Clone(),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryWizardSessionStore) Get(ctx context.Context, id string) (*domain.WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.items, id)
		return nil, ErrSessionNotFound
	}
	return entry.session.Clone(), nil
}

func (s *MemoryWizardSessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// redisCmdable es el subconjunto de *redis.Client que usa el store.
type redisCmdable interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisWizardSessionStore struct {
	client redisCmdable
	ttl    time.Duration
	prefix string
}

func NewRedisWizardSessionStore(client *redis.Client, ttl time.Duration) *RedisWizardSessionStore {
	return newRedisWizardSessionStore(client, ttl)
}

func newRedisWizardSessionStore(client redisCmdable, ttl time.Duration) *RedisWizardSessionStore {
	return &RedisWizardSessionStore{
		client: client,
		ttl:    ttl,
		prefix: "wizard:session:",
	}
}

func (s *RedisWizardSessionStore) Save(ctx context.Context, session *domain.WizardSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("save wizard session: missing id")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal wizard session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+session.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set wizard session: %w", err)
	}
	return nil
}

func (s *RedisWizardSessionStore) Get(ctx context.Context, id string) (*domain.WizardSession, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get wizard session: %w", err)
	}
	var session domain.WizardSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal wizard session: %w", err)
	}
	return &session, nil
}

func (s *RedisWizardSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.prefix+id).Err()
}

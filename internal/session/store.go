// Package session persists signed-in admin sessions. A session is created at
// login, read on every backend call to set the bearer header, and destroyed
// at logout or on the first 401 from the backend.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cebeepredict/admin/model"
)

// Store persists sessions by key. Load returns (nil, nil) when no session
// exists or it has expired.
type Store interface {
	Load(ctx context.Context, key string) (*model.Session, error)
	Save(ctx context.Context, key string, s *model.Session) error
	Delete(ctx context.Context, key string) error
}

// NewKey returns a fresh random session key for cookie-scoped sessions.
func NewKey() string {
	return uuid.NewString()
}

// FromToken builds a session for a backend token. When the token is a JWT
// its expiry is copied onto the session, and its claims fill in the user
// when the login response carried none. The signature is not checked: the
// backend is the only party that verifies this token.
func FromToken(token string, user map[string]any, now time.Time) *model.Session {
	s := &model.Session{Token: token, User: user, Timestamp: now}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return s
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	if s.User == nil {
		s.User = map[string]any{}
		for _, k := range []string{"sub", "email", "name", "username", "role"} {
			if v, ok := claims[k]; ok {
				s.User[k] = v
			}
		}
		if sub, ok := claims["sub"]; ok {
			s.User["id"] = sub
		}
	}
	return s
}

// --- MemoryStore ---

// MemoryStore is an in-memory Store. Suitable for tests and single-instance
// deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]model.Session), now: time.Now}
}

// Load returns the session for key, dropping it if expired.
func (m *MemoryStore) Load(_ context.Context, key string) (*model.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !s.Valid(m.now()) {
		m.mu.Lock()
		delete(m.sessions, key)
		m.mu.Unlock()
		return nil, nil
	}
	return &s, nil
}

// Save stores a copy of s under key.
func (m *MemoryStore) Save(_ context.Context, key string, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = *s
	return nil
}

// Delete removes the session under key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// Len returns the number of stored sessions. For testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// --- FileStore ---

// FileStore keeps sessions in a single JSON file readable only by the owner.
// The CLI uses it so a login survives between invocations.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileStore returns a store backed by the file at path. The file is
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) read() (map[string]model.Session, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]model.Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: reading %s: %w", f.path, err)
	}
	sessions := map[string]model.Session{}
	if len(data) == 0 {
		return sessions, nil
	}
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("session: parsing %s: %w", f.path, err)
	}
	return sessions, nil
}

func (f *FileStore) write(sessions map[string]model.Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("session: creating directory: %w", err)
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encoding: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: writing %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}

// Load returns the session for key. Expired sessions are removed.
func (f *FileStore) Load(_ context.Context, key string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sessions, err := f.read()
	if err != nil {
		return nil, err
	}
	s, ok := sessions[key]
	if !ok {
		return nil, nil
	}
	if !s.Valid(f.now()) {
		delete(sessions, key)
		return nil, f.write(sessions)
	}
	return &s, nil
}

// Save writes s under key.
func (f *FileStore) Save(_ context.Context, key string, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sessions, err := f.read()
	if err != nil {
		return err
	}
	sessions[key] = *s
	return f.write(sessions)
}

// Delete removes the session under key. Deleting a missing key is not an
// error.
func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sessions, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := sessions[key]; !ok {
		return nil
	}
	delete(sessions, key)
	return f.write(sessions)
}

// HealthCheck verifies the session file is readable.
func (f *FileStore) HealthCheck(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.read()
	return err
}

// --- RedisStore ---

// RedisStore is a Redis-backed Store. Entries expire with the configured
// TTL, or with the session's own expiry when that comes first.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func redisKey(key string) string {
	return "session:" + key
}

// Load returns the session for key.
func (r *RedisStore) Load(ctx context.Context, key string) (*model.Session, error) {
	raw, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", redisKey(key), err)
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %q: %w", key, err)
	}
	if !s.Valid(r.now()) {
		return nil, nil
	}
	return &s, nil
}

// Save stores s under key.
func (r *RedisStore) Save(ctx context.Context, key string, s *model.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := r.ttl
	if !s.ExpiresAt.IsZero() {
		if until := s.ExpiresAt.Sub(r.now()); ttl <= 0 || until < ttl {
			ttl = until
		}
	}
	if ttl < 0 {
		return nil
	}

	if err := r.client.Set(ctx, redisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", redisKey(key), err)
	}
	return nil
}

// Delete removes the session under key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", redisKey(key), err)
	}
	return nil
}

// HealthCheck pings Redis.
func (r *RedisStore) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

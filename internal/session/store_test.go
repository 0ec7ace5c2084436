package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/fms-portal-api/internal/models"
)

type memoryPersister struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMemoryPersister() *memoryPersister {
	return &memoryPersister{sessions: make(map[string]*Session)}
}

func (p *memoryPersister) Save(_ context.Context, s *Session, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	copied := *s
	p.sessions[s.UserID] = &copied
	return nil
}

func (p *memoryPersister) Load(_ context.Context, userID string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[userID]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (p *memoryPersister) Delete(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, userID)
	return nil
}

// memoryBroker delivers every published event to all subscribers,
// including the publisher, mirroring Redis pub/sub semantics.
type memoryBroker struct {
	mu          sync.Mutex
	subscribers []chan Event
}

func newMemoryBroker() *memoryBroker {
	return &memoryBroker{}
}

func (b *memoryBroker) Publish(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subscribers {
		sub <- event
	}
	return nil
}

func (b *memoryBroker) Subscribe(_ context.Context) (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 16)
	b.subscribers = append(b.subscribers, ch)
	return ch, nil
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestSession(userID string) *Session {
	return &Session{
		UserID:      userID,
		Email:       userID + "@portal.edu",
		Role:        models.RoleStudent,
		Permissions: models.PermissionSet{},
		TokenID:     "tok-" + userID,
		IssuedAt:    time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestStoreLoginThenCurrent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemoryPersister(), newMemoryBroker(), time.Hour, zap.NewNop())

	sess, err := store.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, sess, "no session before login")

	require.NoError(t, store.Login(ctx, newTestSession("u1")))

	sess, err = store.Current(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, models.RoleStudent, sess.Role)
}

func TestStoreLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemoryPersister(), newMemoryBroker(), time.Hour, zap.NewNop())

	require.NoError(t, store.Login(ctx, newTestSession("u1")))
	require.NoError(t, store.Logout(ctx, "u1"))
	require.NoError(t, store.Logout(ctx, "u1"))

	sess, err := store.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestStoreLoadsPersistedSession(t *testing.T) {
	ctx := context.Background()
	persister := newMemoryPersister()

	first := NewStore(persister, newMemoryBroker(), time.Hour, zap.NewNop())
	require.NoError(t, first.Login(ctx, newTestSession("u1")))

	// A fresh instance sharing the persister sees the login.
	second := NewStore(persister, newMemoryBroker(), time.Hour, zap.NewNop())
	sess, err := second.Current(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.UserID)
}

func TestStoreExpiredSessionIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemoryPersister(), newMemoryBroker(), time.Hour, zap.NewNop())

	expired := newTestSession("u1")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Login(ctx, expired))

	sess, err := store.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestStoresConvergeOnLogout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := newMemoryBroker()
	first := NewStore(newMemoryPersister(), broker, time.Hour, zap.NewNop())
	second := NewStore(newMemoryPersister(), broker, time.Hour, zap.NewNop())
	require.NoError(t, first.Start(ctx))
	require.NoError(t, second.Start(ctx))

	require.NoError(t, first.Login(ctx, newTestSession("u1")))
	waitFor(t, func() bool {
		second.mu.RLock()
		defer second.mu.RUnlock()
		_, ok := second.sessions["u1"]
		return ok
	})

	require.NoError(t, second.Logout(ctx, "u1"))
	waitFor(t, func() bool {
		first.mu.RLock()
		defer first.mu.RUnlock()
		_, ok := first.sessions["u1"]
		return !ok
	})
}

func TestStoreLastLoginWins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := newMemoryBroker()
	first := NewStore(newMemoryPersister(), broker, time.Hour, zap.NewNop())
	second := NewStore(newMemoryPersister(), broker, time.Hour, zap.NewNop())
	require.NoError(t, first.Start(ctx))
	require.NoError(t, second.Start(ctx))

	older := newTestSession("u1")
	older.TokenID = "tok-old"
	require.NoError(t, first.Login(ctx, older))

	newer := newTestSession("u1")
	newer.TokenID = "tok-new"
	require.NoError(t, second.Login(ctx, newer))

	waitFor(t, func() bool {
		first.mu.RLock()
		defer first.mu.RUnlock()
		sess, ok := first.sessions["u1"]
		return ok && sess.TokenID == "tok-new"
	})
}

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
)

// Persister stores sessions durably so they survive restarts.
type Persister interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Load(ctx context.Context, userID string) (*Session, error)
	Delete(ctx context.Context, userID string) error
}

// Broker fans session events out to every subscribed store.
type Broker interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Store keeps an in-memory view of active sessions, persisted through a
// Persister and kept consistent across instances through a Broker.
// A login replaces any previous session for the same user, and a logout
// anywhere revokes the session everywhere.
type Store struct {
	persister Persister
	broker    Broker
	logger    *zap.Logger
	ttl       time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore constructs a session store. The TTL bounds how long a
// persisted session outlives its last login.
func NewStore(persister Persister, broker Broker, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		persister: persister,
		broker:    broker,
		logger:    logger,
		ttl:       ttl,
		sessions:  make(map[string]*Session),
	}
}

// Start consumes broker events until ctx is cancelled. Run it once per
// instance, in its own goroutine.
func (s *Store) Start(ctx context.Context) error {
	events, err := s.broker.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to session events: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				s.apply(event)
			}
		}
	}()

	return nil
}

// Login records the session, persists it and broadcasts the change.
func (s *Store) Login(ctx context.Context, sess *Session) error {
	if sess == nil || sess.UserID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "session requires a user id")
	}

	if err := s.persister.Save(ctx, sess, s.ttl); err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions[sess.UserID] = sess
	s.mu.Unlock()

	event := Event{Kind: EventLogin, UserID: sess.UserID, Session: sess}
	if err := s.broker.Publish(ctx, event); err != nil {
		s.logger.Warn("session login broadcast failed",
			zap.String("user_id", sess.UserID), zap.Error(err))
	}

	return nil
}

// Logout revokes the user's session and broadcasts the revocation.
// Logging out a user with no session is a no-op.
func (s *Store) Logout(ctx context.Context, userID string) error {
	if err := s.persister.Delete(ctx, userID); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()

	event := Event{Kind: EventLogout, UserID: userID}
	if err := s.broker.Publish(ctx, event); err != nil {
		s.logger.Warn("session logout broadcast failed",
			zap.String("user_id", userID), zap.Error(err))
	}

	return nil
}

// Current returns the user's active session, falling back to the
// persister when this instance has not seen the login. Expired sessions
// are treated as absent.
func (s *Store) Current(ctx context.Context, userID string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()

	if !ok {
		loaded, err := s.persister.Load(ctx, userID)
		if err != nil {
			return nil, err
		}
		if loaded == nil {
			return nil, nil
		}

		s.mu.Lock()
		s.sessions[userID] = loaded
		s.mu.Unlock()
		sess = loaded
	}

	if !sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, userID)
		s.mu.Unlock()
		return nil, nil
	}

	return sess, nil
}

// apply folds a broadcast event into the local view.
func (s *Store) apply(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Kind {
	case EventLogin:
		if event.Session != nil {
			s.sessions[event.UserID] = event.Session
		}
	case EventLogout:
		delete(s.sessions, event.UserID)
	default:
		s.logger.Debug("ignoring unknown session event", zap.String("kind", event.Kind))
	}
}

// MarshalEvent encodes an event for the wire.
func MarshalEvent(event Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal session event: %w", err)
	}
	return payload, nil
}

// UnmarshalEvent decodes an event off the wire.
func UnmarshalEvent(raw []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal session event: %w", err)
	}
	return event, nil
}

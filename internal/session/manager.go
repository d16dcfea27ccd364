package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/manash/bizforge/pkg/models"
)

// Lifetime is how long an established session stays valid.
const Lifetime = time.Hour

const syncTimeout = 10 * time.Second

var ErrNoSession = errors.New("not signed in")

// Slot persists the single active session.
type Slot interface {
	LoadSession(ctx context.Context) (*models.Session, error)
	SaveSession(ctx context.Context, sess *models.Session) error
	ClearSession(ctx context.Context) error
}

// UserSyncer receives the identity once per establishment. Its outcome is
// only logged.
type UserSyncer interface {
	SyncUser(ctx context.Context, sess *models.Session) error
}

type Manager struct {
	slot   Slot
	syncer UserSyncer
	logger *zap.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithSyncer(s UserSyncer) Option {
	return func(m *Manager) { m.syncer = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewManager(slot Slot, opts ...Option) *Manager {
	m := &Manager{
		slot:   slot,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Establish decodes token and stores the resulting session, replacing any
// previous one. On a DecodeError the stored slot is left untouched.
func (m *Manager) Establish(ctx context.Context, token string) (*models.Session, error) {
	claims, err := DecodeClaims(token)
	if err != nil {
		return nil, err
	}

	sess := &models.Session{
		Token:       token,
		SubjectID:   claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		AvatarURI:   claims.Picture,
		ExpiresAtMs: m.now().Add(Lifetime).UnixMilli(),
	}

	if err := m.slot.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	m.logger.Info("session established",
		zap.String("subject", sess.SubjectID),
		zap.Time("expires_at", sess.ExpiresAt()))

	m.syncUser(sess)
	return sess, nil
}

func (m *Manager) syncUser(sess *models.Session) {
	if m.syncer == nil {
		return
	}
	snapshot := *sess
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		if err := m.syncer.SyncUser(ctx, &snapshot); err != nil {
			m.logger.Debug("user sync skipped", zap.Error(err))
		}
	}()
}

// Current returns the active session, or nil when there is none. An expired
// session is cleared as a side effect.
func (m *Manager) Current(ctx context.Context) (*models.Session, error) {
	sess, err := m.slot.LoadSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if sess.Expired(m.now()) {
		m.logger.Info("session expired", zap.String("subject", sess.SubjectID))
		if err := m.slot.ClearSession(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return sess, nil
}

// Require is Current for callers that need an identity.
func (m *Manager) Require(ctx context.Context) (*models.Session, error) {
	sess, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (m *Manager) Valid(ctx context.Context) bool {
	sess, err := m.Current(ctx)
	return err == nil && sess != nil
}

func (m *Manager) Clear(ctx context.Context) error {
	return m.slot.ClearSession(ctx)
}

// Wait blocks until background user sync calls have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

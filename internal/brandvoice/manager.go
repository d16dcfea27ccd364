// Package brandvoice keeps the brand-voice profile local-first: the local
// copy is always authoritative for reads, and the remote copy is refreshed or
// updated in the background.
package brandvoice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/manash/bizforge/pkg/models"
)

const DefaultRemoteTimeout = 15 * time.Second

// LocalTier is the synchronous, always-available copy.
type LocalTier interface {
	LoadProfile(ctx context.Context) (models.BrandVoiceProfile, error)
	SaveProfile(ctx context.Context, p models.BrandVoiceProfile) error
}

// RemoteTier is the per-subject server copy. Fetch returns nil when the
// remote holds no profile.
type RemoteTier interface {
	FetchBrandVoice(ctx context.Context, subjectID string) (*models.BrandVoiceProfile, error)
	PushBrandVoice(ctx context.Context, subjectID string, p models.BrandVoiceProfile) error
}

type Manager struct {
	local   LocalTier
	remote  RemoteTier
	logger  *zap.Logger
	timeout time.Duration

	// mu orders the local write of a remote refresh against Save so a
	// refresh that started before a Save cannot clobber it.
	mu      sync.Mutex
	version uint64

	wg sync.WaitGroup
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithRemoteTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewManager builds a manager. remote may be nil, in which case the profile
// lives only locally.
func NewManager(local LocalTier, remote RemoteTier, opts ...Option) *Manager {
	m := &Manager{
		local:   local,
		remote:  remote,
		logger:  zap.NewNop(),
		timeout: DefaultRemoteTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current reads the local copy only.
func (m *Manager) Current(ctx context.Context) (models.BrandVoiceProfile, error) {
	p, err := m.local.LoadProfile(ctx)
	if err != nil {
		return models.BrandVoiceProfile{}, fmt.Errorf("failed to read local brand voice: %w", err)
	}
	return p, nil
}

// Load returns the local copy immediately and refreshes from the remote in
// the background. When the remote holds a profile it replaces the local copy
// and is sent on the returned channel. The channel is closed once the refresh
// finishes, whether or not anything was sent.
func (m *Manager) Load(ctx context.Context, subjectID string) (models.BrandVoiceProfile, <-chan models.BrandVoiceProfile) {
	refreshed := make(chan models.BrandVoiceProfile, 1)

	current, err := m.Current(ctx)
	if err != nil {
		m.logger.Warn("local brand voice unreadable", zap.Error(err))
	}

	if m.remote == nil || subjectID == "" {
		close(refreshed)
		return current, refreshed
	}

	m.mu.Lock()
	startVersion := m.version
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(refreshed)

		rctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		remote, err := m.remote.FetchBrandVoice(rctx, subjectID)
		if err != nil {
			m.logger.Debug("brand voice remote load skipped", zap.String("subject", subjectID), zap.Error(err))
			return
		}
		if remote == nil {
			return
		}

		m.mu.Lock()
		if m.version != startVersion {
			m.mu.Unlock()
			m.logger.Debug("brand voice refresh superseded by a local save")
			return
		}
		err = m.local.SaveProfile(rctx, *remote)
		if err == nil {
			m.version++
		}
		m.mu.Unlock()

		if err != nil {
			m.logger.Warn("failed to store refreshed brand voice", zap.Error(err))
			return
		}
		refreshed <- *remote
	}()

	return current, refreshed
}

// Save writes the local copy synchronously and pushes to the remote in the
// background. Only a local write error is returned; a remote failure is
// logged and never reverts the local write.
func (m *Manager) Save(ctx context.Context, subjectID string, p models.BrandVoiceProfile) error {
	m.mu.Lock()
	err := m.local.SaveProfile(ctx, p)
	if err == nil {
		m.version++
	}
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to save brand voice: %w", err)
	}

	if m.remote == nil || subjectID == "" {
		return nil
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		rctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := m.remote.PushBrandVoice(rctx, subjectID, p); err != nil {
			m.logger.Debug("brand voice remote save skipped", zap.String("subject", subjectID), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until background remote calls have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

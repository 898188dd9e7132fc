package session

import (
	"fmt"
	"os"
	"sync"
	"time"

	"lampview/internal/config"
	"lampview/internal/constants"
	"lampview/internal/database"
	"lampview/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Registry holds the uploaded snapshot sets of active sessions. Snapshots
// live as temp files under the configured data dir and are removed when the
// session expires.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	dataDir  string
	ttl      time.Duration
	logger   zerolog.Logger
	done     chan struct{}
}

func NewRegistry(cfg *config.Config, logger zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*domain.Session),
		dataDir:  cfg.DataDir,
		ttl:      cfg.SessionTTL,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Create registers a new empty session.
func (r *Registry) Create() (*domain.Session, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	sess := &domain.Session{ID: id, CreatedAt: time.Now()}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	r.logger.Info().Str("session_id", id).Msg("session created")
	return sess, nil
}

// Get looks up an active session. The returned value is a copy taken under
// the lock; readers never observe a concurrent upload mid-write.
func (r *Registry) Get(id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	cp := *sess
	return &cp, nil
}

// AttachSnapshot stores uploaded snapshot bytes for the session. Re-uploading
// a kind replaces the previous snapshot file.
func (r *Registry) AttachSnapshot(id string, kind domain.SnapshotKind, data []byte) error {
	if _, err := r.Get(id); err != nil {
		return err
	}

	path, err := database.SaveSnapshot(r.dataDir, id, kind, data, r.logger)
	if err != nil {
		r.logger.Error().Err(err).Str("session_id", id).Str("kind", string(kind)).Msg("snapshot upload rejected")
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// the session may have been swept while the file was written
	sess, ok := r.sessions[id]
	if !ok {
		os.Remove(path)
		return fmt.Errorf("session %s not found", id)
	}
	switch kind {
	case domain.SnapshotScore:
		sess.ScorePath = path
	case domain.SnapshotScoreLog:
		sess.ScoreLogPath = path
	case domain.SnapshotSongData:
		sess.SongDataPath = path
	}
	return nil
}

// StartSweeper expires sessions past their TTL until Close is called.
func (r *Registry) StartSweeper() {
	go func() {
		ticker := time.NewTicker(constants.SessionSweep)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweep()
			case <-r.done:
				return
			}
		}
	}()
}

// Close stops the sweeper and removes every stored snapshot.
func (r *Registry) Close() {
	close(r.done)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sess := range r.sessions {
		r.removeFiles(sess)
		delete(r.sessions, id)
	}
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sess := range r.sessions {
		if sess.CreatedAt.Before(cutoff) {
			r.removeFiles(sess)
			delete(r.sessions, id)
			r.logger.Debug().Str("session_id", id).Msg("session expired")
		}
	}
}

func (r *Registry) removeFiles(sess *domain.Session) {
	for _, kind := range []domain.SnapshotKind{domain.SnapshotScore, domain.SnapshotScoreLog, domain.SnapshotSongData} {
		if path := sess.Path(kind); path != "" {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				r.logger.Warn().Err(err).Str("path", path).Msg("failed to remove snapshot file")
			}
		}
	}
}

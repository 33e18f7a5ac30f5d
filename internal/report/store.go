package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"compass/internal/core"
	"compass/internal/log"
)

// DefaultTTL is how long a generated report stays downloadable.
const DefaultTTL = time.Hour

const purgeInterval = 5 * time.Minute

type entry struct {
	path      string
	fileName  string
	expiresAt time.Time
}

// Store writes generated reports to disk and hands out unguessable,
// time-limited download tokens for them.
type Store struct {
	dir     string
	baseURL string
	ttl     time.Duration
	logger  *log.Logger

	mu      sync.Mutex
	entries map[string]entry
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	now func() time.Time
}

// NewStore creates a report store rooted at dir. Download URLs are built
// on baseURL. A non-positive ttl falls back to DefaultTTL.
func NewStore(dir, baseURL string, ttl time.Duration, logger *log.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		dir:     dir,
		baseURL: baseURL,
		ttl:     ttl,
		logger:  logger.WithComponent(log.ComponentReport),
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Generate builds a CSV report for userID, stores it and returns its
// download URL.
func (s *Store) Generate(userID string, expenses []core.Expense) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	token := uuid.NewString()
	name := FileName(userID, s.now())
	path := filepath.Join(s.dir, token+".csv")
	if err := os.WriteFile(path, BuildCSV(expenses), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	s.mu.Lock()
	s.entries[token] = entry{
		path:      path,
		fileName:  name,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()

	s.logger.Info("Report generated",
		log.FieldUserID, userID,
		log.FieldToken, token,
		"expenses", len(expenses))
	return s.baseURL + "/downloads/" + token, nil
}

// Open resolves a download token to the report's path and suggested
// filename. Expired or unknown tokens report false.
func (s *Store) Open(token string) (path, fileName string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, found := s.entries[token]
	if !found || s.now().After(e.expiresAt) {
		return "", "", false
	}
	return e.path, e.fileName, true
}

// Start launches the background purge loop. Safe to call once.
func (s *Store) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.runLoop()
	s.logger.Info("Report purge loop started", "interval", purgeInterval.String())
}

// Stop halts the purge loop and waits for it to exit.
func (s *Store) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
	s.logger.Info("Report purge loop stopped")
}

func (s *Store) runLoop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purge()
		case <-s.stopCh:
			return
		}
	}
}

// purge drops expired entries and their files.
func (s *Store) purge() {
	now := s.now()

	s.mu.Lock()
	var expired []entry
	for token, e := range s.entries {
		if now.After(e.expiresAt) {
			expired = append(expired, e)
			delete(s.entries, token)
		}
	}
	s.mu.Unlock()

	for _, e := range expired {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove expired report",
				"path", e.path,
				log.FieldError, err.Error())
		}
	}
	if len(expired) > 0 {
		s.logger.Info("Purged expired reports", "count", len(expired))
	}
}

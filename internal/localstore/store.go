// Package localstore is the on-device mirror of the remote record store.
// It is the read-of-record for the UI: reads and writes land here first
// and background reconciliation keeps the remote side eventually
// consistent with it. The store is explicitly constructed and injected;
// it is initialized at app start and cleared on logout.
package localstore

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"compass/internal/core"
)

const snapshotFile = "compass_cache.json"

// Store mirrors user records and per-user expense lists in memory, with an
// optional JSON snapshot on disk so state survives restarts.
type Store struct {
	mu       sync.Mutex
	dir      string // empty disables persistence
	users    map[string]core.User
	expenses map[string][]core.Expense
}

// New creates an empty, memory-only store.
func New() *Store {
	return &Store{
		users:    make(map[string]core.User),
		expenses: make(map[string][]core.Expense),
	}
}

// NewFromDir creates a store that persists a snapshot under dir, loading
// any existing snapshot. A missing or corrupt snapshot starts empty.
func NewFromDir(dir string) *Store {
	s := New()
	s.dir = dir
	s.load()
	return s
}

// User returns the cached record for userID, if any.
func (s *Store) User(userID string) (core.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	return u, ok
}

// PutUser stores or replaces a user record.
func (s *Store) PutUser(u core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UserID] = u
	s.persistLocked()
}

// Expenses returns a copy of the cached expense list for userID. The
// second result distinguishes "never fetched" from an empty list.
func (s *Store) Expenses(userID string) ([]core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.expenses[userID]
	if !ok {
		return nil, false
	}
	out := make([]core.Expense, len(list))
	copy(out, list)
	return out, true
}

// PutExpenses replaces the cached expense list for userID, typically with
// a fresh copy from the remote store.
func (s *Store) PutExpenses(userID string, list []core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]core.Expense, len(list))
	copy(stored, list)
	s.expenses[userID] = stored
	s.persistLocked()
}

// AppendExpense adds one expense to its owner's cached list, creating the
// list if this is the first entry.
func (s *Store) AppendExpense(e core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.UserID] = append(s.expenses[e.UserID], e)
	s.persistLocked()
}

// UpdateExpense replaces the stored expense with the same id. It reports
// whether a matching record was found.
func (s *Store) UpdateExpense(e core.Expense) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.expenses[e.UserID]
	for i := range list {
		if list[i].ExpenseID == e.ExpenseID {
			list[i] = e
			s.persistLocked()
			return true
		}
	}
	return false
}

// RemoveExpense deletes the expense with the given id from the owner's
// list. It reports whether a record was removed.
func (s *Store) RemoveExpense(userID, expenseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.expenses[userID]
	if !ok {
		return false
	}
	for i := range list {
		if list[i].ExpenseID == expenseID {
			s.expenses[userID] = append(list[:i], list[i+1:]...)
			s.persistLocked()
			return true
		}
	}
	return false
}

// Clear drops all cached state and the on-disk snapshot. Called on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]core.User)
	s.expenses = make(map[string][]core.Expense)
	if s.dir != "" {
		if err := os.Remove(filepath.Join(s.dir, snapshotFile)); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove cache snapshot", "error", err)
		}
	}
}

type snapshot struct {
	Users    map[string]core.User      `json:"users"`
	Expenses map[string][]core.Expense `json:"expenses"`
}

func (s *Store) load() {
	if s.dir == "" {
		return
	}
	data, err := os.ReadFile(filepath.Join(s.dir, snapshotFile))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read cache snapshot", "error", err)
		}
		return
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("Discarding corrupt cache snapshot", "error", err)
		return
	}
	if snap.Users != nil {
		s.users = snap.Users
	}
	if snap.Expenses != nil {
		s.expenses = snap.Expenses
	}
}

// persistLocked writes the snapshot; callers hold s.mu. Persistence
// failures are logged, never surfaced, because the in-memory state is
// authoritative.
func (s *Store) persistLocked() {
	if s.dir == "" {
		return
	}
	data, err := json.Marshal(snapshot{Users: s.users, Expenses: s.expenses})
	if err != nil {
		slog.Warn("Failed to encode cache snapshot", "error", err)
		return
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		slog.Warn("Failed to create cache directory", "error", err)
		return
	}
	path := filepath.Join(s.dir, snapshotFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		slog.Warn("Failed to write cache snapshot", "error", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		slog.Warn("Failed to replace cache snapshot", "error", err)
	}
}

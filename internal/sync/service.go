// Package sync keeps the local expense cache and the remote record store
// in step. Every operation completes against the local cache first; the
// matching remote call runs on a detached background task so a slow or
// dead store never blocks the caller.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"compass/internal/core"
	"compass/internal/identity"
	"compass/internal/localstore"
	"compass/internal/log"
	"compass/internal/report"
)

// RemoteStore is the slice of the record-store API the sync layer needs.
// *remote.Client satisfies it; tests substitute fakes.
type RemoteStore interface {
	GetUser(ctx context.Context, userID string) (core.User, error)
	CreateUser(ctx context.Context, u core.User) error
	UpdateUserBudget(ctx context.Context, userID string, budget float64) error
	GetExpense(ctx context.Context, expenseID string) (core.Expense, error)
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) error
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, userID, expenseID string) error
	GenerateReport(ctx context.Context, userID string) (string, error)
}

// ExpenseInput carries the caller-supplied fields of a new expense.
type ExpenseInput struct {
	Amount      float64
	Category    core.Category
	Date        core.Date
	Description string
}

// ExpenseUpdate carries the mutable fields of an expense; nil means keep
// the stored value.
type ExpenseUpdate struct {
	Amount      *float64
	Category    *core.Category
	Date        *core.Date
	Description *string
}

// Service coordinates the local cache, the remote store and the current
// identity.
type Service struct {
	local    *localstore.Store
	remote   RemoteStore
	identity identity.Provider
	tasks    *Detached
	group    singleflight.Group
	logger   *log.Logger
	now      func() time.Time
}

// NewService wires a sync service. taskTimeout bounds each background
// remote call; zero picks the default.
func NewService(local *localstore.Store, remote RemoteStore, ident identity.Provider, taskTimeout time.Duration, logger *log.Logger) *Service {
	return &Service{
		local:    local,
		remote:   remote,
		identity: ident,
		tasks:    NewDetached(taskTimeout, logger),
		logger:   logger.WithComponent(log.ComponentSync),
		now:      time.Now,
	}
}

// CreateUser ensures a user record exists for the current identity. It is
// idempotent: a cached record is returned as-is, and a remote conflict is
// resolved by adopting the remote copy.
func (s *Service) CreateUser(ctx context.Context, email string) (core.User, error) {
	ident, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return core.User{}, err
	}
	if u, ok := s.local.User(ident.UserID); ok {
		return u, nil
	}

	if email == "" {
		email = ident.Email
	}
	u := core.User{
		UserID:    ident.UserID,
		Email:     email,
		CreatedAt: s.now().UTC(),
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	s.local.PutUser(u)

	s.tasks.Go("create_user", func(ctx context.Context) error {
		err := s.remote.CreateUser(ctx, u)
		if errors.Is(err, core.ErrAlreadyExists) {
			existing, getErr := s.remote.GetUser(ctx, u.UserID)
			if getErr != nil {
				return getErr
			}
			s.local.PutUser(existing)
			return nil
		}
		return err
	})
	return u, nil
}

// UserDetails returns the current user's record, cache-first. A hit
// triggers a background refresh; a miss falls through to a synchronous
// remote fetch, and a dead remote yields an empty record without error.
func (s *Service) UserDetails(ctx context.Context) (core.User, error) {
	ident, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return core.User{}, err
	}

	if u, ok := s.local.User(ident.UserID); ok {
		s.refreshUser(ident.UserID)
		return u, nil
	}

	u, err := s.remote.GetUser(ctx, ident.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "Falling back to empty user details",
			log.FieldOperation, log.OpRead,
			log.FieldUserID, ident.UserID,
			log.FieldError, err.Error())
		return core.User{}, nil
	}
	s.local.PutUser(u)
	return u, nil
}

// SetMonthlyBudget updates the current user's monthly budget. A missing
// local record is scaffolded so budget can be set before first sync.
func (s *Service) SetMonthlyBudget(ctx context.Context, budget float64) (core.User, error) {
	if budget < 0 {
		return core.User{}, fmt.Errorf("%w: %.2f", core.ErrInvalidBudget, budget)
	}
	ident, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return core.User{}, err
	}

	u, ok := s.local.User(ident.UserID)
	if !ok {
		u = core.User{
			UserID:    ident.UserID,
			Email:     ident.Email,
			CreatedAt: s.now().UTC(),
		}
	}
	u.MonthlyBudget = budget
	s.local.PutUser(u)

	s.tasks.Go("update_budget", func(ctx context.Context) error {
		err := s.remote.UpdateUserBudget(ctx, u.UserID, budget)
		if errors.Is(err, core.ErrNotFound) {
			return s.remote.CreateUser(ctx, u)
		}
		return err
	})
	return u, nil
}

// AddExpense records a new expense for the current user. The record is
// visible to subsequent reads immediately.
func (s *Service) AddExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	ident, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		ExpenseID:   uuid.NewString(),
		UserID:      ident.UserID,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        in.Date,
		Description: in.Description,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.local.AppendExpense(e)

	s.tasks.Go("create_expense", func(ctx context.Context) error {
		return s.remote.CreateExpense(ctx, e)
	})
	return e, nil
}

// Expenses returns the current user's expenses, cache-first. A hit
// triggers a background refresh; a miss fetches synchronously; a dead
// remote yields an empty list without error.
func (s *Service) Expenses(ctx context.Context) ([]core.Expense, error) {
	ident, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	if list, ok := s.local.Expenses(ident.UserID); ok {
		s.refreshExpenses(ident.UserID)
		return list, nil
	}

	list, err := s.remote.ListExpenses(ctx, ident.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "Falling back to empty expense list",
			log.FieldOperation, log.OpList,
			log.FieldUserID, ident.UserID,
			log.FieldError, err.Error())
		return nil, nil
	}
	s.local.PutExpenses(ident.UserID, list)
	return list, nil
}

// UpdateExpense applies upd to the expense with the given id. Only the
// owner may modify a record; a locally unknown id is looked up remotely
// before failing.
func (s *Service) UpdateExpense(ctx context.Context, expenseID string, upd ExpenseUpdate) (core.Expense, error) {
	ident, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return core.Expense{}, err
	}

	e, ok := s.findLocal(ident.UserID, expenseID)
	if !ok {
		e, err = s.remote.GetExpense(ctx, expenseID)
		if err != nil {
			return core.Expense{}, err
		}
	}
	if e.UserID != ident.UserID {
		return core.Expense{}, fmt.Errorf("%w: expense %s", core.ErrOwnership, expenseID)
	}

	if upd.Amount != nil {
		e.Amount = *upd.Amount
	}
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.Date != nil {
		e.Date = *upd.Date
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if !s.local.UpdateExpense(e) {
		s.local.AppendExpense(e)
	}
	s.tasks.Go("update_expense", func(ctx context.Context) error {
		return s.remote.UpdateExpense(ctx, e)
	})
	return e, nil
}

// DeleteExpense removes the expense with the given id from the current
// user's records.
func (s *Service) DeleteExpense(ctx context.Context, expenseID string) error {
	ident, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return err
	}

	if !s.local.RemoveExpense(ident.UserID, expenseID) {
		return fmt.Errorf("%w: expense %s", core.ErrNotFound, expenseID)
	}

	s.tasks.Go("delete_expense", func(ctx context.Context) error {
		err := s.remote.DeleteExpense(ctx, ident.UserID, expenseID)
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return err
	})
	return nil
}

// ExportCSV builds a CSV report from the cached expenses and returns its
// suggested filename and contents. The remote store is asked for its own
// report in the background so the server-side copy stays warm.
func (s *Service) ExportCSV(ctx context.Context) (string, []byte, error) {
	ident, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return "", nil, err
	}

	list, ok := s.local.Expenses(ident.UserID)
	if !ok {
		list, err = s.remote.ListExpenses(ctx, ident.UserID)
		if err != nil {
			return "", nil, fmt.Errorf("loading expenses for export: %w", err)
		}
		s.local.PutExpenses(ident.UserID, list)
	}
	if len(list) == 0 {
		return "", nil, fmt.Errorf("%w: no expenses to export", core.ErrNotFound)
	}

	s.tasks.Go("generate_report", func(ctx context.Context) error {
		url, err := s.remote.GenerateReport(ctx, ident.UserID)
		if err != nil {
			return err
		}
		s.logger.Info("Remote report ready",
			log.FieldOperation, log.OpExport,
			log.FieldUserID, ident.UserID,
			"url", url)
		return nil
	})

	return report.FileName(ident.UserID, s.now()), report.BuildCSV(list), nil
}

// Logout waits for in-flight reconciliation and drops all cached state.
func (s *Service) Logout() {
	s.tasks.Wait()
	s.local.Clear()
}

// Wait blocks until all background reconciliation tasks have finished.
func (s *Service) Wait() {
	s.tasks.Wait()
}

func (s *Service) findLocal(userID, expenseID string) (core.Expense, bool) {
	list, ok := s.local.Expenses(userID)
	if !ok {
		return core.Expense{}, false
	}
	for _, e := range list {
		if e.ExpenseID == expenseID {
			return e, true
		}
	}
	return core.Expense{}, false
}

// refreshUser re-fetches the user record in the background. Concurrent
// refreshes for the same user collapse into one remote call.
func (s *Service) refreshUser(userID string) {
	s.tasks.Go("refresh_user", func(ctx context.Context) error {
		_, err, _ := s.group.Do("user:"+userID, func() (any, error) {
			u, err := s.remote.GetUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			s.local.PutUser(u)
			return nil, nil
		})
		return err
	})
}

// refreshExpenses re-fetches the expense list in the background.
func (s *Service) refreshExpenses(userID string) {
	s.tasks.Go("refresh_expenses", func(ctx context.Context) error {
		_, err, _ := s.group.Do("expenses:"+userID, func() (any, error) {
			list, err := s.remote.ListExpenses(ctx, userID)
			if err != nil {
				return nil, err
			}
			s.local.PutExpenses(userID, list)
			return nil, nil
		})
		return err
	})
}

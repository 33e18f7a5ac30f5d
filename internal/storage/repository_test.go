package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"compass/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "compass.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testUser() core.User {
	return core.User{UserID: "u1", Email: "u1@campus.edu", MonthlyBudget: 1000}
}

func testExpense(id string) core.Expense {
	return core.Expense{
		ExpenseID:   id,
		UserID:      "u1",
		Amount:      45.5,
		Category:    core.CategoryFood,
		Date:        core.NewDate(2026, 8, 15),
		Description: "canteen lunch",
	}
}

func TestUserCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetUser(ctx, "u1")
	require.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, repo.CreateUser(ctx, testUser()))

	err = repo.CreateUser(ctx, testUser())
	require.ErrorIs(t, err, core.ErrAlreadyExists)

	u, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "u1@campus.edu", u.Email)
	require.Equal(t, 1000.0, u.MonthlyBudget)
	require.False(t, u.CreatedAt.IsZero())

	require.NoError(t, repo.UpdateUserBudget(ctx, "u1", 750))
	u, err = repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 750.0, u.MonthlyBudget)

	err = repo.UpdateUserBudget(ctx, "nobody", 1)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestExpenseCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetExpense(ctx, "e1")
	require.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, repo.CreateExpense(ctx, testExpense("e1")))
	err = repo.CreateExpense(ctx, testExpense("e1"))
	require.ErrorIs(t, err, core.ErrAlreadyExists)

	e, err := repo.GetExpense(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, 45.5, e.Amount)
	require.Equal(t, core.CategoryFood, e.Category)
	require.Equal(t, "2026-08-15", e.Date.Key())

	e.Amount = 60
	e.Category = core.CategoryTravel
	require.NoError(t, repo.UpdateExpense(ctx, e))

	e, err = repo.GetExpense(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, 60.0, e.Amount)
	require.Equal(t, core.CategoryTravel, e.Category)

	require.NoError(t, repo.DeleteExpense(ctx, "e1"))
	err = repo.DeleteExpense(ctx, "e1")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestListExpensesByUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	list, err := repo.ListExpensesByUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, list)
	require.NotNil(t, list)

	older := testExpense("e1")
	older.Date = core.NewDate(2026, 8, 1)
	newer := testExpense("e2")
	newer.Date = core.NewDate(2026, 8, 20)
	theirs := testExpense("e3")
	theirs.UserID = "u2"

	require.NoError(t, repo.CreateExpense(ctx, older))
	require.NoError(t, repo.CreateExpense(ctx, newer))
	require.NoError(t, repo.CreateExpense(ctx, theirs))

	list, err = repo.ListExpensesByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "e2", list[0].ExpenseID, "most recent first")
	require.Equal(t, "e1", list[1].ExpenseID)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "compass.db")

	repo, err := NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// Reopening runs migrations again; ErrNoChange must be swallowed.
	repo, err = NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}

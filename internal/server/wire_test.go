package server_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"compass/internal/core"
	"compass/internal/remote"
)

// Drives the real remote client against the real server mux so the two
// sides cannot drift apart on request bodies or status mapping.
func TestClientServerRoundTrip(t *testing.T) {
	ts, repo := newTestServer(t)
	client := remote.NewClient(ts.URL, 5*time.Second)
	ctx := context.Background()

	user := core.User{UserID: "u1", Email: "u1@campus.edu", MonthlyBudget: 500}
	require.NoError(t, client.CreateUser(ctx, user))

	got, err := client.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "u1@campus.edu", got.Email)
	require.Equal(t, 500.0, got.MonthlyBudget)
	require.False(t, got.CreatedAt.IsZero())

	require.ErrorIs(t, client.CreateUser(ctx, user), core.ErrAlreadyExists)

	require.NoError(t, client.UpdateUserBudget(ctx, "u1", 750))
	got, err = client.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 750.0, got.MonthlyBudget)

	date, err := core.ParseDate("2026-08-15")
	require.NoError(t, err)
	expense := core.Expense{
		ExpenseID:   "e1",
		UserID:      "u1",
		Amount:      120.50,
		Category:    core.CategoryFood,
		Date:        date,
		Description: "mess fees",
	}
	require.NoError(t, client.CreateExpense(ctx, expense))

	list, err := client.ListExpenses(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "e1", list[0].ExpenseID)

	expense.Amount = 99.99
	expense.Description = "mess fees corrected"
	require.NoError(t, client.UpdateExpense(ctx, expense))

	single, err := client.GetExpense(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, 99.99, single.Amount)
	require.Equal(t, "mess fees corrected", single.Description)

	url, err := client.GenerateReport(ctx, "u1")
	require.NoError(t, err)
	require.Contains(t, url, "/downloads/")

	intruder := expense
	intruder.UserID = "u2"
	require.ErrorIs(t, client.UpdateExpense(ctx, intruder), core.ErrOwnership)
	require.ErrorIs(t, client.DeleteExpense(ctx, "u2", "e1"), core.ErrOwnership)

	require.NoError(t, client.DeleteExpense(ctx, "u1", "e1"))
	_, err = client.GetExpense(ctx, "e1")
	require.ErrorIs(t, err, core.ErrNotFound)
	require.Empty(t, mustList(t, repo, "u1"))
}

func mustList(t *testing.T, repo *fakeRepo, userID string) []core.Expense {
	t.Helper()
	list, err := repo.ListExpensesByUser(context.Background(), userID)
	require.NoError(t, err)
	return list
}

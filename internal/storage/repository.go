// Package storage persists record-store data in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"compass/internal/core"
	"compass/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores users and expenses in a single SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath
// and applies migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close releases the database connection.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetUser loads a user record by id.
func (r *SQLiteRepository) GetUser(ctx context.Context, userID string) (core.User, error) {
	var u core.User
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, email, monthly_budget, created_at FROM users WHERE user_id = ?`,
		userID,
	).Scan(&u.UserID, &u.Email, &u.MonthlyBudget, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("%w: user %s", core.ErrNotFound, userID)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}

	u.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return core.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new user record.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, email, monthly_budget, created_at) VALUES (?, ?, ?, ?)`,
		u.UserID, u.Email, u.MonthlyBudget, u.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s", core.ErrAlreadyExists, u.UserID)
		}
		return fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User saved to SQLite",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, u.UserID,
		"email", u.Email)
	return nil
}

// UpdateUserBudget replaces a user's monthly budget.
func (r *SQLiteRepository) UpdateUserBudget(ctx context.Context, userID string, budget float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET monthly_budget = ? WHERE user_id = ?`,
		budget, userID)
	if err != nil {
		return fmt.Errorf("update user budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", core.ErrNotFound, userID)
	}

	slog.InfoContext(ctx, "User budget updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldUserID, userID,
		log.FieldBudget, budget)
	return nil
}

// GetExpense loads a single expense by id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, expenseID string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT expense_id, user_id, amount, category, date, description FROM expenses WHERE expense_id = ?`,
		expenseID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("%w: expense %s", core.ErrNotFound, expenseID)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpensesByUser returns all expenses owned by userID, most recent
// date first.
func (r *SQLiteRepository) ListExpensesByUser(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT expense_id, user_id, amount, category, date, description FROM expenses WHERE user_id = ? ORDER BY date DESC, expense_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// CreateExpense inserts a new expense record.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (expense_id, user_id, amount, category, date, description) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ExpenseID, e.UserID, e.Amount, string(e.Category), e.Date.Key(), e.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: expense %s", core.ErrAlreadyExists, e.ExpenseID)
		}
		return fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		log.FieldOperation, log.OpCreate,
		log.FieldExpenseID, e.ExpenseID,
		log.FieldUserID, e.UserID,
		log.FieldAmount, e.Amount,
		log.FieldCategory, string(e.Category))
	return nil
}

// UpdateExpense replaces the mutable fields of an expense. The owner
// never changes.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET amount = ?, category = ?, date = ?, description = ? WHERE expense_id = ?`,
		e.Amount, string(e.Category), e.Date.Key(), e.Description, e.ExpenseID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: expense %s", core.ErrNotFound, e.ExpenseID)
	}
	return nil
}

// DeleteExpense removes an expense record.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE expense_id = ?`,
		expenseID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: expense %s", core.ErrNotFound, expenseID)
	}

	slog.InfoContext(ctx, "Expense deleted from SQLite",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, expenseID)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var category, date string
	if err := row.Scan(&e.ExpenseID, &e.UserID, &e.Amount, &category, &date, &e.Description); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	e.Date = d
	return e, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

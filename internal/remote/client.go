// Package remote is the HTTP client for the compass record store. It
// maps the store's JSON error envelope onto core sentinel errors so the
// sync layer never sees transport details.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"compass/internal/core"
)

// Client talks to one record-store instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the store at baseURL. The timeout bounds
// each individual request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// GetUser fetches a user record by id.
func (c *Client) GetUser(ctx context.Context, userID string) (core.User, error) {
	var u core.User
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &u)
	return u, err
}

// CreateUser registers a new user record. Only the fields the store
// accepts are sent; createdAt is assigned server-side.
func (c *Client) CreateUser(ctx context.Context, u core.User) error {
	body := struct {
		UserID        string  `json:"userId"`
		Email         string  `json:"email"`
		MonthlyBudget float64 `json:"monthlyBudget"`
	}{UserID: u.UserID, Email: u.Email, MonthlyBudget: u.MonthlyBudget}
	return c.do(ctx, http.MethodPost, "/users", body, nil)
}

// UpdateUserBudget replaces the monthly budget of an existing user.
func (c *Client) UpdateUserBudget(ctx context.Context, userID string, budget float64) error {
	body := struct {
		MonthlyBudget float64 `json:"monthlyBudget"`
	}{MonthlyBudget: budget}
	return c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), body, nil)
}

// GetExpense fetches a single expense by id.
func (c *Client) GetExpense(ctx context.Context, expenseID string) (core.Expense, error) {
	var e core.Expense
	err := c.do(ctx, http.MethodGet, "/expenses/"+url.PathEscape(expenseID), nil, &e)
	return e, err
}

// ListExpenses fetches all expenses owned by userID.
func (c *Client) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	var list []core.Expense
	err := c.do(ctx, http.MethodGet, "/expenses/user/"+url.PathEscape(userID), nil, &list)
	return list, err
}

// CreateExpense stores a new expense record.
func (c *Client) CreateExpense(ctx context.Context, e core.Expense) error {
	return c.do(ctx, http.MethodPost, "/expenses", e, nil)
}

// UpdateExpense replaces the mutable fields of an existing expense. The
// expense id travels in the path; UserID is sent in the body for the
// store's ownership check.
func (c *Client) UpdateExpense(ctx context.Context, e core.Expense) error {
	body := struct {
		UserID      string        `json:"userId"`
		Amount      float64       `json:"amount"`
		Category    core.Category `json:"category"`
		Date        core.Date     `json:"date"`
		Description string        `json:"description"`
	}{UserID: e.UserID, Amount: e.Amount, Category: e.Category, Date: e.Date, Description: e.Description}
	return c.do(ctx, http.MethodPut, "/expenses/"+url.PathEscape(e.ExpenseID), body, nil)
}

// DeleteExpense removes an expense record.
func (c *Client) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	path := "/expenses/" + url.PathEscape(expenseID) + "?userId=" + url.QueryEscape(userID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GenerateReport asks the store to build a CSV report for userID and
// returns the time-limited download URL.
func (c *Client) GenerateReport(ctx context.Context, userID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/reports/"+url.PathEscape(userID), nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}

	return statusError(resp.StatusCode, readMessage(resp.Body))
}

func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return strings.TrimSpace(string(data))
}

func statusError(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", core.ErrNotFound, message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", core.ErrOwnership, message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", core.ErrAlreadyExists, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("remote rejected request: %s", message)
	default:
		return fmt.Errorf("%w: status %d: %s", core.ErrRemoteUnavailable, status, message)
	}
}

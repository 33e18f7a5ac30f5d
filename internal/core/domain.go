package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryRent          Category = "Rent"
	CategoryStationery    Category = "Stationery"
	CategoryUtilities     Category = "Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryClothing      Category = "Clothing"
	CategoryHealth        Category = "Health"
	CategoryEducation     Category = "Education"
	CategoryOther         Category = "Other"
)

type (
	Category string

	User struct {
		UserID        string    `json:"userId"`
		Email         string    `json:"email"`
		MonthlyBudget float64   `json:"monthlyBudget"`
		CreatedAt     time.Time `json:"createdAt"`
	}

	Expense struct {
		ExpenseID   string   `json:"expenseId"`
		UserID      string   `json:"userId"`
		Amount      float64  `json:"amount"`
		Category    Category `json:"category"`
		Date        Date     `json:"date"`
		Description string   `json:"description"`
	}
)

var (
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrOwnership         = errors.New("record owned by another user")
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidCategory = errors.New("unknown category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidBudget   = errors.New("monthly budget cannot be negative")
	ErrMissingUserID   = errors.New("missing user id")
	ErrMissingEmail    = errors.New("missing email")
)

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTravel,
		CategoryRent,
		CategoryStationery,
		CategoryUtilities,
		CategoryEntertainment,
		CategoryClothing,
		CategoryHealth,
		CategoryEducation,
		CategoryOther,
	}
}

func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	for _, known := range Categories() {
		if strings.EqualFold(string(known), strings.TrimSpace(s)) {
			return known, nil
		}
	}
	return "", ErrInvalidCategory
}

func (u User) Validate() error {
	if strings.TrimSpace(u.UserID) == "" {
		return ErrMissingUserID
	}
	if strings.TrimSpace(u.Email) == "" {
		return ErrMissingEmail
	}
	if u.MonthlyBudget < 0 {
		return ErrInvalidBudget
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrMissingUserID
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

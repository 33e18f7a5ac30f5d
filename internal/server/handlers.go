package server

import (
	"errors"
	"net/http"

	"compass/internal/core"
	"compass/internal/log"
)

type createUserRequest struct {
	UserID        string  `json:"userId"`
	Email         string  `json:"email"`
	MonthlyBudget float64 `json:"monthlyBudget"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "userId and email are required")
		return
	}
	if req.MonthlyBudget < 0 {
		writeError(w, http.StatusBadRequest, "monthlyBudget cannot be negative")
		return
	}

	u := core.User{
		UserID:        req.UserID,
		Email:         req.Email,
		MonthlyBudget: req.MonthlyBudget,
	}
	if err := s.repo.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, core.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
		s.serverError(w, r, "Create user failed", err)
		return
	}

	created, err := s.repo.GetUser(r.Context(), u.UserID)
	if err != nil {
		s.serverError(w, r, "Load created user failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.repo.GetUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		s.serverError(w, r, "Get user failed", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type updateUserRequest struct {
	MonthlyBudget *float64 `json:"monthlyBudget"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MonthlyBudget == nil {
		writeError(w, http.StatusBadRequest, "monthlyBudget is required")
		return
	}
	if *req.MonthlyBudget < 0 {
		writeError(w, http.StatusBadRequest, "monthlyBudget cannot be negative")
		return
	}

	if err := s.repo.UpdateUserBudget(r.Context(), userID, *req.MonthlyBudget); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		s.serverError(w, r, "Update user budget failed", err)
		return
	}

	u, err := s.repo.GetUser(r.Context(), userID)
	if err != nil {
		s.serverError(w, r, "Load updated user failed", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type createExpenseRequest struct {
	ExpenseID   string        `json:"expenseId"`
	UserID      string        `json:"userId"`
	Amount      float64       `json:"amount"`
	Category    core.Category `json:"category"`
	Date        core.Date     `json:"date"`
	Description string        `json:"description"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ExpenseID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing required expense fields")
		return
	}

	e := core.Expense{
		ExpenseID:   req.ExpenseID,
		UserID:      req.UserID,
		Amount:      req.Amount,
		Category:    req.Category,
		Date:        req.Date,
		Description: req.Description,
	}
	if err := e.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.CreateExpense(r.Context(), e); err != nil {
		if errors.Is(err, core.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "Expense already exists")
			return
		}
		s.serverError(w, r, "Create expense failed", err)
		return
	}

	s.listCache.Delete(e.UserID)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.repo.GetExpense(r.Context(), r.PathValue("expenseId"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Expense not found")
			return
		}
		s.serverError(w, r, "Get expense failed", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	if list, ok := s.listCache.Get(userID); ok {
		writeJSON(w, http.StatusOK, list)
		return
	}

	list, err := s.repo.ListExpensesByUser(r.Context(), userID)
	if err != nil {
		s.serverError(w, r, "List expenses failed", err)
		return
	}
	s.listCache.Set(userID, list)
	writeJSON(w, http.StatusOK, list)
}

type updateExpenseRequest struct {
	UserID      string         `json:"userId"`
	Amount      *float64       `json:"amount"`
	Category    *core.Category `json:"category"`
	Date        *core.Date     `json:"date"`
	Description *string        `json:"description"`
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	expenseID := r.PathValue("expenseId")

	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := s.repo.GetExpense(r.Context(), expenseID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Expense not found")
			return
		}
		s.serverError(w, r, "Get expense failed", err)
		return
	}
	if req.UserID != e.UserID {
		writeError(w, http.StatusForbidden, "You can only modify your own expenses")
		return
	}

	if req.Amount != nil {
		e.Amount = *req.Amount
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.Date != nil {
		e.Date = *req.Date
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if err := e.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.UpdateExpense(r.Context(), e); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Expense not found")
			return
		}
		s.serverError(w, r, "Update expense failed", err)
		return
	}

	s.listCache.Delete(e.UserID)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID := r.PathValue("expenseId")

	e, err := s.repo.GetExpense(r.Context(), expenseID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Expense not found")
			return
		}
		s.serverError(w, r, "Get expense failed", err)
		return
	}
	if owner := r.URL.Query().Get("userId"); owner != "" && owner != e.UserID {
		writeError(w, http.StatusForbidden, "You can only delete your own expenses")
		return
	}

	if err := s.repo.DeleteExpense(r.Context(), expenseID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Expense not found")
			return
		}
		s.serverError(w, r, "Delete expense failed", err)
		return
	}

	s.listCache.Delete(e.UserID)
	w.WriteHeader(http.StatusNoContent)
}

type reportResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	list, err := s.repo.ListExpensesByUser(r.Context(), userID)
	if err != nil {
		s.serverError(w, r, "List expenses failed", err)
		return
	}
	if len(list) == 0 {
		writeError(w, http.StatusNotFound, "No expenses found for this user")
		return
	}

	url, err := s.reports.Generate(userID, list)
	if err != nil {
		s.serverError(w, r, "Generate report failed", err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{URL: url})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	path, fileName, ok := s.reports.Open(token)
	if !ok {
		writeError(w, http.StatusNotFound, "Download not found or expired")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	http.ServeFile(w, r, path)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), msg,
		log.FieldPath, r.URL.Path,
		log.FieldError, err.Error())
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

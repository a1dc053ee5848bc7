package expense

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/pantryledger/internal/expense/split"
	"github.com/fkhayef/pantryledger/pkg/middleware"
	"github.com/fkhayef/pantryledger/pkg/request"
	"github.com/fkhayef/pantryledger/pkg/response"
)

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints. Extensions register extra
// routes below /expenses owned by other features.
func (h *Handler) Routes(extensions ...func(chi.Router)) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireMember)
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Post("/{id}/cancel", h.Cancel)
		r.Delete("/{id}", h.Delete)
	})

	for _, extend := range extensions {
		extend(r)
	}

	return r
}

// ItemRoutes returns the router for expenses looked up by inventory item
func (h *Handler) ItemRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{itemId}/expenses", h.ListByItem)

	return r
}

// Create handles POST /households/{householdId}/expenses
// @Summary      Create a new expense
// @Description  Record a shared cost; entries are computed with the equal, shares, custom or payer strategy
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        X-Member-ID header string true "Acting member"
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /households/{householdId}/expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetMemberID(r.Context())

	var req CreateExpenseRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	e, err := h.service.CreateExpense(r.Context(), chi.URLParam(r, "householdId"), actorID, &req)
	if err != nil {
		h.writeError(w, r, err, "Failed to create expense")
		return
	}

	response.JSON(w, http.StatusCreated, e.ToResponse())
}

// GetByID handles GET /households/{householdId}/expenses/{id}
// @Summary      Get expense by ID
// @Description  Get an expense with its entries and outstanding amounts
// @Tags         expenses
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        id path string true "Expense ID"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /households/{householdId}/expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.GetExpense(r.Context(), chi.URLParam(r, "householdId"), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "Failed to get expense")
		return
	}

	response.JSON(w, http.StatusOK, e.ToResponse())
}

// List handles GET /households/{householdId}/expenses
// @Summary      List expenses
// @Description  Get a paginated list of a household's expenses, newest first
// @Tags         expenses
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        status query string false "Filter by status" Enums(open, partially_settled, cancelled)
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Router       /households/{householdId}/expenses [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	status := Status(r.URL.Query().Get("status"))

	switch status {
	case "", StatusOpen, StatusPartiallySettled, StatusCancelled:
	default:
		response.BadRequest(w, "Invalid status filter")
		return
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	expenses, total, err := h.service.ListExpenses(r.Context(), chi.URLParam(r, "householdId"), status, page, perPage)
	if err != nil {
		h.writeError(w, r, err, "Failed to list expenses")
		return
	}

	expenseResponses := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		expenseResponses[i] = e.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, expenseResponses, response.NewMeta(page, perPage, total))
}

// ListByItem handles GET /households/{householdId}/items/{itemId}/expenses
// @Summary      List expenses for an item
// @Description  Get every expense linked to an inventory item
// @Tags         expenses
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        itemId path string true "Item ID"
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Router       /households/{householdId}/items/{itemId}/expenses [get]
func (h *Handler) ListByItem(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.service.ListExpensesByItem(r.Context(), chi.URLParam(r, "householdId"), chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeError(w, r, err, "Failed to list expenses")
		return
	}

	expenseResponses := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		expenseResponses[i] = e.ToResponse()
	}

	response.JSON(w, http.StatusOK, expenseResponses)
}

// Update handles PATCH /households/{householdId}/expenses/{id}
// @Summary      Update an expense
// @Description  Partially update an expense; split changes are refused once payments were applied
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        id path string true "Expense ID"
// @Param        X-Member-ID header string true "Acting member"
// @Param        request body UpdateExpenseRequest true "Fields to change"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /households/{householdId}/expenses/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetMemberID(r.Context())

	var req UpdateExpenseRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	e, err := h.service.UpdateExpense(r.Context(), chi.URLParam(r, "householdId"), chi.URLParam(r, "id"), actorID, &req)
	if err != nil {
		h.writeError(w, r, err, "Failed to update expense")
		return
	}

	response.JSON(w, http.StatusOK, e.ToResponse())
}

// Cancel handles POST /households/{householdId}/expenses/{id}/cancel
// @Summary      Cancel an expense
// @Description  Mark an expense cancelled; it stays on record but no longer affects balances
// @Tags         expenses
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        id path string true "Expense ID"
// @Param        X-Member-ID header string true "Acting member"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /households/{householdId}/expenses/{id}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetMemberID(r.Context())

	e, err := h.service.CancelExpense(r.Context(), chi.URLParam(r, "householdId"), chi.URLParam(r, "id"), actorID)
	if err != nil {
		h.writeError(w, r, err, "Failed to cancel expense")
		return
	}

	response.JSON(w, http.StatusOK, e.ToResponse())
}

// Delete handles DELETE /households/{householdId}/expenses/{id}
// @Summary      Delete an expense
// @Description  Delete an expense (only if no payments were applied to it)
// @Tags         expenses
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        id path string true "Expense ID"
// @Param        X-Member-ID header string true "Acting member"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /households/{householdId}/expenses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetMemberID(r.Context())

	if err := h.service.DeleteExpense(r.Context(), chi.URLParam(r, "householdId"), chi.URLParam(r, "id"), actorID); err != nil {
		h.writeError(w, r, err, "Failed to delete expense")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, split.ErrInvalidSplitInput):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrExpenseHasSettlements), errors.Is(err, ErrExpenseCancelled):
		response.Conflict(w, err.Error())
	default:
		middleware.GetLogger(r.Context()).Warn(fallback, "error", err)
		response.FromError(w, err, fallback)
	}
}

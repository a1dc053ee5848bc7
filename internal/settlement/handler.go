package settlement

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/pantryledger/internal/expense"
	"github.com/fkhayef/pantryledger/pkg/middleware"
	"github.com/fkhayef/pantryledger/pkg/request"
	"github.com/fkhayef/pantryledger/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterExpenseRoutes adds the payment endpoint to the expense router
func (h *Handler) RegisterExpenseRoutes(r chi.Router) {
	r.With(middleware.RequireMember).Post("/{id}/payments", h.RecordPayment)
}

// SettlementRoutes returns the router for batch settlements
func (h *Handler) SettlementRoutes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.RequireMember).Post("/", h.SettleAll)

	return r
}

// PaymentRoutes returns the router for the payment history
func (h *Handler) PaymentRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPayments)

	return r
}

// RecordPayment handles POST /households/{householdId}/expenses/{id}/payments
// @Summary      Record a payment
// @Description  Apply a payment from a participant to the expense payer. Overpayment is rejected; a payment that clears the last outstanding entry deletes the expense.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        id path string true "Expense ID"
// @Param        X-Member-ID header string true "Acting member"
// @Param        request body RecordPaymentRequest true "Payment"
// @Success      201 {object} response.APIResponse{data=RecordPaymentResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /households/{householdId}/expenses/{id}/payments [post]
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetMemberID(r.Context())

	var req RecordPaymentRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	from := strings.TrimSpace(req.From)
	if from == "" {
		from = actorID
	}

	res, err := h.service.RecordPayment(r.Context(), chi.URLParam(r, "householdId"), chi.URLParam(r, "id"), from, req.AmountCents, actorID)
	if err != nil {
		h.writeError(w, r, err, "Failed to record payment")
		return
	}

	response.JSON(w, http.StatusCreated, res.ToResponse())
}

// SettleAll handles POST /households/{householdId}/settlements
// @Summary      Mark all paid
// @Description  Pay off every outstanding entry one member owes another. Each expense is settled on its own and reported in the outcome list.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        X-Member-ID header string true "Acting member"
// @Param        request body SettleAllRequest true "Members to settle"
// @Success      200 {object} response.APIResponse{data=SettleAllResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /households/{householdId}/settlements [post]
func (h *Handler) SettleAll(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetMemberID(r.Context())

	var req SettleAllRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	from := strings.TrimSpace(req.From)
	if from == "" {
		from = actorID
	}
	to := strings.TrimSpace(req.To)

	outcomes, err := h.service.SettleAll(r.Context(), chi.URLParam(r, "householdId"), from, to, actorID)
	if err != nil {
		h.writeError(w, r, err, "Failed to settle expenses")
		return
	}

	response.JSON(w, http.StatusOK, newSettleAllResponse(from, to, outcomes))
}

// ListPayments handles GET /households/{householdId}/payments
// @Summary      List payments
// @Description  Get the household's payment history, newest first
// @Tags         settlements
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        member query string false "Only payments sent or received by this member"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]PaymentResponse}
// @Router       /households/{householdId}/payments [get]
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	member := strings.TrimSpace(r.URL.Query().Get("member"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	payments, total, err := h.service.ListPayments(r.Context(), chi.URLParam(r, "householdId"), member, page, perPage)
	if err != nil {
		h.writeError(w, r, err, "Failed to list payments")
		return
	}

	paymentResponses := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		paymentResponses[i] = p.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, paymentResponses, response.NewMeta(page, perPage, total))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, expense.ErrExpenseCancelled), errors.Is(err, ErrExpenseNotActive):
		response.Conflict(w, err.Error())
	default:
		middleware.GetLogger(r.Context()).Warn(fallback, "error", err)
		response.FromError(w, err, fallback)
	}
}

package balance

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/pantryledger/pkg/middleware"
	"github.com/fkhayef/pantryledger/pkg/response"
)

// Handler handles HTTP requests for balances
type Handler struct {
	service *Service
}

// NewHandler creates a new balance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for balance endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Get)

	return r
}

// Get handles GET /households/{householdId}/balances
// @Summary      Get balances
// @Description  Net balance between the viewer and every other member; positive amounts are owed to the viewer
// @Tags         balances
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        viewer query string false "Member to compute balances for (defaults to X-Member-ID)"
// @Param        X-Member-ID header string false "Acting member"
// @Success      200 {object} response.APIResponse{data=Summary}
// @Failure      400 {object} response.APIResponse
// @Router       /households/{householdId}/balances [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	viewer := strings.TrimSpace(r.URL.Query().Get("viewer"))
	if viewer == "" {
		viewer, _ = middleware.GetMemberID(r.Context())
	}
	if viewer == "" {
		response.BadRequest(w, "viewer query parameter or "+middleware.MemberIDHeader+" header required")
		return
	}

	summary, err := h.service.Balances(r.Context(), chi.URLParam(r, "householdId"), viewer)
	if err != nil {
		middleware.GetLogger(r.Context()).Warn("Failed to compute balances", "error", err)
		response.FromError(w, err, "Failed to compute balances")
		return
	}

	response.JSON(w, http.StatusOK, summary)
}

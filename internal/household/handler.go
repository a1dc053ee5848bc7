package household

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/pantryledger/pkg/middleware"
	"github.com/fkhayef/pantryledger/pkg/response"
)

// Handler handles HTTP requests for the member directory
type Handler struct {
	service *Service
}

// NewHandler creates a new household handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for member endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListMembers)
	r.Get("/{memberId}", h.GetMember)

	return r
}

// ListMembers handles GET /households/{householdId}/members
// @Summary      List household members
// @Description  List the member directory of a household
// @Tags         households
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Success      200 {object} response.APIResponse{data=[]Member}
// @Router       /households/{householdId}/members [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	householdID := chi.URLParam(r, "householdId")

	members, err := h.service.ListMembers(r.Context(), householdID)
	if err != nil {
		middleware.GetLogger(r.Context()).Error("failed to list members", "error", err, "household_id", householdID)
		response.ServiceUnavailable(w, "Failed to list members")
		return
	}

	response.JSON(w, http.StatusOK, members)
}

// GetMember handles GET /households/{householdId}/members/{memberId}
// @Summary      Get a household member
// @Tags         households
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        memberId path string true "Member ID"
// @Success      200 {object} response.APIResponse{data=Member}
// @Failure      404 {object} response.APIResponse
// @Router       /households/{householdId}/members/{memberId} [get]
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetMember(r.Context(), chi.URLParam(r, "householdId"), chi.URLParam(r, "memberId"))
	if err != nil {
		response.FromError(w, err, "Failed to get member")
		return
	}

	response.JSON(w, http.StatusOK, m)
}

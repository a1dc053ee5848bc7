package notification

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/pantryledger/pkg/middleware"
	"github.com/fkhayef/pantryledger/pkg/response"
)

// Handler handles HTTP requests for ledger events
type Handler struct {
	service *Service
}

// NewHandler creates a new event handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for event endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Poll)

	return r
}

// EventResponse represents one ledger event
type EventResponse struct {
	ID        string    `json:"id"`
	Type      EventType `json:"event_type"`
	ExpenseID *string   `json:"expense_id,omitempty"`
	PaymentID *string   `json:"payment_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	CreatedAt string    `json:"created_at"`
}

// PollResponse is a page of events plus the cursor for the next poll
type PollResponse struct {
	Events    []*EventResponse `json:"events"`
	NextSince string           `json:"next_since"`
}

func toResponse(e *Event) *EventResponse {
	return &EventResponse{
		ID:        e.ID.String(),
		Type:      e.Type,
		ExpenseID: e.ExpenseID,
		PaymentID: e.PaymentID,
		ActorID:   e.ActorID,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Poll handles GET /households/{householdId}/events
// @Summary      Poll ledger events
// @Description  Events newer than the since cursor, oldest first. Pass next_since back as since to continue.
// @Tags         events
// @Produce      json
// @Param        householdId path string true "Household ID"
// @Param        since query string false "RFC3339 timestamp; defaults to the beginning of time"
// @Param        limit query int false "Maximum events to return" default(100)
// @Success      200 {object} response.APIResponse{data=PollResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /households/{householdId}/events [get]
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			response.BadRequest(w, "since must be an RFC3339 timestamp")
			return
		}
		since = parsed
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.service.Poll(r.Context(), chi.URLParam(r, "householdId"), since, limit)
	if err != nil {
		if errors.Is(err, ErrInvalidCursor) {
			response.BadRequest(w, err.Error())
			return
		}
		middleware.GetLogger(r.Context()).Warn("Failed to poll events", "error", err)
		response.FromError(w, err, "Failed to poll events")
		return
	}

	resp := &PollResponse{
		Events:    make([]*EventResponse, len(events)),
		NextSince: since.UTC().Format(time.RFC3339Nano),
	}
	for i, e := range events {
		resp.Events[i] = toResponse(e)
	}
	if n := len(events); n > 0 {
		resp.NextSince = events[n-1].CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	response.JSON(w, http.StatusOK, resp)
}

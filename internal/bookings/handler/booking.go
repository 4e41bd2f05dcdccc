package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"beroepsbelg/internal/auth"
	"beroepsbelg/internal/bookings/repository"
	"beroepsbelg/internal/bookings/service"
	"beroepsbelg/pkg/brussels"
	apperrors "beroepsbelg/pkg/errors"
	httputil "beroepsbelg/pkg/http"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var input model.BookingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
			Code:  apperrors.CodeInvalidInput,
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking := input.Booking()
	if err := h.service.Create(r.Context(), booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

// GetByID serves admins and the guides the booking was offered to.
func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal := auth.FromContext(r.Context())
	if principal == nil {
		h.writeError(w, "GetByID", apperrors.Forbidden("Authentication required"))
		return
	}

	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	booking, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if !principal.IsAdmin && !visibleToGuide(booking, principal) {
		h.writeError(w, "GetByID", apperrors.Forbidden("Booking is not assigned to you"))
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// GetAll lists bookings. Guides only ever see their own bookings.
func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal := auth.FromContext(r.Context())
	if principal == nil || (!principal.IsAdmin && principal.GuideID == nil) {
		h.writeError(w, "GetAll", apperrors.Forbidden("Authentication required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	if !principal.IsAdmin {
		filter.GuideID = principal.GuideID
	}

	bookings, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var updates model.BookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
			Code:  apperrors.CodeInvalidInput,
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.Update(r.Context(), id, &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id", h.Update)
	router.DELETE("/api/v1/bookings/id/:id", h.Delete)
}

func visibleToGuide(b *model.Booking, p *auth.Principal) bool {
	if p.GuideID == nil {
		return false
	}
	return b.IsAssigned(*p.GuideID) || slices.Contains(b.GuideIDs, *p.GuideID)
}

// parseFilter reads status, guide_id and the from/to day window. Days are
// Brussels calendar days; to is inclusive.
func parseFilter(r *http.Request) (repository.Filter, error) {
	query := r.URL.Query()
	var filter repository.Filter

	if status := query.Get("status"); status != "" {
		s := model.BookingStatus(status)
		switch s {
		case model.BookingQuotePending, model.BookingPendingGuideConfirmation, model.BookingConfirmed,
			model.BookingCompleted, model.BookingCancelled:
			filter.Status = s
		default:
			return filter, apperrors.InvalidInput("invalid status parameter: " + status)
		}
	}

	guideID, err := httputil.QueryID(r, "guide_id")
	if err != nil {
		return filter, err
	}
	filter.GuideID = guideID

	if from := query.Get("from"); from != "" {
		t, err := brussels.ParseLocal(from)
		if err != nil {
			return filter, apperrors.InvalidInput("invalid from parameter, expected YYYY-MM-DD: " + from)
		}
		start := brussels.StartOfDay(t)
		filter.From = &start
	}
	if to := query.Get("to"); to != "" {
		t, err := brussels.ParseLocal(to)
		if err != nil {
			return filter, apperrors.InvalidInput("invalid to parameter, expected YYYY-MM-DD: " + to)
		}
		end := brussels.StartOfDay(brussels.StartOfDay(t).Add(36 * time.Hour))
		filter.To = &end
	}

	return filter, nil
}

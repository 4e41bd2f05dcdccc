package handler

import (
	"encoding/json"
	"net/http"

	"beroepsbelg/internal/assignments/service"
	"beroepsbelg/internal/auth"
	apperrors "beroepsbelg/pkg/errors"
	httputil "beroepsbelg/pkg/http"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type offerRequest struct {
	GuideIDs []model.FlexibleID `json:"guide_ids"`
}

type tokenResponseRequest struct {
	Token  string `json:"token"`
	Action string `json:"action"`
}

type AssignmentHandler struct {
	service    service.AssignmentService
	log        *logger.Logger
	tokenGuard func(http.Handler) http.Handler
}

func NewAssignmentHandler(service service.AssignmentService, log *logger.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		log:     log,
	}
}

func (h *AssignmentHandler) Offer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "Offer", err)
		return
	}

	bookingID, err := httputil.ParamID(ps, "id")
	if err != nil {
		h.writeError(w, "Offer", err)
		return
	}

	var req offerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Offer", apperrors.InvalidInput("guide_ids must be a list of guide ids"))
		return
	}

	ids := make([]int64, 0, len(req.GuideIDs))
	for _, id := range req.GuideIDs {
		ids = append(ids, int64(id))
	}

	result, err := h.service.Offer(r.Context(), bookingID, ids)
	if err != nil {
		h.writeError(w, "Offer", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Offer", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AssignmentHandler) Accept(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.respond(w, r, ps, service.ActionAccept)
}

func (h *AssignmentHandler) Decline(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.respond(w, r, ps, service.ActionDecline)
}

func (h *AssignmentHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.respond(w, r, ps, service.ActionCancel)
}

func (h *AssignmentHandler) respond(w http.ResponseWriter, r *http.Request, ps httprouter.Params, action service.Action) {
	handler := "Respond"

	// Anonymous callers are turned away before the path is looked at.
	if err := auth.RequireAuthenticated(r.Context()); err != nil {
		h.writeError(w, handler, err)
		return
	}

	bookingID, err := httputil.ParamID(ps, "id")
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	guideID, err := httputil.ParamID(ps, "guideId")
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := auth.RequireGuideOrAdmin(r.Context(), guideID); err != nil {
		h.writeError(w, handler, err)
		return
	}

	booking, err := h.service.Respond(r.Context(), bookingID, guideID, action)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

// RespondWithToken handles the accept and decline links sent with an offer.
func (h *AssignmentHandler) RespondWithToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req tokenResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		h.writeError(w, "RespondWithToken", apperrors.InvalidInput("token and action are required"))
		return
	}

	action, err := service.ParseAction(req.Action)
	if err != nil {
		h.writeError(w, "RespondWithToken", apperrors.InvalidInput("action must be accept or decline"))
		return
	}

	booking, err := h.service.RespondWithToken(r.Context(), req.Token, action)
	if err != nil {
		h.writeError(w, "RespondWithToken", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{
		"booking_id": booking.ID,
		"status":     booking.Status,
		"action":     action,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "RespondWithToken", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AssignmentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// GuardTokenRoute wraps the token route, typically with signature verification
// for links relayed by an automation platform.
func (h *AssignmentHandler) GuardTokenRoute(mw func(http.Handler) http.Handler) {
	h.tokenGuard = mw
}

func (h *AssignmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings/id/:id/offers", h.Offer)
	router.POST("/api/v1/bookings/id/:id/guides/:guideId/accept", h.Accept)
	router.POST("/api/v1/bookings/id/:id/guides/:guideId/decline", h.Decline)
	router.POST("/api/v1/bookings/id/:id/guides/:guideId/cancel", h.Cancel)

	var tokenRoute http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.RespondWithToken(w, r, nil)
	})
	if h.tokenGuard != nil {
		tokenRoute = h.tokenGuard(tokenRoute)
	}
	router.Handler(http.MethodPost, "/api/v1/guide-responses", tokenRoute)
}

package handler

import (
	"encoding/json"
	"net/http"

	"beroepsbelg/internal/auth"
	"beroepsbelg/internal/guides/service"
	httputil "beroepsbelg/pkg/http"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type GuideHandler struct {
	service service.GuideService
	log     *logger.Logger
}

func NewGuideHandler(service service.GuideService, log *logger.Logger) *GuideHandler {
	return &GuideHandler{
		service: service,
		log:     log,
	}
}

func (h *GuideHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var guide model.Guide
	if err := json.NewDecoder(r.Body).Decode(&guide); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &guide); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, guide); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *GuideHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	guide, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, guide); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *GuideHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	guides, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, guides, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *GuideHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var updates model.GuideUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Update(r.Context(), id, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *GuideHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

func (h *GuideHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *GuideHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/guides", h.Create)
	router.GET("/api/v1/guides", h.GetAll)
	router.GET("/api/v1/guides/id/:id", h.GetByID)
	router.PATCH("/api/v1/guides/id/:id", h.Update)
	router.DELETE("/api/v1/guides/id/:id", h.Delete)
}

package handler

import (
	"errors"
	"net/http"

	"beroepsbelg/internal/aftercare/service"
	"beroepsbelg/internal/auth"
	apperrors "beroepsbelg/pkg/errors"
	httputil "beroepsbelg/pkg/http"
	"beroepsbelg/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const (
	photoField = "photo"

	// multipartMemory is how much of an upload is buffered in memory before
	// spilling to a temporary file.
	multipartMemory = 8 << 20
)

type AftercareHandler struct {
	service      service.AftercareService
	maxPhotoSize int64
	log          *logger.Logger
}

func NewAftercareHandler(service service.AftercareService, maxPhotoSize int64, log *logger.Logger) *AftercareHandler {
	return &AftercareHandler{
		service:      service,
		maxPhotoSize: maxPhotoSize,
		log:          log,
	}
}

func (h *AftercareHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		h.writeError(w, "Complete", err)
		return
	}

	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		h.writeError(w, "Complete", err)
		return
	}

	booking, err := h.service.Complete(r.Context(), id)
	if err != nil {
		h.writeError(w, "Complete", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Complete", "operation", "WriteSuccess", "error", err)
	}
}

// UploadPhoto accepts one image in the "photo" form field from an admin or the
// guide assigned to the booking.
func (h *AftercareHandler) UploadPhoto(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal := auth.FromContext(r.Context())
	var uploader *int64
	switch {
	case principal == nil:
		h.writeError(w, "UploadPhoto", apperrors.Forbidden("Authentication required"))
		return
	case principal.IsAdmin:
	case principal.GuideID != nil:
		uploader = principal.GuideID
	default:
		h.writeError(w, "UploadPhoto", apperrors.Forbidden("Only guides and admins can upload photos"))
		return
	}

	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		h.writeError(w, "UploadPhoto", err)
		return
	}

	if r.ContentLength > h.maxPhotoSize {
		h.writeError(w, "UploadPhoto", apperrors.TooLarge("Photo exceeds the maximum upload size"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxPhotoSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "UploadPhoto", apperrors.TooLarge("Photo exceeds the maximum upload size"))
			return
		}
		h.writeError(w, "UploadPhoto", apperrors.InvalidInput("Expected a multipart form with a photo field"))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.log.Warn("failed to remove multipart temp files", "handler", "UploadPhoto", "error", err)
		}
	}()

	file, _, err := r.FormFile(photoField)
	if err != nil {
		h.writeError(w, "UploadPhoto", apperrors.InvalidInput("photo is required"))
		return
	}
	defer file.Close()

	result, err := h.service.UploadPhoto(r.Context(), id, uploader, file)
	if err != nil {
		h.writeError(w, "UploadPhoto", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "UploadPhoto", "operation", "WriteCreated", "error", err)
	}
}

func (h *AftercareHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AftercareHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings/id/:id/complete", h.Complete)
	router.POST("/api/v1/bookings/id/:id/photos", h.UploadPhoto)
}

package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-verify/internal/constants"
	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/recognition"
	"go.uber.org/zap"
)

// Enroller manages enrollments.
type Enroller interface {
	Enroll(ctx context.Context, identityKey string, photo []byte) (*recognition.EnrollResult, error)
	Lookup(ctx context.Context, identityKey string) (*database.EnrollmentRecord, error)
	Delete(ctx context.Context, identityKey string) error
}

// EnrollmentsHandler handles enrollment endpoints.
type EnrollmentsHandler struct {
	enroller Enroller
	logger   *zap.Logger
}

// NewEnrollmentsHandler creates a new enrollments handler.
func NewEnrollmentsHandler(e Enroller, logger *zap.Logger) *EnrollmentsHandler {
	return &EnrollmentsHandler{enroller: e, logger: logger}
}

// EnrollmentResponse describes a stored enrollment without its embedding.
type EnrollmentResponse struct {
	IdentityKey string    `json:"identity_key"`
	HasPhoto    bool      `json:"has_photo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Create enrolls a photo sent as multipart fields identity_key and image.
// A photo refused by the quality gate yields 422 with the verdict.
func (h *EnrollmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	identityKey := r.FormValue("identity_key")
	if identityKey == "" {
		respondError(w, http.StatusBadRequest, "identity_key is required")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	photo, err := io.ReadAll(io.LimitReader(file, constants.MaxUploadSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if len(photo) > constants.MaxUploadSize {
		respondError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	res, err := h.enroller.Enroll(r.Context(), identityKey, photo)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if !res.Enrolled {
		respondJSON(w, http.StatusUnprocessableEntity, res)
		return
	}

	status := http.StatusCreated
	if res.Replaced {
		status = http.StatusOK
	}
	respondJSON(w, status, res)
}

// Get returns enrollment metadata.
func (h *EnrollmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.enroller.Lookup(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, EnrollmentResponse{
		IdentityKey: rec.IdentityKey,
		HasPhoto:    rec.PhotoPath != "",
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	})
}

// Delete removes an enrollment.
func (h *EnrollmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.enroller.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-verify/internal/recognition"
	"github.com/kozaktomas/face-verify/internal/web/middleware"
	"go.uber.org/zap"
)

// Verifier runs frames through the recognition pipeline.
type Verifier interface {
	Verify(ctx context.Context, req recognition.VerifyRequest) (*recognition.VerifyResult, error)
	Dismiss(sessionID string)
}

// VerifyHandler handles verification and streaming session endpoints.
type VerifyHandler struct {
	verifier Verifier
	logger   *zap.Logger
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(v Verifier, logger *zap.Logger) *VerifyHandler {
	return &VerifyHandler{verifier: v, logger: logger}
}

// Verify checks one frame. Business outcomes, including quality rejections,
// are reported with 200 and a reason code.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	req := recognition.VerifyRequest{
		Mode:      recognition.ModeSingle,
		SessionID: middleware.GetSessionFromContext(r.Context()),
	}

	switch mode := r.URL.Query().Get("mode"); mode {
	case "", string(recognition.ModeSingle):
	case string(recognition.ModeStream):
		req.Mode = recognition.ModeStream
	default:
		respondError(w, http.StatusBadRequest, "mode must be single or stream")
		return
	}

	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || !(threshold >= 0 && threshold <= 1) {
			respondError(w, http.StatusBadRequest, recognition.ErrInvalidThreshold.Error())
			return
		}
		req.Threshold = &threshold
	}

	image, err := readImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Image = image

	res, err := h.verifier.Verify(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// DismissSession clears the voting window of a streaming session.
func (h *VerifyHandler) DismissSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "session id is required")
		return
	}
	h.verifier.Dismiss(id)
	h.logger.Debug("session dismissed", zap.String("session_id", sanitizeForLog(id)))
	w.WriteHeader(http.StatusNoContent)
}

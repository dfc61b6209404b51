package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-verify/internal/constants"
	"github.com/kozaktomas/face-verify/internal/embedding"
	"github.com/kozaktomas/face-verify/internal/recognition"
	"go.uber.org/zap"
)

// errInvalidRequestBody is a shared error message for invalid request bodies.
const errInvalidRequestBody = "invalid request body"

// errInternal is the only message clients see for server side failures.
const errInternal = "internal error"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps pipeline errors to status codes. Anything not
// caused by the request is logged and reported as an opaque internal error.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, recognition.ErrInvalidIdentityKey),
		errors.Is(err, recognition.ErrInvalidThreshold),
		errors.Is(err, recognition.ErrSessionRequired):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, recognition.ErrInvalidImage), errors.Is(err, embedding.ErrEmptyImage):
		respondError(w, http.StatusBadRequest, recognition.ErrInvalidImage.Error())
	case errors.Is(err, recognition.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, errInternal)
	}
}

type imageBody struct {
	Image string `json:"image"`
}

// readImage extracts the image from a multipart "image" field or from a JSON
// body carrying base64 or a data URL.
func readImage(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
			return nil, errors.New("failed to parse multipart form")
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, errors.New("image is required")
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, constants.MaxUploadSize+1))
		if err != nil {
			return nil, errors.New("failed to read image")
		}
		if len(data) > constants.MaxUploadSize {
			return nil, errors.New("image too large")
		}
		return data, nil
	}

	var body imageBody
	if err := json.NewDecoder(io.LimitReader(r.Body, constants.MaxJSONBodySize)).Decode(&body); err != nil {
		return nil, errors.New(errInvalidRequestBody)
	}
	if body.Image == "" {
		return nil, errors.New("image is required")
	}
	data, err := embedding.DecodeBase64(body.Image)
	if err != nil {
		return nil, errors.New("image must be base64 encoded")
	}
	return data, nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/quality"
	"github.com/kozaktomas/face-verify/internal/recognition"
	"go.uber.org/zap"
)

func TestEnrollmentsHandler_Create(t *testing.T) {
	tests := []struct {
		name   string
		result *recognition.EnrollResult
		err    error
		status int
	}{
		{"new enrollment", &recognition.EnrollResult{Enrolled: true, IdentityKey: "12345678"}, nil, http.StatusCreated},
		{"replaced enrollment", &recognition.EnrollResult{Enrolled: true, Replaced: true, IdentityKey: "12345678"}, nil, http.StatusOK},
		{"quality rejection", &recognition.EnrollResult{IdentityKey: "12345678", Verdict: quality.Verdict{Reason: quality.ReasonBlurry}}, nil, http.StatusUnprocessableEntity},
		{"invalid key", nil, recognition.ErrInvalidIdentityKey, http.StatusBadRequest},
		{"store failure", nil, errors.New("pq: deadlock"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enroller := &fakeEnroller{result: tt.result, err: tt.err}
			handler := NewEnrollmentsHandler(enroller, zap.NewNop())

			img := pngBytes(t)
			req := multipartRequest(t, http.MethodPost, "/api/v1/enrollments", map[string]string{"identity_key": "12345678"}, img)
			recorder := httptest.NewRecorder()
			handler.Create(recorder, req)

			assertStatusCode(t, recorder, tt.status)
			if enroller.lastKey != "12345678" {
				t.Errorf("expected key 12345678, got %q", enroller.lastKey)
			}
			if len(enroller.lastPhoto) != len(img) {
				t.Errorf("expected %d photo bytes, got %d", len(img), len(enroller.lastPhoto))
			}
		})
	}
}

func TestEnrollmentsHandler_Create_QualityVerdict(t *testing.T) {
	verdict := quality.Verdict{Reason: quality.ReasonPoseExtreme, Hint: "look straight at the camera"}
	handler := NewEnrollmentsHandler(&fakeEnroller{result: &recognition.EnrollResult{Verdict: verdict}}, zap.NewNop())

	req := multipartRequest(t, http.MethodPost, "/api/v1/enrollments", map[string]string{"identity_key": "12345678"}, pngBytes(t))
	recorder := httptest.NewRecorder()
	handler.Create(recorder, req)

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
	var body struct {
		Enrolled bool `json:"enrolled"`
		Quality  struct {
			Reason string `json:"reason_code"`
			Hint   string `json:"hint"`
		} `json:"quality"`
	}
	parseJSONResponse(t, recorder, &body)
	if body.Enrolled || body.Quality.Reason != "pose_extreme" || body.Quality.Hint == "" {
		t.Errorf("unexpected body %s", recorder.Body.String())
	}
}

func TestEnrollmentsHandler_Create_MissingFields(t *testing.T) {
	handler := NewEnrollmentsHandler(&fakeEnroller{}, zap.NewNop())

	req := multipartRequest(t, http.MethodPost, "/api/v1/enrollments", nil, pngBytes(t))
	recorder := httptest.NewRecorder()
	handler.Create(recorder, req)
	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "identity_key is required")

	req = multipartRequest(t, http.MethodPost, "/api/v1/enrollments", map[string]string{"identity_key": "12345678"}, nil)
	recorder = httptest.NewRecorder()
	handler.Create(recorder, req)
	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "image is required")

	req = httptest.NewRequest(http.MethodPost, "/api/v1/enrollments", nil)
	recorder = httptest.NewRecorder()
	handler.Create(recorder, req)
	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestEnrollmentsHandler_GetAndDelete(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	enroller := &fakeEnroller{records: map[string]*database.EnrollmentRecord{
		"12345678": {IdentityKey: "12345678", Embedding: []float32{1, 0}, PhotoPath: "/data/photos/12345678.jpg", CreatedAt: created, UpdatedAt: created},
	}}
	handler := NewEnrollmentsHandler(enroller, zap.NewNop())

	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/v1/enrollments/12345678", nil), map[string]string{"key": "12345678"})
	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var body map[string]any
	parseJSONResponse(t, recorder, &body)
	if body["identity_key"] != "12345678" || body["has_photo"] != true {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["embedding"]; ok {
		t.Error("embedding must not be exposed")
	}

	req = requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/api/v1/enrollments/12345678", nil), map[string]string{"key": "12345678"})
	recorder = httptest.NewRecorder()
	handler.Delete(recorder, req)
	assertStatusCode(t, recorder, http.StatusNoContent)

	recorder = httptest.NewRecorder()
	handler.Delete(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)

	req = requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/v1/enrollments/12345678", nil), map[string]string{"key": "12345678"})
	recorder = httptest.NewRecorder()
	handler.Get(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)
}

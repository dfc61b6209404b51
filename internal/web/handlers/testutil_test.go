package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/recognition"
)

// fakeVerifier records the last request and returns a canned result
type fakeVerifier struct {
	result    *recognition.VerifyResult
	err       error
	last      recognition.VerifyRequest
	dismissed []string
}

func (f *fakeVerifier) Verify(ctx context.Context, req recognition.VerifyRequest) (*recognition.VerifyResult, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeVerifier) Dismiss(sessionID string) {
	f.dismissed = append(f.dismissed, sessionID)
}

// fakeEnroller serves enrollments from a map
type fakeEnroller struct {
	result    *recognition.EnrollResult
	err       error
	records   map[string]*database.EnrollmentRecord
	lastKey   string
	lastPhoto []byte
}

func (f *fakeEnroller) Enroll(ctx context.Context, identityKey string, photo []byte) (*recognition.EnrollResult, error) {
	f.lastKey = identityKey
	f.lastPhoto = photo
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeEnroller) Lookup(ctx context.Context, identityKey string) (*database.EnrollmentRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[identityKey]
	if !ok {
		return nil, recognition.ErrNotFound
	}
	return rec, nil
}

func (f *fakeEnroller) Delete(ctx context.Context, identityKey string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.records[identityKey]; !ok {
		return recognition.ErrNotFound
	}
	delete(f.records, identityKey)
	return nil
}

// fakeStats counts calls to Stats
type fakeStats struct {
	stats database.Stats
	err   error
	calls int
}

func (f *fakeStats) Stats(ctx context.Context) (database.Stats, error) {
	f.calls++
	return f.stats, f.err
}

// pngBytes returns a tiny valid PNG
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// multipartRequest builds a multipart request with the given fields and an optional image part
func multipartRequest(t *testing.T, method, path string, fields map[string]string, img []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if img != nil {
		part, err := mw.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(img)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

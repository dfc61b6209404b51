package recognition

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/database/mock"
	"github.com/kozaktomas/face-verify/internal/facematch"
	"github.com/kozaktomas/face-verify/internal/quality"
	"github.com/kozaktomas/face-verify/internal/voting"
	"github.com/stretchr/testify/require"
)

var testProfiles = quality.Profiles{
	Strict:  quality.Profile{MinDetScore: 0.7, MinFaceRatio: 0.05, MinBlurVariance: 100, MaxYawPx: 15, RejectMultiple: true},
	Lenient: quality.Profile{MinDetScore: 0.5, MinFaceRatio: 0.02, MinBlurVariance: 50, MaxYawPx: 25, RejectMultiple: true},
}

// fakeExtractor returns queued detections, one slice per call.
type fakeExtractor struct {
	mu    sync.Mutex
	queue [][]facematch.Detection
	err   error
	calls int
}

func (f *fakeExtractor) push(dets ...facematch.Detection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, dets)
}

func (f *fakeExtractor) DetectFaces(ctx context.Context, imageData []byte) ([]facematch.Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.queue) == 0 {
		return nil, nil
	}
	dets := f.queue[0]
	f.queue = f.queue[1:]
	return dets, nil
}

type fixture struct {
	svc       *Service
	extractor *fakeExtractor
	store     *mock.MockEnrollmentStore
	audit     *mock.MockAuditLog
	index     *database.HNSWIndex
	photosDir string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := mock.NewMockEnrollmentStore()
	audit := mock.NewMockAuditLog(store)
	extractor := &fakeExtractor{}
	index := database.NewHNSWIndex()
	dir := t.TempDir()

	if opts.Threshold == 0 {
		opts.Threshold = 0.55
	}
	if opts.TopK == 0 {
		opts.TopK = 5
	}

	svc := NewService(Deps{
		Extractor: extractor,
		Gate:      quality.NewGate(testProfiles, true),
		Store:     store,
		Audit:     audit,
		Stats:     audit,
		Votes:     voting.NewStore(voting.DefaultSize, voting.DefaultMinVotes, time.Minute),
		Index:     index,
		Photos:    NewPhotoStore(dir),
	}, opts)

	return &fixture{svc: svc, extractor: extractor, store: store, audit: audit, index: index, photosDir: dir}
}

// testFrame is a sharp 100x100 PNG.
func testFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := range 100 {
		for x := range 100 {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// faceWith builds a well-framed detection carrying emb, with the nose offset by yaw pixels.
func faceWith(emb []float32, yaw float64) facematch.Detection {
	return facematch.Detection{
		BBox:       facematch.BBox{20, 20, 80, 80},
		Confidence: 0.95,
		Embedding:  emb,
		Landmarks: &facematch.Landmarks{
			LeftEye:  facematch.Point{X: 40, Y: 40},
			RightEye: facematch.Point{X: 60, Y: 40},
			Nose:     facematch.Point{X: 50 + yaw, Y: 55},
		},
	}
}

// unitAt returns a 2-d unit vector with cosine sim to [1, 0].
func unitAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func enrollDirect(f *fixture, key string, emb []float32) {
	f.store.AddEnrollment(database.EnrollmentRecord{IdentityKey: key, Embedding: emb})
	f.svc.snapshot.Invalidate()
}

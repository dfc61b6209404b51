package recognition

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/facematch"
	"github.com/kozaktomas/face-verify/internal/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photoFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestEnroll_Success(t *testing.T) {
	f := newFixture(t, Options{})
	f.extractor.push(faceWith([]float32{1, 0}, 0))

	res, err := f.svc.Enroll(context.Background(), " 12345678 ", testFrame(t))
	require.NoError(t, err)
	assert.True(t, res.Enrolled)
	assert.False(t, res.Replaced)
	assert.Equal(t, "12345678", res.IdentityKey)
	assert.True(t, res.Verdict.Passed)
	assert.Equal(t, quality.ReasonOK, res.Verdict.Reason)

	require.NotEmpty(t, res.PhotoPath)
	assert.Equal(t, f.photosDir, filepath.Dir(res.PhotoPath))
	assert.FileExists(t, res.PhotoPath)
	assert.Equal(t, ".png", filepath.Ext(res.PhotoPath))

	rec, err := f.svc.Lookup(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, rec.Embedding)
	assert.Equal(t, res.PhotoPath, rec.PhotoPath)
	assert.Equal(t, 1, f.index.Len())
}

func TestEnroll_FullWidthKey(t *testing.T) {
	f := newFixture(t, Options{})
	f.extractor.push(faceWith([]float32{1, 0}, 0))

	res, err := f.svc.Enroll(context.Background(), "１２３４５６７８", testFrame(t))
	require.NoError(t, err)
	assert.Equal(t, "12345678", res.IdentityKey)

	enrolled, err := f.svc.IsEnrolled(context.Background(), "12345678")
	require.NoError(t, err)
	assert.True(t, enrolled)
}

func TestEnroll_ReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	frame := testFrame(t)

	f.extractor.push(faceWith([]float32{1, 0}, 0))
	first, err := f.svc.Enroll(ctx, "12345678", frame)
	require.NoError(t, err)

	f.extractor.push(faceWith([]float32{0, 1}, 0))
	second, err := f.svc.Enroll(ctx, "12345678", frame)
	require.NoError(t, err)
	assert.True(t, second.Replaced)
	assert.NotEqual(t, first.PhotoPath, second.PhotoPath)

	n, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := f.svc.Lookup(ctx, "12345678")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, rec.Embedding)

	assert.NoFileExists(t, first.PhotoPath)
	assert.FileExists(t, second.PhotoPath)
	assert.Len(t, photoFiles(t, f.photosDir), 1)

	// the snapshot sees the new embedding immediately
	f.extractor.push(faceWith([]float32{0, 1}, 0))
	v, err := f.svc.Verify(ctx, VerifyRequest{Image: frame})
	require.NoError(t, err)
	assert.True(t, v.Accepted)
	assert.Equal(t, "12345678", v.IdentityKey)
}

func TestEnroll_QualityRejection(t *testing.T) {
	tests := []struct {
		name   string
		dets   []facematch.Detection
		reason quality.Reason
	}{
		{"no face", nil, quality.ReasonNoFace},
		{"pose", []facematch.Detection{faceWith([]float32{1, 0}, 20)}, quality.ReasonPoseExtreme},
		{"multiple faces", []facematch.Detection{faceWith([]float32{1, 0}, 0), faceWith([]float32{0, 1}, 0)}, quality.ReasonMultipleFaces},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.extractor.push(tt.dets...)

			res, err := f.svc.Enroll(context.Background(), "12345678", testFrame(t))
			require.NoError(t, err)
			assert.False(t, res.Enrolled)
			assert.False(t, res.Verdict.Passed)
			assert.Equal(t, tt.reason, res.Verdict.Reason)
			assert.NotEmpty(t, res.Verdict.Hint)

			n, err := f.store.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
			assert.Empty(t, photoFiles(t, f.photosDir))
		})
	}
}

func TestEnroll_UpsertFailureRemovesPhoto(t *testing.T) {
	f := newFixture(t, Options{})
	f.store.UpsertError = errors.New("constraint violation")
	f.extractor.push(faceWith([]float32{1, 0}, 0))

	_, err := f.svc.Enroll(context.Background(), "12345678", testFrame(t))
	require.Error(t, err)
	assert.Empty(t, photoFiles(t, f.photosDir))
	assert.Zero(t, f.index.Len())
}

func TestEnroll_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid key", func(t *testing.T) {
		for _, key := range []string{"", "1234567", "1234567890123456", "12ab5678"} {
			f := newFixture(t, Options{})
			_, err := f.svc.Enroll(ctx, key, testFrame(t))
			assert.ErrorIs(t, err, ErrInvalidIdentityKey, key)
			assert.Equal(t, 0, f.extractor.calls)
		}
	})

	t.Run("invalid image", func(t *testing.T) {
		f := newFixture(t, Options{})
		_, err := f.svc.Enroll(ctx, "12345678", []byte{0xff, 0xd8, 0x00})
		assert.ErrorIs(t, err, ErrInvalidImage)
	})

	t.Run("missing embedding", func(t *testing.T) {
		f := newFixture(t, Options{})
		f.extractor.push(faceWith(nil, 0))
		_, err := f.svc.Enroll(ctx, "12345678", testFrame(t))
		assert.ErrorIs(t, err, ErrMissingEmbedding)
		assert.Empty(t, photoFiles(t, f.photosDir))
	})
}

func TestEnroll_Lookalikes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{LookalikeThreshold: 0.8})
	frame := testFrame(t)

	f.extractor.push(faceWith([]float32{1, 0}, 0))
	_, err := f.svc.Enroll(ctx, "10000001", frame)
	require.NoError(t, err)

	f.extractor.push(faceWith([]float32{0, 1}, 0))
	res, err := f.svc.Enroll(ctx, "10000002", frame)
	require.NoError(t, err)
	assert.Empty(t, res.Lookalikes)

	f.extractor.push(faceWith(unitAt(0.9), 0))
	res, err = f.svc.Enroll(ctx, "10000003", frame)
	require.NoError(t, err)
	require.Len(t, res.Lookalikes, 1)
	assert.Equal(t, "10000001", res.Lookalikes[0].IdentityKey)
	assert.InDelta(t, 0.9, res.Lookalikes[0].Similarity, 1e-6)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	frame := testFrame(t)

	f.extractor.push(faceWith([]float32{1, 0}, 0))
	enrolled, err := f.svc.Enroll(ctx, "12345678", frame)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, "12345678"))
	assert.NoFileExists(t, enrolled.PhotoPath)
	assert.Zero(t, f.index.Len())

	_, err = f.svc.Lookup(ctx, "12345678")
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.svc.Delete(ctx, "12345678")
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.svc.Delete(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidIdentityKey)

	f.extractor.push(faceWith([]float32{1, 0}, 0))
	v, err := f.svc.Verify(ctx, VerifyRequest{Image: frame})
	require.NoError(t, err)
	assert.Equal(t, "no_match", v.ReasonCode)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	enrollDirect(f, "10000001", []float32{1, 0})
	require.NoError(t, f.audit.Log(ctx, database.AuditEntry{Status: database.AuditNoMatch}))

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalEnrollments)
	assert.Equal(t, 1, st.TotalLogs)
}

func TestWarmUp(t *testing.T) {
	f := newFixture(t, Options{})
	enrollDirect(f, "10000001", []float32{1, 0})
	enrollDirect(f, "10000002", []float32{0, 1})

	n, err := f.svc.WarmUp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, f.index.Len())
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/field-expense/internal/ai"
	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageFixture(v *mockValidator) (ImageService, *mockPhotoStore, *mockUploadRepo, *recordingMetrics) {
	store := newMockPhotoStore()
	uploads := newMockUploadRepo()
	m := &recordingMetrics{}
	svc := NewImageService(v, store, uploads, d("700"),
		clock.NewFakeClock(time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC)), m, &mockLogger{})
	return svc, store, uploads, m
}

func TestImageService_UploadOdometer(t *testing.T) {
	var got ai.OdometerImage
	v := &mockValidator{
		odometerFunc: func(ctx context.Context, req ai.OdometerImage) (*entity.ImageVerdict, error) {
			got = req
			out := verdict(entity.ImageKindOdometer, 100, entity.ValidationLevelHigh, entity.ActionAutoApprove)
			out.Details.ImageHash = "abc"
			return out, nil
		},
	}
	svc, store, uploads, m := newImageFixture(v)

	res, err := svc.Upload(context.Background(), UploadRequest{
		UserID:          "mr-1",
		Kind:            entity.ImageKindOdometer,
		Data:            []byte("jpeg"),
		MIMEType:        "image/jpeg",
		PreviousReading: d("12000"),
		ClaimedDistance: d("45"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Ref)
	assert.Equal(t, 100, res.Verdict.Confidence)
	assert.True(t, got.ClaimedDistance.Equal(d("45")))
	assert.Equal(t, "mr-1", got.UserID)

	assert.Equal(t, []byte("jpeg"), store.saved["mr-1/odometer/"+res.Ref])
	stored := uploads.uploads[res.Ref]
	require.NotNil(t, stored)
	assert.Equal(t, "abc", stored.Hash)
	assert.Equal(t, int64(4), stored.Size)
	assert.Equal(t, []string{"odometer:AUTO_APPROVE"}, m.verdicts)
}

func TestImageService_UploadBillUsesMaxAmount(t *testing.T) {
	var got ai.BillImage
	v := &mockValidator{
		billFunc: func(ctx context.Context, req ai.BillImage) (*entity.ImageVerdict, error) {
			got = req
			return verdict(entity.ImageKindBill, 85, entity.ValidationLevelMedium, entity.ActionManualReview), nil
		},
	}
	svc, _, uploads, _ := newImageFixture(v)

	res, err := svc.Upload(context.Background(), UploadRequest{
		UserID: "mr-1", Kind: entity.ImageKindBill, Data: []byte("%PDF"), MIMEType: "application/pdf",
		ClaimedAmount: d("600"),
	})
	require.NoError(t, err)
	assert.True(t, got.MaxAmount.Equal(d("700")))
	assert.True(t, got.ClaimedAmount.Equal(d("600")))
	assert.Equal(t, ai.HashImage([]byte("%PDF")), uploads.uploads[res.Ref].Hash)
}

func TestImageService_Errors(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		svc, _, _, _ := newImageFixture(&mockValidator{})
		_, err := svc.Upload(context.Background(), UploadRequest{UserID: "mr-1", Kind: "selfie", Data: []byte("x")})
		assert.ErrorIs(t, err, ErrInvalidImageKind)
	})

	t.Run("validator error", func(t *testing.T) {
		svc, store, _, _ := newImageFixture(&mockValidator{
			odometerFunc: func(ctx context.Context, req ai.OdometerImage) (*entity.ImageVerdict, error) {
				return nil, ai.ErrEmptyImage
			},
		})
		_, err := svc.Upload(context.Background(), UploadRequest{UserID: "mr-1", Kind: entity.ImageKindOdometer})
		assert.ErrorIs(t, err, ai.ErrEmptyImage)
		assert.Empty(t, store.saved)
	})

	t.Run("record failure removes stored file", func(t *testing.T) {
		svc, store, uploads, _ := newImageFixture(&mockValidator{
			odometerFunc: func(ctx context.Context, req ai.OdometerImage) (*entity.ImageVerdict, error) {
				return verdict(entity.ImageKindOdometer, 100, entity.ValidationLevelHigh, entity.ActionAutoApprove), nil
			},
		})
		uploads.createFn = func(ctx context.Context, u *entity.ImageUpload) error {
			return errors.New("constraint failed")
		}

		_, err := svc.Upload(context.Background(), UploadRequest{UserID: "mr-1", Kind: entity.ImageKindOdometer, Data: []byte("x")})
		require.Error(t, err)
		assert.Len(t, store.deleted, 1)
		assert.Empty(t, store.saved)
	})
}

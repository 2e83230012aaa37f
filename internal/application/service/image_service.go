package service

import (
	"context"
	"fmt"

	"github.com/garyjia/field-expense/internal/ai"
	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UploadRequest is one proof photo with the claim it is checked against
type UploadRequest struct {
	UserID   string
	Kind     string
	Data     []byte
	MIMEType string

	// odometer claims
	PreviousReading decimal.Decimal
	ClaimedDistance decimal.Decimal

	// bill claims
	ClaimedAmount decimal.Decimal
}

// UploadResult tells the client which ref to submit and what was found
type UploadResult struct {
	Ref     string               `json:"ref"`
	Verdict *entity.ImageVerdict `json:"verdict"`
}

// ImageService validates and stores proof photos
type ImageService interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

type imageServiceImpl struct {
	validator     ai.ImageValidator
	store         port.PhotoStore
	uploadRepo    port.UploadRepository
	maxBillAmount decimal.Decimal
	clock         clock.Clock
	metrics       Metrics
	logger        Logger
}

// NewImageService creates a new ImageService. Bills above maxBillAmount are
// penalized by the scorer.
func NewImageService(
	validator ai.ImageValidator,
	store port.PhotoStore,
	uploadRepo port.UploadRepository,
	maxBillAmount decimal.Decimal,
	c clock.Clock,
	m Metrics,
	logger Logger,
) ImageService {
	if m == nil {
		m = NopMetrics{}
	}
	return &imageServiceImpl{
		validator:     validator,
		store:         store,
		uploadRepo:    uploadRepo,
		maxBillAmount: maxBillAmount,
		clock:         c,
		metrics:       m,
		logger:        logger,
	}
}

// Upload validates the photo, stores it and records the verdict under a new ref
func (s *imageServiceImpl) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	img := ai.Image{Data: req.Data, MIMEType: req.MIMEType}

	var (
		verdict *entity.ImageVerdict
		err     error
	)
	switch req.Kind {
	case entity.ImageKindOdometer:
		verdict, err = s.validator.ValidateOdometer(ctx, ai.OdometerImage{
			UserID:          req.UserID,
			Image:           img,
			PreviousReading: req.PreviousReading,
			ClaimedDistance: req.ClaimedDistance,
		})
	case entity.ImageKindBill:
		verdict, err = s.validator.ValidateBill(ctx, ai.BillImage{
			UserID:        req.UserID,
			Image:         img,
			ClaimedAmount: req.ClaimedAmount,
			MaxAmount:     s.maxBillAmount,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidImageKind, req.Kind)
	}
	if err != nil {
		s.logger.Error("Image validation failed", "error", err, "user_id", req.UserID, "kind", req.Kind)
		return nil, fmt.Errorf("validate image: %w", err)
	}
	s.metrics.ImageVerdictObserved(req.Kind, string(verdict.Action))

	hash := verdict.Details.ImageHash
	if hash == "" {
		hash = ai.HashImage(req.Data)
	}

	ref := uuid.NewString()
	key := s.store.Key(req.UserID, req.Kind, ref, req.MIMEType)
	if err := s.store.Save(ctx, key, req.Data); err != nil {
		s.logger.Error("Failed to store image", "error", err, "ref", ref)
		return nil, fmt.Errorf("store image: %w", err)
	}

	upload := &entity.ImageUpload{
		Ref:       ref,
		UserID:    req.UserID,
		Kind:      req.Kind,
		Hash:      hash,
		MIMEType:  req.MIMEType,
		Size:      int64(len(req.Data)),
		Verdict:   verdict,
		CreatedAt: s.clock.Now(),
	}
	if err := s.uploadRepo.Create(ctx, upload); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Error("Failed to remove orphaned image", "error", delErr, "ref", ref)
		}
		return nil, fmt.Errorf("record upload: %w", err)
	}

	s.logger.Info("Image uploaded",
		"ref", ref,
		"user_id", req.UserID,
		"kind", req.Kind,
		"confidence", verdict.Confidence,
		"action", verdict.Action,
	)
	return &UploadResult{Ref: ref, Verdict: verdict}, nil
}

package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrEmptyImage is returned when an upload has no bytes
var ErrEmptyImage = errors.New("empty image")

// ImageValidator checks odometer photos and hotel bills
type ImageValidator interface {
	ValidateOdometer(ctx context.Context, req OdometerImage) (*entity.ImageVerdict, error)
	ValidateBill(ctx context.Context, req BillImage) (*entity.ImageVerdict, error)
}

// HashLookup returns hashes of images a user has already submitted
type HashLookup interface {
	ListImageHashes(ctx context.Context, userID string) ([]string, error)
}

// Rasterizer renders the first page of a PDF as a JPEG
type Rasterizer interface {
	FirstPageJPEG(pdf []byte) ([]byte, error)
}

// OdometerImage is an odometer photo to validate
type OdometerImage struct {
	UserID          string
	Image           Image
	PreviousReading decimal.Decimal
	ClaimedDistance decimal.Decimal
}

// BillImage is a hotel bill photo or PDF to validate
type BillImage struct {
	UserID        string
	Image         Image
	ClaimedAmount decimal.Decimal
	MaxAmount     decimal.Decimal
}

// Validator implements ImageValidator: duplicate check first, then analysis
// and scoring
type Validator struct {
	analyzer   ImageAnalyzer
	scorer     *Scorer
	hashes     HashLookup
	rasterizer Rasterizer
	logger     *zap.Logger
}

// NewValidator creates a validator. rasterizer may be nil, in which case PDF
// uploads are sent to the analyzer as-is.
func NewValidator(analyzer ImageAnalyzer, scorer *Scorer, hashes HashLookup, rasterizer Rasterizer, logger *zap.Logger) *Validator {
	return &Validator{
		analyzer:   analyzer,
		scorer:     scorer,
		hashes:     hashes,
		rasterizer: rasterizer,
		logger:     logger,
	}
}

// ValidateOdometer validates an odometer photo
func (v *Validator) ValidateOdometer(ctx context.Context, req OdometerImage) (*entity.ImageVerdict, error) {
	hash, dup, err := v.checkDuplicate(ctx, req.UserID, req.Image)
	if err != nil {
		return nil, err
	}
	if dup {
		v.logger.Warn("Duplicate odometer image", zap.String("user_id", req.UserID), zap.String("hash", hash))
		return v.scorer.Duplicate(entity.ImageKindOdometer, hash), nil
	}

	analysis, err := v.analyzer.Analyze(ctx, entity.ImageKindOdometer, req.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze odometer image: %w", err)
	}

	verdict := v.scorer.ScoreOdometer(analysis, OdometerClaim{
		PreviousReading: req.PreviousReading,
		ClaimedDistance: req.ClaimedDistance,
	})
	verdict.Details.ImageHash = hash

	v.logger.Info("Odometer image validated",
		zap.String("user_id", req.UserID),
		zap.Int("confidence", verdict.Confidence),
		zap.String("action", string(verdict.Action)))

	return verdict, nil
}

// ValidateBill validates a hotel bill. PDFs are rasterized to their first page.
func (v *Validator) ValidateBill(ctx context.Context, req BillImage) (*entity.ImageVerdict, error) {
	hash, dup, err := v.checkDuplicate(ctx, req.UserID, req.Image)
	if err != nil {
		return nil, err
	}
	if dup {
		v.logger.Warn("Duplicate bill image", zap.String("user_id", req.UserID), zap.String("hash", hash))
		return v.scorer.Duplicate(entity.ImageKindBill, hash), nil
	}

	img := req.Image
	if img.IsPDF() && v.rasterizer != nil {
		jpeg, err := v.rasterizer.FirstPageJPEG(img.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to render bill PDF: %w", err)
		}
		img = Image{Data: jpeg, MIMEType: "image/jpeg"}
	}

	analysis, err := v.analyzer.Analyze(ctx, entity.ImageKindBill, img)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze bill image: %w", err)
	}

	verdict := v.scorer.ScoreBill(analysis, BillClaim{
		ClaimedAmount: req.ClaimedAmount,
		MaxAmount:     req.MaxAmount,
	})
	verdict.Details.ImageHash = hash

	v.logger.Info("Bill image validated",
		zap.String("user_id", req.UserID),
		zap.Int("confidence", verdict.Confidence),
		zap.String("action", string(verdict.Action)))

	return verdict, nil
}

func (v *Validator) checkDuplicate(ctx context.Context, userID string, img Image) (string, bool, error) {
	if len(img.Data) == 0 {
		return "", false, ErrEmptyImage
	}
	hash := HashImage(img.Data)

	existing, err := v.hashes.ListImageHashes(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load previous image hashes: %w", err)
	}

	return hash, IsDuplicate(hash, existing), nil
}

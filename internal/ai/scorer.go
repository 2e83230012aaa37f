package ai

import (
	"fmt"
	"strings"

	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DuplicateFlag is the only flag on a verdict for a resubmitted image
const DuplicateFlag = "DUPLICATE: This image has been submitted before"

// Penalties subtracted from a perfect score of 100
const (
	penaltyPoorQuality = 15

	penaltyOdometerScreenshot = 40
	penaltyOdometerEdited     = 30
	penaltyOdometerLowOCR     = 10
	penaltyOdometerMismatch   = 25

	penaltyBillScreenshot = 50
	penaltyBillEdited     = 35
	penaltyBillLowOCR     = 15
	penaltyBillMismatch   = 20
	penaltyBillOverLimit  = 15
	penaltyBillNotABill   = 25
)

const (
	minImageQuality = 70
	minOdometerOCR  = 80
	minBillOCR      = 75

	defaultBillMaxAmount   = 700
	odometerReadingSlackKm = 10
	billAmountSlack        = 50
)

var billKeywords = []string{"Bill", "Invoice", "Receipt"}

// OdometerClaim is what the submitter says the odometer should show
type OdometerClaim struct {
	PreviousReading decimal.Decimal
	ClaimedDistance decimal.Decimal
}

// BillClaim is what the submitter says the hotel bill shows.
// MaxAmount of zero means the default limit of 700.
type BillClaim struct {
	ClaimedAmount decimal.Decimal
	MaxAmount     decimal.Decimal
}

// Scorer turns an ImageAnalysis into a verdict by subtracting penalties from 100
type Scorer struct {
	router *ConfidenceRouter
	clock  clock.Clock
}

// NewScorer creates a scorer routing with the given router
func NewScorer(router *ConfidenceRouter, c clock.Clock) *Scorer {
	return &Scorer{router: router, clock: c}
}

// ScoreOdometer scores an odometer photo. The reading check only runs when
// both the previous reading and the claimed distance are known.
func (s *Scorer) ScoreOdometer(a *ImageAnalysis, claim OdometerClaim) *entity.ImageVerdict {
	confidence := 100
	var flags []string

	if a.Quality < minImageQuality {
		flags = append(flags, "Poor image quality")
		confidence -= penaltyPoorQuality
	}
	if a.IsScreenshot {
		flags = append(flags, "Image appears to be a screenshot")
		confidence -= penaltyOdometerScreenshot
	}
	if a.IsEdited {
		flags = append(flags, "Image may have been edited")
		confidence -= penaltyOdometerEdited
	}
	if a.OCRConfidence < minOdometerOCR {
		flags = append(flags, "Low OCR confidence - text unclear")
		confidence -= penaltyOdometerLowOCR
	}

	if a.Reading != nil && !claim.PreviousReading.IsZero() && !claim.ClaimedDistance.IsZero() {
		expected := claim.PreviousReading.Add(claim.ClaimedDistance)
		if a.Reading.Sub(expected).Abs().GreaterThan(decimal.NewFromInt(odometerReadingSlackKm)) {
			flags = append(flags, fmt.Sprintf("Odometer reading mismatch: Expected ~%s, found %s", expected, a.Reading))
			confidence -= penaltyOdometerMismatch
		}
	}

	return s.verdict(entity.ImageKindOdometer, confidence, flags, a)
}

// ScoreBill scores a hotel bill. The amount comparison is skipped when no
// amount could be read.
func (s *Scorer) ScoreBill(a *ImageAnalysis, claim BillClaim) *entity.ImageVerdict {
	confidence := 100
	var flags []string

	maxAmount := claim.MaxAmount
	if maxAmount.IsZero() {
		maxAmount = decimal.NewFromInt(defaultBillMaxAmount)
	}

	if a.Quality < minImageQuality {
		flags = append(flags, "Poor image quality")
		confidence -= penaltyPoorQuality
	}
	if a.IsScreenshot {
		flags = append(flags, "Bill appears to be a screenshot (not original photo)")
		confidence -= penaltyBillScreenshot
	}
	if a.IsEdited {
		flags = append(flags, "Bill may have been digitally edited")
		confidence -= penaltyBillEdited
	}
	if a.OCRConfidence < minBillOCR {
		flags = append(flags, "Low OCR confidence - bill text unclear")
		confidence -= penaltyBillLowOCR
	}

	if a.Amount != nil && a.Amount.Sub(claim.ClaimedAmount).Abs().GreaterThan(decimal.NewFromInt(billAmountSlack)) {
		flags = append(flags, fmt.Sprintf("Amount mismatch: Claimed ₹%s, extracted ₹%s", claim.ClaimedAmount, a.Amount))
		confidence -= penaltyBillMismatch
	}
	if claim.ClaimedAmount.GreaterThan(maxAmount) {
		flags = append(flags, fmt.Sprintf("Amount exceeds limit: ₹%s > ₹%s", claim.ClaimedAmount, maxAmount))
		confidence -= penaltyBillOverLimit
	}
	if !a.HasBillFormat && !looksLikeBill(a.ExtractedText) {
		flags = append(flags, "Document does not appear to be a valid bill")
		confidence -= penaltyBillNotABill
	}

	return s.verdict(entity.ImageKindBill, confidence, flags, a)
}

// Duplicate is the verdict for an image whose hash was already submitted
func (s *Scorer) Duplicate(kind, hash string) *entity.ImageVerdict {
	routing := s.router.Route(0)
	return &entity.ImageVerdict{
		Kind:       kind,
		Valid:      false,
		Confidence: 0,
		Level:      routing.Level,
		Action:     entity.ActionFlagReject,
		Flags:      []string{DuplicateFlag},
		Details: entity.ImageDetails{
			IsDuplicate: true,
			ImageHash:   hash,
		},
		Timestamp: s.clock.Now(),
	}
}

func (s *Scorer) verdict(kind string, confidence int, flags []string, a *ImageAnalysis) *entity.ImageVerdict {
	if confidence < 0 {
		confidence = 0
	}
	if flags == nil {
		flags = []string{}
	}
	routing := s.router.Route(confidence)

	return &entity.ImageVerdict{
		Kind:       kind,
		Valid:      routing.Valid,
		Confidence: confidence,
		Level:      routing.Level,
		Action:     routing.Action,
		Flags:      flags,
		Details: entity.ImageDetails{
			ImageQuality:  a.Quality,
			HasMetadata:   a.HasMetadata,
			IsEdited:      a.IsEdited,
			IsScreenshot:  a.IsScreenshot,
			OCRConfidence: a.OCRConfidence,
			ExtractedText: a.ExtractedText,
		},
		Timestamp: s.clock.Now(),
	}
}

func looksLikeBill(text string) bool {
	for _, kw := range billKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

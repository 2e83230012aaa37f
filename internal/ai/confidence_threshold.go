package ai

import (
	"fmt"

	"github.com/garyjia/field-expense/internal/domain/entity"
)

// ConfidenceThreshold defines the decision boundaries for image verdict routing.
// Confidence is an integer score from 0 to 100.
type ConfidenceThreshold struct {
	HighThreshold int    // at or above: auto approve
	LowThreshold  int    // at or above: manual review, below: flag for rejection
	ConfigVersion string // version identifier for audit trail
}

// Routing is the outcome of routing one confidence score
type Routing struct {
	Level  entity.ValidationLevel
	Action entity.ValidationAction
	Valid  bool
}

// ConfidenceRouter routes image verdicts based on confidence thresholds
type ConfidenceRouter struct {
	thresholds ConfidenceThreshold
}

// DefaultConfidenceThreshold returns the default threshold configuration
func DefaultConfidenceThreshold() ConfidenceThreshold {
	return ConfidenceThreshold{
		HighThreshold: 90,
		LowThreshold:  70,
		ConfigVersion: "v1",
	}
}

// Validate ensures threshold values are within valid ranges and logically consistent
func (ct ConfidenceThreshold) Validate() error {
	if ct.HighThreshold < 0 || ct.HighThreshold > 100 {
		return fmt.Errorf("HighThreshold must be between 0 and 100, got %d", ct.HighThreshold)
	}

	if ct.LowThreshold < 0 || ct.LowThreshold > 100 {
		return fmt.Errorf("LowThreshold must be between 0 and 100, got %d", ct.LowThreshold)
	}

	if ct.HighThreshold <= ct.LowThreshold {
		return fmt.Errorf("HighThreshold must be greater than LowThreshold (high: %d, low: %d)", ct.HighThreshold, ct.LowThreshold)
	}

	return nil
}

// NewConfidenceRouter creates a new decision router with given thresholds
func NewConfidenceRouter(thresholds ConfidenceThreshold) *ConfidenceRouter {
	return &ConfidenceRouter{
		thresholds: thresholds,
	}
}

// Thresholds returns the thresholds the router was built with
func (cr *ConfidenceRouter) Thresholds() ConfidenceThreshold {
	return cr.thresholds
}

// Route assigns a level and action to a confidence score.
// HIGH -> auto approve; MEDIUM -> manual review; LOW -> flag for rejection.
// A verdict is valid whenever it is not LOW.
func (cr *ConfidenceRouter) Route(confidence int) Routing {
	switch {
	case confidence >= cr.thresholds.HighThreshold:
		return Routing{Level: entity.ValidationLevelHigh, Action: entity.ActionAutoApprove, Valid: true}
	case confidence >= cr.thresholds.LowThreshold:
		return Routing{Level: entity.ValidationLevelMedium, Action: entity.ActionManualReview, Valid: true}
	default:
		return Routing{Level: entity.ValidationLevelLow, Action: entity.ActionFlagReject, Valid: false}
	}
}

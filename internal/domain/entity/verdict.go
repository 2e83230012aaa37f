package entity

import "time"

// ValidationLevel grades how confident an image check is
type ValidationLevel string

const (
	ValidationLevelHigh   ValidationLevel = "HIGH"
	ValidationLevelMedium ValidationLevel = "MEDIUM"
	ValidationLevelLow    ValidationLevel = "LOW"
)

// ValidationAction is the routing recommendation attached to an image verdict
type ValidationAction string

const (
	ActionAutoApprove  ValidationAction = "AUTO_APPROVE"
	ActionManualReview ValidationAction = "MANUAL_REVIEW"
	ActionFlagReject   ValidationAction = "FLAG_REJECT"
)

// ImageDetails holds the raw observations behind a verdict
type ImageDetails struct {
	ImageQuality  int    `json:"image_quality"`
	HasMetadata   bool   `json:"has_metadata"`
	IsEdited      bool   `json:"is_edited"`
	IsScreenshot  bool   `json:"is_screenshot"`
	IsDuplicate   bool   `json:"is_duplicate"`
	OCRConfidence int    `json:"ocr_confidence,omitempty"`
	ExtractedText string `json:"extracted_text,omitempty"`
	ImageHash     string `json:"image_hash,omitempty"`
}

// ImageVerdict is the outcome of validating an odometer photo or a hotel bill
type ImageVerdict struct {
	Kind       string           `json:"kind"`
	Valid      bool             `json:"valid"`
	Confidence int              `json:"confidence"`
	Level      ValidationLevel  `json:"level"`
	Action     ValidationAction `json:"action"`
	Flags      []string         `json:"flags"`
	Details    ImageDetails     `json:"details"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NeedsReview reports whether the verdict routes the expense to manual review
func (v *ImageVerdict) NeedsReview() bool {
	return v != nil && v.Action == ActionManualReview
}

// IsRejected reports whether the verdict hard-blocks a submission
func (v *ImageVerdict) IsRejected() bool {
	return v != nil && (!v.Valid || v.Action == ActionFlagReject)
}

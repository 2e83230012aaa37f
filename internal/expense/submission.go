package expense

import (
	"fmt"
	"strings"

	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Submission gate issue codes
const (
	CodeBillPhotoRequired       = "bill_photo_required"
	CodeBillValidationFailed    = "bill_validation_failed"
	CodeBillSuspicious          = "bill_suspicious"
	CodeOdometerValidationFail  = "odometer_validation_failed"
	CodeOdometerSuspicious      = "odometer_suspicious"
	CodeOdometerReadingsMissing = "odometer_readings_required"
	CodeOdometerPhotosMissing   = "odometer_photos_required"
	CodeOdometerMismatch        = "odometer_mismatch"
	CodeOdometerNotIncreasing   = "odometer_not_increasing"
)

// OdometerToleranceKm is how far the meter delta may drift from the claimed distance
var OdometerToleranceKm = decimal.RequireFromString("0.1")

// SubmissionCheck bundles what the submission gate needs beyond the input
type SubmissionCheck struct {
	Input           Input
	BillPhotoRef    string
	BillVerdict     *entity.ImageVerdict
	Odometer        *entity.OdometerReading
	OdometerVerdict *entity.ImageVerdict
}

// CheckSubmission applies the proof requirements enforced when an expense is
// submitted. Every finding is blocking; all of them are returned.
func CheckSubmission(c SubmissionCheck) []Issue {
	var issues []Issue
	block := func(code, msg string) {
		issues = append(issues, Issue{Code: code, Message: msg, Severity: SeverityBlocking})
	}

	if c.Input.HotelBillAmount.IsPositive() && c.BillPhotoRef == "" {
		block(CodeBillPhotoRequired, "Please upload hotel bill photo")
	}

	if c.BillPhotoRef != "" && c.BillVerdict != nil {
		switch {
		case !c.BillVerdict.Valid:
			block(CodeBillValidationFailed, "Hotel bill validation failed: "+strings.Join(c.BillVerdict.Flags, ", "))
		case c.BillVerdict.Action == entity.ActionFlagReject:
			block(CodeBillSuspicious, "Bill appears suspicious. Please upload a clear photo of the original bill")
		}
	}

	if !c.Input.IsOutstation {
		return issues
	}

	odo := c.Odometer
	if odo != nil && odo.EndPhotoRef != "" && c.OdometerVerdict != nil {
		switch {
		case !c.OdometerVerdict.Valid:
			block(CodeOdometerValidationFail, "Odometer validation failed: "+strings.Join(c.OdometerVerdict.Flags, ", "))
		case c.OdometerVerdict.Action == entity.ActionFlagReject:
			block(CodeOdometerSuspicious, "Odometer image appears suspicious. Please upload a clear photo of the actual odometer")
		}
	}

	if odo == nil || !odo.Start.Valid || !odo.End.Valid {
		block(CodeOdometerReadingsMissing, "Start and End meter readings are required for outstation travel")
		return issues
	}

	if odo.StartPhotoRef == "" || odo.EndPhotoRef == "" {
		block(CodeOdometerPhotosMissing, "Start and End meter photos are required for outstation travel")
	}

	start, end := odo.Start.Decimal, odo.End.Decimal
	delta := end.Sub(start)
	if delta.Sub(c.Input.DistanceKm).Abs().GreaterThan(OdometerToleranceKm) {
		block(CodeOdometerMismatch, fmt.Sprintf("Meter reading mismatch! Difference: %s km, Distance entered: %s km",
			delta.StringFixed(1), c.Input.DistanceKm.String()))
	}

	if end.LessThanOrEqual(start) {
		block(CodeOdometerNotIncreasing, "End meter reading must be greater than start meter reading")
	}

	return issues
}

package expense

import (
	"testing"

	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueCodes(issues []Issue) []string {
	var codes []string
	for _, i := range issues {
		codes = append(codes, i.Code)
	}
	return codes
}

func meter(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func goodReading() *entity.OdometerReading {
	return &entity.OdometerReading{
		Start:         meter("12000"),
		End:           meter("12045"),
		StartPhotoRef: "odo-start.jpg",
		EndPhotoRef:   "odo-end.jpg",
	}
}

func TestCheckSubmission_LocalTripWithoutProofPasses(t *testing.T) {
	issues := CheckSubmission(SubmissionCheck{
		Input: Input{Role: entity.RoleMR, DistanceKm: dec("12")},
	})

	assert.Empty(t, issues)
}

func TestCheckSubmission_BillNeedsPhoto(t *testing.T) {
	issues := CheckSubmission(SubmissionCheck{
		Input: Input{Role: entity.RoleMR, IsNightStay: true, HotelBillAmount: dec("450")},
	})

	require.Len(t, issues, 1)
	assert.Equal(t, CodeBillPhotoRequired, issues[0].Code)
	assert.True(t, issues[0].Blocking())
}

func TestCheckSubmission_BillVerdict(t *testing.T) {
	tests := []struct {
		name     string
		verdict  *entity.ImageVerdict
		wantCode []string
		wantMsg  string
	}{
		{
			name:    "no verdict yet",
			verdict: nil,
		},
		{
			name:    "high confidence",
			verdict: &entity.ImageVerdict{Valid: true, Confidence: 95, Action: entity.ActionAutoApprove},
		},
		{
			name:    "manual review still passes",
			verdict: &entity.ImageVerdict{Valid: true, Confidence: 75, Action: entity.ActionManualReview},
		},
		{
			name:     "invalid lists flags",
			verdict:  &entity.ImageVerdict{Valid: false, Confidence: 40, Action: entity.ActionFlagReject, Flags: []string{"Screenshot detected", "Image appears edited"}},
			wantCode: []string{CodeBillValidationFailed},
			wantMsg:  "Hotel bill validation failed: Screenshot detected, Image appears edited",
		},
		{
			name:     "valid but flagged for rejection",
			verdict:  &entity.ImageVerdict{Valid: true, Confidence: 70, Action: entity.ActionFlagReject},
			wantCode: []string{CodeBillSuspicious},
			wantMsg:  "Bill appears suspicious. Please upload a clear photo of the original bill",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := CheckSubmission(SubmissionCheck{
				Input:        Input{Role: entity.RoleMR, IsNightStay: true, HotelBillAmount: dec("450")},
				BillPhotoRef: "bill.jpg",
				BillVerdict:  tt.verdict,
			})

			assert.Equal(t, tt.wantCode, issueCodes(issues))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, issues[0].Message)
			}
		})
	}
}

func TestCheckSubmission_Outstation(t *testing.T) {
	tests := []struct {
		name     string
		distance string
		reading  *entity.OdometerReading
		verdict  *entity.ImageVerdict
		want     []string
	}{
		{
			name:     "matching readings",
			distance: "45",
			reading:  goodReading(),
		},
		{
			name:     "within tolerance",
			distance: "44.95",
			reading:  goodReading(),
		},
		{
			name:     "missing readings",
			distance: "45",
			reading:  nil,
			want:     []string{CodeOdometerReadingsMissing},
		},
		{
			name:     "end reading absent",
			distance: "45",
			reading:  &entity.OdometerReading{Start: meter("100"), StartPhotoRef: "a", EndPhotoRef: "b"},
			want:     []string{CodeOdometerReadingsMissing},
		},
		{
			name:     "zero start reading",
			distance: "45",
			reading: &entity.OdometerReading{
				Start: meter("0"), End: meter("45"), StartPhotoRef: "a", EndPhotoRef: "b",
			},
		},
		{
			name:     "missing photo",
			distance: "45",
			reading: &entity.OdometerReading{
				Start: meter("12000"), End: meter("12045"), StartPhotoRef: "odo-start.jpg",
			},
			want: []string{CodeOdometerPhotosMissing},
		},
		{
			name:     "mismatch",
			distance: "60",
			reading:  goodReading(),
			want:     []string{CodeOdometerMismatch},
		},
		{
			name:     "decreasing readings",
			distance: "-45",
			reading: &entity.OdometerReading{
				Start: meter("12045"), End: meter("12000"), StartPhotoRef: "a", EndPhotoRef: "b",
			},
			want: []string{CodeOdometerNotIncreasing},
		},
		{
			name:     "odometer verdict invalid",
			distance: "45",
			reading:  goodReading(),
			verdict:  &entity.ImageVerdict{Valid: false, Flags: []string{"Reading mismatch"}},
			want:     []string{CodeOdometerValidationFail},
		},
		{
			name:     "odometer verdict suspicious",
			distance: "45",
			reading:  goodReading(),
			verdict:  &entity.ImageVerdict{Valid: true, Action: entity.ActionFlagReject},
			want:     []string{CodeOdometerSuspicious},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := CheckSubmission(SubmissionCheck{
				Input:           Input{Role: entity.RoleMR, DistanceKm: dec(tt.distance), IsOutstation: true},
				Odometer:        tt.reading,
				OdometerVerdict: tt.verdict,
			})

			assert.Equal(t, tt.want, issueCodes(issues))
		})
	}
}

func TestCheckSubmission_MismatchMessage(t *testing.T) {
	issues := CheckSubmission(SubmissionCheck{
		Input:    Input{Role: entity.RoleMR, DistanceKm: dec("60"), IsOutstation: true},
		Odometer: goodReading(),
	})

	require.Len(t, issues, 1)
	assert.Equal(t, "Meter reading mismatch! Difference: 45.0 km, Distance entered: 60 km", issues[0].Message)
}

func TestCheckSubmission_OutstationByDistanceOnlySkipsOdometer(t *testing.T) {
	issues := CheckSubmission(SubmissionCheck{
		Input: Input{Role: entity.RoleMR, DistanceKm: dec("80")},
	})

	assert.Empty(t, issues)
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Breakdown explains which rules produced an expense's amounts
type Breakdown struct {
	DAType        string          `json:"da_type"`
	DAAmount      decimal.Decimal `json:"da_amount"`
	TACalculation string          `json:"ta_calculation"`
	TAAmount      decimal.Decimal `json:"ta_amount"`
	HotelAmount   decimal.Decimal `json:"hotel_amount"`
	HotelLimit    decimal.Decimal `json:"hotel_limit"`
}

// OdometerReading captures the start/end meter values claimed for an outstation trip.
// A reading of 0 is a real reading; an absent one is not Valid.
type OdometerReading struct {
	Start         decimal.NullDecimal `json:"start"`
	End           decimal.NullDecimal `json:"end"`
	StartPhotoRef string          `json:"start_photo_ref,omitempty"`
	EndPhotoRef   string          `json:"end_photo_ref,omitempty"`
}

// Expense is a submitted daily expense claim together with its computed amounts
type Expense struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	UserName        string           `json:"user_name"`
	Role            Role             `json:"role"`
	ExpenseDate     time.Time        `json:"expense_date"`
	DistanceKm      decimal.Decimal  `json:"distance_km"`
	IsOutstation    bool             `json:"is_outstation"`
	IsNightStay     bool             `json:"is_night_stay"`
	HotelBillAmount decimal.Decimal  `json:"hotel_bill_amount"`
	BillProofRef    string           `json:"bill_proof_ref,omitempty"`
	Odometer        *OdometerReading `json:"odometer,omitempty"`
	IsJointWork     bool             `json:"is_joint_work"`
	JointWorkMRID   string           `json:"joint_work_mr_id,omitempty"`
	JointWorkMRName string           `json:"joint_work_mr_name,omitempty"`

	CalculatedDA decimal.Decimal `json:"calculated_da"`
	CalculatedTA decimal.Decimal `json:"calculated_ta"`
	HotelAmount  decimal.Decimal `json:"hotel_amount"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Breakdown    Breakdown       `json:"breakdown"`

	Status          string     `json:"status"`
	ManagerID       string     `json:"manager_id,omitempty"`
	ApprovedByID    string     `json:"approved_by_id,omitempty"`
	ApprovedByName  string     `json:"approved_by_name,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`

	BillValidation     *ImageVerdict `json:"bill_validation,omitempty"`
	OdometerValidation *ImageVerdict `json:"odometer_validation,omitempty"`
	AIRiskFlag         bool          `json:"ai_risk_flag"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpen reports whether a manager can still act on the expense
func (e *Expense) IsOpen() bool {
	return e.Status == ExpenseStatusPending || e.Status == ExpenseStatusFlagged
}

// ImageHashes returns the hashes of every validated image attached to the expense
func (e *Expense) ImageHashes() []string {
	var hashes []string
	for _, v := range []*ImageVerdict{e.BillValidation, e.OdometerValidation} {
		if v != nil && v.Details.ImageHash != "" {
			hashes = append(hashes, v.Details.ImageHash)
		}
	}
	return hashes
}

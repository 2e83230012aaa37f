package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppSettings is the admin-curated rate table read by the expense engine.
// The engine never clamps these values.
type AppSettings struct {
	MRDALocal                   decimal.Decimal `json:"mr_da_local"`
	MRDAOutstation              decimal.Decimal `json:"mr_da_outstation"`
	ManagerDASolo               decimal.Decimal `json:"manager_da_solo"`
	ManagerDAJoint              decimal.Decimal `json:"manager_da_joint"`
	TAPerKm                     decimal.Decimal `json:"ta_per_km"`
	MRHotelLimit                decimal.Decimal `json:"mr_hotel_limit"`
	ManagerHotelLimit           decimal.Decimal `json:"manager_hotel_limit"`
	OutstationTACap             decimal.Decimal `json:"outstation_ta_cap"`
	OutstationDistanceThreshold decimal.Decimal `json:"outstation_distance_threshold"`
	ExpenseEntryStartHour       int             `json:"expense_entry_start_hour"`
	CompanyLogo                 string          `json:"company_logo,omitempty"`
	UpdatedAt                   time.Time       `json:"updated_at,omitempty"`
}

// DefaultAppSettings returns the rate table used until an admin changes it
func DefaultAppSettings() AppSettings {
	return AppSettings{
		MRDALocal:                   decimal.NewFromInt(100),
		MRDAOutstation:              decimal.NewFromInt(100),
		ManagerDASolo:               decimal.NewFromInt(200),
		ManagerDAJoint:              decimal.NewFromInt(500),
		TAPerKm:                     decimal.RequireFromString("2.5"),
		MRHotelLimit:                decimal.NewFromInt(500),
		ManagerHotelLimit:           decimal.NewFromInt(700),
		OutstationTACap:             decimal.NewFromInt(500),
		OutstationDistanceThreshold: decimal.NewFromInt(30),
		ExpenseEntryStartHour:       20,
	}
}

// SettingsPatch carries a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	MRDALocal                   *decimal.Decimal `json:"mr_da_local,omitempty"`
	MRDAOutstation              *decimal.Decimal `json:"mr_da_outstation,omitempty"`
	ManagerDASolo               *decimal.Decimal `json:"manager_da_solo,omitempty"`
	ManagerDAJoint              *decimal.Decimal `json:"manager_da_joint,omitempty"`
	TAPerKm                     *decimal.Decimal `json:"ta_per_km,omitempty"`
	MRHotelLimit                *decimal.Decimal `json:"mr_hotel_limit,omitempty"`
	ManagerHotelLimit           *decimal.Decimal `json:"manager_hotel_limit,omitempty"`
	OutstationTACap             *decimal.Decimal `json:"outstation_ta_cap,omitempty"`
	OutstationDistanceThreshold *decimal.Decimal `json:"outstation_distance_threshold,omitempty"`
	ExpenseEntryStartHour       *int             `json:"expense_entry_start_hour,omitempty"`
	CompanyLogo                 *string          `json:"company_logo,omitempty"`
}

// Apply returns a copy of s with the non-nil patch fields applied
func (p SettingsPatch) Apply(s AppSettings) AppSettings {
	setDecimal := func(dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
		}
	}

	setDecimal(&s.MRDALocal, p.MRDALocal)
	setDecimal(&s.MRDAOutstation, p.MRDAOutstation)
	setDecimal(&s.ManagerDASolo, p.ManagerDASolo)
	setDecimal(&s.ManagerDAJoint, p.ManagerDAJoint)
	setDecimal(&s.TAPerKm, p.TAPerKm)
	setDecimal(&s.MRHotelLimit, p.MRHotelLimit)
	setDecimal(&s.ManagerHotelLimit, p.ManagerHotelLimit)
	setDecimal(&s.OutstationTACap, p.OutstationTACap)
	setDecimal(&s.OutstationDistanceThreshold, p.OutstationDistanceThreshold)

	if p.ExpenseEntryStartHour != nil {
		s.ExpenseEntryStartHour = *p.ExpenseEntryStartHour
	}
	if p.CompanyLogo != nil {
		s.CompanyLogo = *p.CompanyLogo
	}
	return s
}

// Package expense computes daily allowance, travel allowance and hotel
// reimbursement for field staff, and gates when expenses may be entered.
//
// Every function here is pure: settings and the current time are always
// passed in, nothing is read from global state, and nothing is written.
package expense

import (
	"fmt"

	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DA type labels shown in the breakdown
const (
	DATypeMROutstation  = "MR DA (Outstation)"
	DATypeMRLocal       = "MR DA (Local)"
	DATypeManagerJoint  = "Manager DA (Joint with MR)"
	DATypeManagerSolo   = "Manager DA (Solo)"
	DATypeNotApplicable = "N/A"
)

// Input is one day's expense claim as entered by the submitter
type Input struct {
	UserID          string          `json:"user_id"`
	Role            entity.Role     `json:"role"`
	DistanceKm      decimal.Decimal `json:"distance_km"`
	IsOutstation    bool            `json:"is_outstation"`
	IsNightStay     bool            `json:"is_night_stay"`
	HotelBillAmount decimal.Decimal `json:"hotel_bill_amount"`
	IsJointWork     bool            `json:"is_joint_work"`
}

// Calculation is the computed result for an Input. It is never mutated.
type Calculation struct {
	CalculatedDA decimal.Decimal  `json:"calculated_da"`
	CalculatedTA decimal.Decimal  `json:"calculated_ta"`
	TotalExpense decimal.Decimal  `json:"total_expense"`
	Breakdown    entity.Breakdown `json:"breakdown"`
}

// Calculate applies the rate table to an input. It has no error path:
// out-of-range input still yields a number, validation is a separate step.
// in.Role must be one of the entity.Role constants; callers parse untrusted
// roles with entity.ParseRole first. Any other value panics.
func Calculate(in Input, s entity.AppSettings) Calculation {
	payableByDistance := in.DistanceKm.GreaterThanOrEqual(s.OutstationDistanceThreshold)
	outstation := in.IsOutstation || payableByDistance

	da, daType, hotelLimit := dailyAllowance(in, s, outstation)
	calculatedDA := RoundMoney(da)

	taAmount := decimal.Zero
	if payableByDistance {
		taAmount = in.DistanceKm.Mul(s.TAPerKm)
		if outstation && taAmount.GreaterThan(s.OutstationTACap) {
			taAmount = s.OutstationTACap
		}
	}
	calculatedTA := RoundMoney(taAmount)

	hotelAmount := decimal.Zero
	if in.IsNightStay && in.HotelBillAmount.IsPositive() {
		hotelAmount = decimal.Min(in.HotelBillAmount, hotelLimit)
	}

	total := RoundMoney(calculatedDA.Add(calculatedTA).Add(hotelAmount))

	return Calculation{
		CalculatedDA: calculatedDA,
		CalculatedTA: calculatedTA,
		TotalExpense: total,
		Breakdown: entity.Breakdown{
			DAType:        daType,
			DAAmount:      calculatedDA,
			TACalculation: describeTA(in.DistanceKm, s, payableByDistance, outstation, taAmount),
			TAAmount:      calculatedTA,
			HotelAmount:   hotelAmount,
			HotelLimit:    hotelLimit,
		},
	}
}

// dailyAllowance selects the DA tier and hotel ceiling for a role.
// Manager DA depends only on joint work, never on outstation status.
func dailyAllowance(in Input, s entity.AppSettings, outstation bool) (decimal.Decimal, string, decimal.Decimal) {
	switch in.Role {
	case entity.RoleMR:
		if outstation {
			return s.MRDAOutstation, DATypeMROutstation, s.MRHotelLimit
		}
		return s.MRDALocal, DATypeMRLocal, s.MRHotelLimit
	case entity.RoleManager:
		if in.IsJointWork {
			return s.ManagerDAJoint, DATypeManagerJoint, s.ManagerHotelLimit
		}
		return s.ManagerDASolo, DATypeManagerSolo, s.ManagerHotelLimit
	case entity.RoleAdmin:
		return decimal.Zero, DATypeNotApplicable, decimal.Zero
	default:
		panic(entity.UnhandledRole(in.Role))
	}
}

func describeTA(distance decimal.Decimal, s entity.AppSettings, payable, outstation bool, taAmount decimal.Decimal) string {
	if !payable {
		return fmt.Sprintf("Not applicable (< %s km)", formatAmount(s.OutstationDistanceThreshold))
	}
	if outstation {
		return fmt.Sprintf("%s km × ₹%s = ₹%s (capped at ₹%s)",
			formatAmount(distance), formatAmount(s.TAPerKm), taAmount.StringFixed(2), formatAmount(s.OutstationTACap))
	}
	return fmt.Sprintf("%s km × ₹%s", formatAmount(distance), formatAmount(s.TAPerKm))
}

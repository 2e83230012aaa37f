package http

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/field-expense/internal/application/service"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/expense"
	"github.com/garyjia/field-expense/pkg/utils"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ExpenseInputRequest is the part of the expense form the engine calculates from
type ExpenseInputRequest struct {
	UserID          string          `json:"user_id" binding:"required"`
	Role            string          `json:"role" binding:"required"`
	DistanceKm      decimal.Decimal `json:"distance_km"`
	IsOutstation    bool            `json:"is_outstation"`
	IsNightStay     bool            `json:"is_night_stay"`
	HotelBillAmount decimal.Decimal `json:"hotel_bill_amount"`
	IsJointWork     bool            `json:"is_joint_work"`
}

func (r ExpenseInputRequest) toInput() (expense.Input, error) {
	if err := utils.ValidateID("user_id", r.UserID); err != nil {
		return expense.Input{}, err
	}
	role, err := entity.ParseRole(r.Role)
	if err != nil {
		return expense.Input{}, err
	}
	return expense.Input{
		UserID:          r.UserID,
		Role:            role,
		DistanceKm:      r.DistanceKm,
		IsOutstation:    r.IsOutstation,
		IsNightStay:     r.IsNightStay,
		HotelBillAmount: r.HotelBillAmount,
		IsJointWork:     r.IsJointWork,
	}, nil
}

// OdometerRequest carries the claimed meter readings and their photo refs
type OdometerRequest struct {
	Start         decimal.NullDecimal `json:"start"`
	End           decimal.NullDecimal `json:"end"`
	StartPhotoRef string              `json:"start_photo_ref"`
	EndPhotoRef   string              `json:"end_photo_ref"`
}

// SubmitExpenseRequest is the full expense form
type SubmitExpenseRequest struct {
	ExpenseInputRequest
	UserName        string           `json:"user_name"`
	ExpenseDate     string           `json:"expense_date"`
	ManagerID       string           `json:"manager_id"`
	JointWorkMRID   string           `json:"joint_work_mr_id"`
	JointWorkMRName string           `json:"joint_work_mr_name"`
	BillPhotoRef    string           `json:"bill_photo_ref"`
	Odometer        *OdometerRequest `json:"odometer"`
}

func (r SubmitExpenseRequest) toSubmitRequest() (service.SubmitRequest, error) {
	in, err := r.toInput()
	if err != nil {
		return service.SubmitRequest{}, err
	}

	var date time.Time
	if r.ExpenseDate != "" {
		if date, err = utils.ParseDate(r.ExpenseDate); err != nil {
			return service.SubmitRequest{}, err
		}
	}

	if r.ManagerID != "" {
		if err := utils.ValidateID("manager_id", r.ManagerID); err != nil {
			return service.SubmitRequest{}, err
		}
	}

	req := service.SubmitRequest{
		Input:           in,
		UserName:        utils.SanitizeString(r.UserName),
		ExpenseDate:     date,
		ManagerID:       r.ManagerID,
		JointWorkMRID:   r.JointWorkMRID,
		JointWorkMRName: utils.SanitizeString(r.JointWorkMRName),
		BillPhotoRef:    r.BillPhotoRef,
	}
	if r.Odometer != nil {
		req.Odometer = &entity.OdometerReading{
			Start:         r.Odometer.Start,
			End:           r.Odometer.End,
			StartPhotoRef: r.Odometer.StartPhotoRef,
			EndPhotoRef:   r.Odometer.EndPhotoRef,
		}
	}
	return req, nil
}

// DecisionRequest is a manager's approve, reject or flag action
type DecisionRequest struct {
	ManagerID   string `json:"manager_id" binding:"required"`
	ManagerName string `json:"manager_name"`
	Reason      string `json:"reason"`
}

// ListExpensesQuery holds the filters of GET /api/expenses
type ListExpensesQuery struct {
	UserID string `form:"user_id"`
	Status string `form:"status"`
	From   string `form:"from"`
	To     string `form:"to"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

func (q ListExpensesQuery) toFilter() (service.ListFilter, error) {
	from, to, err := parseRange(q.From, q.To)
	if err != nil {
		return service.ListFilter{}, err
	}
	switch q.Status {
	case "", entity.ExpenseStatusPending, entity.ExpenseStatusFlagged,
		entity.ExpenseStatusApproved, entity.ExpenseStatusRejected:
	default:
		return service.ListFilter{}, fmt.Errorf("unknown status: %q", q.Status)
	}
	if q.Limit < 0 || q.Limit > 200 {
		q.Limit = 0
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return service.ListFilter{
		UserID: q.UserID,
		Status: q.Status,
		From:   from,
		To:     to,
		Limit:  q.Limit,
		Offset: q.Offset,
	}, nil
}

// ExpenseListResponse wraps a page of expenses
type ExpenseListResponse struct {
	Expenses []*entity.Expense `json:"expenses"`
	Count    int               `json:"count"`
}

// SubmissionErrorResponse lists every reason a submission was refused
type SubmissionErrorResponse struct {
	Errors []string        `json:"errors"`
	Issues []expense.Issue `json:"issues"`
}

func parseRange(fromStr, toStr string) (from, to time.Time, err error) {
	if fromStr != "" {
		if from, err = utils.ParseDate(fromStr); err != nil {
			return
		}
	}
	if toStr != "" {
		if to, err = utils.ParseDate(toStr); err != nil {
			return
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		err = fmt.Errorf("to date is before from date")
	}
	return
}

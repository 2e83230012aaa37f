package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/expense"
	"github.com/garyjia/field-expense/internal/metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eveningSubmit = time.Date(2025, 3, 14, 20, 30, 0, 0, time.UTC)

type expenseFixture struct {
	svc           ExpenseService
	clock         *clock.FakeClock
	expenses      *mockExpenseRepo
	uploads       *mockUploadRepo
	history       *mockHistoryRepo
	notifications *mockNotificationRepo
	tx            *mockTxManager
	metrics       *recordingMetrics
}

func newExpenseFixture(uploads ...*entity.ImageUpload) *expenseFixture {
	f := &expenseFixture{
		clock:         clock.NewFakeClock(eveningSubmit),
		expenses:      &mockExpenseRepo{},
		uploads:       newMockUploadRepo(uploads...),
		history:       &mockHistoryRepo{},
		notifications: &mockNotificationRepo{},
		tx:            &mockTxManager{},
		metrics:       &recordingMetrics{},
	}
	settings := NewSettingsService(&mockSettingsRepo{}, entity.DefaultAppSettings(), f.clock, &mockLogger{})
	f.svc = NewExpenseService(
		settings, f.expenses, f.uploads, f.history, f.notifications, f.tx,
		expense.DefaultValidationPolicy(), f.clock, f.metrics, &mockLogger{},
	)
	return f
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func verdict(kind string, confidence int, level entity.ValidationLevel, action entity.ValidationAction) *entity.ImageVerdict {
	return &entity.ImageVerdict{
		Kind:       kind,
		Valid:      confidence >= 70,
		Confidence: confidence,
		Level:      level,
		Action:     action,
		Flags:      []string{},
	}
}

func upload(ref, userID, kind string, v *entity.ImageVerdict) *entity.ImageUpload {
	return &entity.ImageUpload{Ref: ref, UserID: userID, Kind: kind, Hash: "hash-" + ref, Verdict: v}
}

func outstationRequest() SubmitRequest {
	return SubmitRequest{
		Input: expense.Input{
			UserID:          "mr-1",
			Role:            entity.RoleMR,
			DistanceKm:      d("45"),
			IsOutstation:    true,
			IsNightStay:     true,
			HotelBillAmount: d("600"),
		},
		UserName:     "Ravi",
		ManagerID:    "mgr-1",
		BillPhotoRef: "bill",
		Odometer: &entity.OdometerReading{
			Start:         decimal.NewNullDecimal(d("12000")),
			End:           decimal.NewNullDecimal(d("12045")),
			StartPhotoRef: "odo-start",
			EndPhotoRef:   "odo-end",
		},
	}
}

func outstationUploads(endVerdict *entity.ImageVerdict) []*entity.ImageUpload {
	return []*entity.ImageUpload{
		upload("bill", "mr-1", entity.ImageKindBill, verdict(entity.ImageKindBill, 95, entity.ValidationLevelHigh, entity.ActionAutoApprove)),
		upload("odo-start", "mr-1", entity.ImageKindOdometer, verdict(entity.ImageKindOdometer, 100, entity.ValidationLevelHigh, entity.ActionAutoApprove)),
		upload("odo-end", "mr-1", entity.ImageKindOdometer, endVerdict),
	}
}

func TestExpenseService_Submit_Local(t *testing.T) {
	f := newExpenseFixture()

	e, err := f.svc.Submit(context.Background(), SubmitRequest{
		Input:     expense.Input{UserID: "mr-1", Role: entity.RoleMR, DistanceKm: d("10")},
		UserName:  "Ravi",
		ManagerID: "mgr-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, entity.ExpenseStatusPending, e.Status)
	assert.True(t, e.TotalExpense.Equal(d("100")))
	assert.Equal(t, "2025-03-14", e.ExpenseDate.Format("2006-01-02"))
	assert.Equal(t, eveningSubmit, e.SubmittedAt)
	assert.False(t, e.AIRiskFlag)

	require.Len(t, f.expenses.created, 1)
	require.Len(t, f.history.records, 1)
	assert.Equal(t, "draft", f.history.records[0].PreviousStatus)
	assert.Equal(t, entity.HistoryActionSubmit, f.history.records[0].Action)

	require.Len(t, f.notifications.created, 1)
	n := f.notifications.created[0]
	assert.Equal(t, "mgr-1", n.RecipientID)
	assert.Equal(t, entity.NotificationEventSubmitted, n.Event)
	assert.Equal(t, "Ravi submitted an expense of ₹100.00 for 14 Mar 2025.", n.Content)

	assert.Equal(t, []string{metrics.OutcomeAccepted}, f.metrics.submissions)
}

func TestExpenseService_Submit_WithoutManagerSkipsNotification(t *testing.T) {
	f := newExpenseFixture()

	_, err := f.svc.Submit(context.Background(), SubmitRequest{
		Input: expense.Input{UserID: "mr-1", Role: entity.RoleMR, DistanceKm: d("5")},
	})
	require.NoError(t, err)
	assert.Empty(t, f.notifications.created)
}

func TestExpenseService_Submit_Outstation(t *testing.T) {
	f := newExpenseFixture(outstationUploads(
		verdict(entity.ImageKindOdometer, 100, entity.ValidationLevelHigh, entity.ActionAutoApprove),
	)...)

	e, err := f.svc.Submit(context.Background(), outstationRequest())
	require.NoError(t, err)

	assert.Equal(t, entity.ExpenseStatusPending, e.Status)
	assert.True(t, e.CalculatedDA.Equal(d("100")))
	assert.True(t, e.CalculatedTA.Equal(d("112.5")))
	assert.True(t, e.HotelAmount.Equal(d("500")))
	assert.True(t, e.TotalExpense.Equal(d("712.5")))
	require.NotNil(t, e.BillValidation)
	require.NotNil(t, e.OdometerValidation)
	assert.Equal(t, 95, e.BillValidation.Confidence)

	assert.Equal(t, map[string]string{"bill": e.ID, "odo-start": e.ID, "odo-end": e.ID}, f.uploads.attached)
}

func TestExpenseService_Submit_ReviewVerdictStaysPendingWithRiskFlag(t *testing.T) {
	f := newExpenseFixture(outstationUploads(
		verdict(entity.ImageKindOdometer, 80, entity.ValidationLevelMedium, entity.ActionManualReview),
	)...)

	e, err := f.svc.Submit(context.Background(), outstationRequest())
	require.NoError(t, err)

	assert.Equal(t, entity.ExpenseStatusPending, e.Status)
	assert.True(t, e.AIRiskFlag)
	require.Len(t, f.history.records, 1)
	assert.Equal(t, entity.HistoryActionSubmit, f.history.records[0].Action)
	assert.Equal(t, entity.ExpenseStatusPending, f.history.records[0].NewStatus)
	assert.Equal(t, entity.NotificationEventFlagged, f.notifications.created[0].Event)
	assert.Contains(t, f.notifications.created[0].Content, "need manual review")
	assert.Equal(t, []string{metrics.OutcomeFlagged}, f.metrics.submissions)
}

func TestExpenseService_Submit_EntryWindowClosed(t *testing.T) {
	f := newExpenseFixture()
	f.clock.Set(time.Date(2025, 3, 14, 19, 59, 0, 0, time.UTC))

	_, err := f.svc.Submit(context.Background(), SubmitRequest{
		Input: expense.Input{UserID: "mr-1", Role: entity.RoleMR, DistanceKm: d("10")},
	})
	assert.ErrorIs(t, err, ErrEntryWindowClosed)
	assert.Contains(t, err.Error(), "Expense entry is only allowed after 20:00 (8 PM)")
	assert.Empty(t, f.expenses.created)
	assert.Equal(t, []string{metrics.OutcomeWindowClosed}, f.metrics.submissions)
}

func TestExpenseService_Submit_CollectsAllIssues(t *testing.T) {
	tests := []struct {
		name      string
		uploads   []*entity.ImageUpload
		req       func() SubmitRequest
		wantCodes []string
	}{
		{
			name: "input validation",
			req: func() SubmitRequest {
				return SubmitRequest{Input: expense.Input{
					UserID: "mr-1", Role: entity.RoleMR,
					DistanceKm: d("-5"), IsNightStay: true,
				}}
			},
			wantCodes: []string{expense.CodeDistanceNegative, expense.CodeHotelBillRequired},
		},
		{
			name: "missing uploads",
			req:  outstationRequest,
			wantCodes: []string{
				CodeUploadNotFound, CodeUploadNotFound, CodeUploadNotFound,
			},
		},
		{
			name: "upload belongs to someone else",
			uploads: []*entity.ImageUpload{
				upload("bill", "mr-2", entity.ImageKindBill, nil),
				upload("odo-start", "mr-1", entity.ImageKindOdometer, nil),
				upload("odo-end", "mr-1", entity.ImageKindOdometer, nil),
			},
			req:       outstationRequest,
			wantCodes: []string{CodeUploadNotFound},
		},
		{
			name: "upload reused",
			uploads: []*entity.ImageUpload{
				{Ref: "bill", UserID: "mr-1", Kind: entity.ImageKindBill, ExpenseID: "older"},
				upload("odo-start", "mr-1", entity.ImageKindOdometer, nil),
				upload("odo-end", "mr-1", entity.ImageKindOdometer, nil),
			},
			req:       outstationRequest,
			wantCodes: []string{CodeUploadAlreadyUsed},
		},
		{
			name: "rejected odometer verdict and mismatch",
			uploads: outstationUploads(
				verdict(entity.ImageKindOdometer, 40, entity.ValidationLevelLow, entity.ActionFlagReject),
			),
			req: func() SubmitRequest {
				r := outstationRequest()
				r.Odometer.End = decimal.NewNullDecimal(d("12060"))
				return r
			},
			wantCodes: []string{expense.CodeOdometerValidationFail, expense.CodeOdometerMismatch},
		},
		{
			name:    "unusually high distance blocks by default",
			uploads: outstationUploads(verdict(entity.ImageKindOdometer, 100, entity.ValidationLevelHigh, entity.ActionAutoApprove)),
			req: func() SubmitRequest {
				r := outstationRequest()
				r.Input.DistanceKm = d("1200")
				r.Odometer.End = decimal.NewNullDecimal(d("13200"))
				return r
			},
			wantCodes: []string{expense.CodeDistanceUnusuallyHigh},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExpenseFixture(tt.uploads...)

			_, err := f.svc.Submit(context.Background(), tt.req())

			var subErr *SubmissionError
			require.True(t, errors.As(err, &subErr), "expected SubmissionError, got %v", err)
			var codes []string
			for _, issue := range subErr.Issues {
				codes = append(codes, issue.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)
			assert.Len(t, subErr.Messages(), len(tt.wantCodes))
			assert.Empty(t, f.expenses.created)
			assert.Equal(t, tt.wantCodes, f.metrics.issues)
			assert.Equal(t, []string{metrics.OutcomeRejected}, f.metrics.submissions)
		})
	}
}

func TestExpenseService_Submit_StoreFailure(t *testing.T) {
	f := newExpenseFixture()
	f.expenses.createFunc = func(ctx context.Context, e *entity.Expense) error {
		return errors.New("disk full")
	}

	_, err := f.svc.Submit(context.Background(), SubmitRequest{
		Input: expense.Input{UserID: "mr-1", Role: entity.RoleMR, DistanceKm: d("10")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, []string{metrics.OutcomeInternalError}, f.metrics.submissions)
}

func TestExpenseService_Preview(t *testing.T) {
	f := newExpenseFixture()

	got, err := f.svc.Preview(context.Background(), expense.Input{
		Role: entity.RoleManager, DistanceKm: d("20"), IsJointWork: true,
	})
	require.NoError(t, err)
	assert.True(t, got.Calculation.CalculatedDA.Equal(d("500")))
	assert.True(t, got.Calculation.TotalExpense.Equal(d("500")))
	assert.True(t, got.Validation.Valid)
	assert.Empty(t, f.expenses.created)
}

func TestExpenseService_EntryWindow(t *testing.T) {
	f := newExpenseFixture()
	f.clock.Set(time.Date(2025, 3, 14, 18, 45, 0, 0, time.UTC))

	w, err := f.svc.EntryWindow(context.Background())
	require.NoError(t, err)
	assert.False(t, w.Allowed)
	assert.Equal(t, "1h 15m remaining", w.TimeRemaining)
}

func TestExpenseService_Get(t *testing.T) {
	f := newExpenseFixture()
	f.expenses.getByIDFunc = func(ctx context.Context, id string) (*entity.Expense, error) {
		if id == "exp-1" {
			return &entity.Expense{ID: id}, nil
		}
		return nil, nil
	}

	got, err := f.svc.Get(context.Background(), "exp-1")
	require.NoError(t, err)
	assert.Equal(t, "exp-1", got.ID)

	_, err = f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrExpenseNotFound)
}

func TestExpenseService_List(t *testing.T) {
	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mixed := []*entity.Expense{
		{ID: "a", Status: entity.ExpenseStatusPending},
		{ID: "b", Status: entity.ExpenseStatusApproved},
	}

	tests := []struct {
		name    string
		filter  ListFilter
		wantIDs []string
		wantVia string
	}{
		{"date range with status", ListFilter{UserID: "mr-1", Status: entity.ExpenseStatusApproved, From: march}, []string{"b"}, "range"},
		{"user", ListFilter{UserID: "mr-1"}, []string{"a", "b"}, "user"},
		{"user with status", ListFilter{UserID: "mr-1", Status: entity.ExpenseStatusPending}, []string{"a"}, "user"},
		{"status", ListFilter{Status: entity.ExpenseStatusFlagged}, []string{"a", "b"}, "status:flagged"},
		{"default is pending queue", ListFilter{}, []string{"a", "b"}, "status:pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExpenseFixture()
			var via string
			f.expenses.listByDateRangeFunc = func(ctx context.Context, userID string, from, to time.Time) ([]*entity.Expense, error) {
				via = "range"
				assert.Equal(t, march, from)
				assert.Equal(t, 9999, to.Year())
				return mixed, nil
			}
			f.expenses.listByUserFunc = func(ctx context.Context, userID string, limit, offset int) ([]*entity.Expense, error) {
				via = "user"
				assert.Equal(t, 50, limit)
				return mixed, nil
			}
			f.expenses.listByStatusFunc = func(ctx context.Context, status string, limit, offset int) ([]*entity.Expense, error) {
				via = "status:" + status
				return mixed, nil
			}

			got, err := f.svc.List(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantVia, via)

			var ids []string
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestExpenseService_Summary(t *testing.T) {
	f := newExpenseFixture()
	f.expenses.listByDateRangeFunc = func(ctx context.Context, userID string, from, to time.Time) ([]*entity.Expense, error) {
		assert.Equal(t, "mr-1", userID)
		return []*entity.Expense{
			{CalculatedDA: d("100"), CalculatedTA: d("112.5"), TotalExpense: d("712.5")},
			{CalculatedDA: d("100"), CalculatedTA: d("0"), TotalExpense: d("100")},
		}, nil
	}

	got, err := f.svc.Summary(context.Background(), "mr-1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.True(t, got.TotalExpenses.Equal(d("812.5")))
	assert.True(t, got.TotalHotel.Equal(d("500")))
	assert.True(t, got.AverageExpense.Equal(d("406.25")))
}

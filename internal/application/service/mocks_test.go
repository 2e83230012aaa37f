package service

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/field-expense/internal/ai"
	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/domain/entity"
)

type mockExpenseRepo struct {
	createFunc          func(ctx context.Context, e *entity.Expense) error
	getByIDFunc         func(ctx context.Context, id string) (*entity.Expense, error)
	listByUserFunc      func(ctx context.Context, userID string, limit, offset int) ([]*entity.Expense, error)
	listByStatusFunc    func(ctx context.Context, status string, limit, offset int) ([]*entity.Expense, error)
	listByDateRangeFunc func(ctx context.Context, userID string, from, to time.Time) ([]*entity.Expense, error)
	updateStatusFunc    func(ctx context.Context, id string, u port.StatusUpdate) error

	created []*entity.Expense
}

func (m *mockExpenseRepo) Create(ctx context.Context, e *entity.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, e)
	}
	m.created = append(m.created, e)
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockExpenseRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Expense, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID, limit, offset)
	}
	return []*entity.Expense{}, nil
}

func (m *mockExpenseRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Expense, error) {
	if m.listByStatusFunc != nil {
		return m.listByStatusFunc(ctx, status, limit, offset)
	}
	return []*entity.Expense{}, nil
}

func (m *mockExpenseRepo) ListByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*entity.Expense, error) {
	if m.listByDateRangeFunc != nil {
		return m.listByDateRangeFunc(ctx, userID, from, to)
	}
	return []*entity.Expense{}, nil
}

func (m *mockExpenseRepo) UpdateStatus(ctx context.Context, id string, u port.StatusUpdate) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, u)
	}
	return nil
}

func (m *mockExpenseRepo) ListImageHashes(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

type mockUploadRepo struct {
	uploads  map[string]*entity.ImageUpload
	createFn func(ctx context.Context, u *entity.ImageUpload) error
	attached map[string]string
}

func newMockUploadRepo(uploads ...*entity.ImageUpload) *mockUploadRepo {
	m := &mockUploadRepo{uploads: map[string]*entity.ImageUpload{}, attached: map[string]string{}}
	for _, u := range uploads {
		m.uploads[u.Ref] = u
	}
	return m
}

func (m *mockUploadRepo) Create(ctx context.Context, u *entity.ImageUpload) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	m.uploads[u.Ref] = u
	return nil
}

func (m *mockUploadRepo) GetByRef(ctx context.Context, ref string) (*entity.ImageUpload, error) {
	return m.uploads[ref], nil
}

func (m *mockUploadRepo) AttachToExpense(ctx context.Context, refs []string, expenseID string) error {
	for _, ref := range refs {
		m.attached[ref] = expenseID
	}
	return nil
}

type mockHistoryRepo struct {
	createFunc func(ctx context.Context, h *entity.StatusHistory) error
	records    []*entity.StatusHistory
}

func (m *mockHistoryRepo) Create(ctx context.Context, h *entity.StatusHistory) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, h)
	}
	m.records = append(m.records, h)
	return nil
}

func (m *mockHistoryRepo) ListByExpense(ctx context.Context, expenseID string) ([]*entity.StatusHistory, error) {
	return m.records, nil
}

type mockNotificationRepo struct {
	created     []*entity.Notification
	pending     []*entity.Notification
	listErr     error
	sent        []int64
	failed      []int64
	gaveUp      []int64
	maxAttempts int
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) ListPending(ctx context.Context, maxAttempts, limit int) ([]*entity.Notification, error) {
	m.maxAttempts = maxAttempts
	return m.pending, m.listErr
}

func (m *mockNotificationRepo) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	m.sent = append(m.sent, id)
	return nil
}

func (m *mockNotificationRepo) MarkFailed(ctx context.Context, id int64, errMsg string, giveUp bool) error {
	m.failed = append(m.failed, id)
	if giveUp {
		m.gaveUp = append(m.gaveUp, id)
	}
	return nil
}

type mockSettingsRepo struct {
	stored  *entity.AppSettings
	getErr  error
	getCall int
	saves   int
}

func (m *mockSettingsRepo) Get(ctx context.Context) (*entity.AppSettings, error) {
	m.getCall++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.stored == nil {
		return nil, nil
	}
	s := *m.stored
	return &s, nil
}

func (m *mockSettingsRepo) Save(ctx context.Context, s *entity.AppSettings) error {
	m.saves++
	stored := *s
	m.stored = &stored
	return nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type recordingMetrics struct {
	mu          sync.Mutex
	submissions []string
	issues      []string
	decisions   []string
	verdicts    []string
}

func (m *recordingMetrics) SubmissionObserved(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, outcome)
}

func (m *recordingMetrics) ValidationIssueObserved(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues = append(m.issues, code)
}

func (m *recordingMetrics) DecisionObserved(decision string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, decision)
}

func (m *recordingMetrics) ImageVerdictObserved(kind, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts = append(m.verdicts, kind+":"+action)
}

type mockValidator struct {
	odometerFunc func(ctx context.Context, req ai.OdometerImage) (*entity.ImageVerdict, error)
	billFunc     func(ctx context.Context, req ai.BillImage) (*entity.ImageVerdict, error)
}

func (m *mockValidator) ValidateOdometer(ctx context.Context, req ai.OdometerImage) (*entity.ImageVerdict, error) {
	return m.odometerFunc(ctx, req)
}

func (m *mockValidator) ValidateBill(ctx context.Context, req ai.BillImage) (*entity.ImageVerdict, error) {
	return m.billFunc(ctx, req)
}

type mockPhotoStore struct {
	saved   map[string][]byte
	saveErr error
	deleted []string
}

func newMockPhotoStore() *mockPhotoStore {
	return &mockPhotoStore{saved: map[string][]byte{}}
}

func (m *mockPhotoStore) Key(userID, kind, ref, mimeType string) string {
	return userID + "/" + kind + "/" + ref
}

func (m *mockPhotoStore) Save(ctx context.Context, key string, content []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[key] = content
	return nil
}

func (m *mockPhotoStore) Read(ctx context.Context, key string) ([]byte, error) {
	return m.saved[key], nil
}

func (m *mockPhotoStore) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.saved, key)
	return nil
}

type mockSender struct {
	sendFunc func(ctx context.Context, receiveID, content string) (string, error)
	sent     []string
}

func (m *mockSender) SendText(ctx context.Context, receiveID, content string) (string, error) {
	m.sent = append(m.sent, receiveID)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, receiveID, content)
	}
	return "msg-1", nil
}

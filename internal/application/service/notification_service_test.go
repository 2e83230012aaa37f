package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_ProcessPending(t *testing.T) {
	repo := &mockNotificationRepo{
		pending: []*entity.Notification{
			{ID: 1, RecipientID: "mgr-1", Content: "a"},
			{ID: 2, RecipientID: "broken", Content: "b", Attempts: 0},
			{ID: 3, RecipientID: "broken", Content: "c", Attempts: 2},
			{ID: 4, RecipientID: "mr-1", Content: "d"},
		},
	}
	sender := &mockSender{
		sendFunc: func(ctx context.Context, receiveID, content string) (string, error) {
			if receiveID == "broken" {
				return "", errors.New("invalid receive_id")
			}
			return "om_1", nil
		},
	}
	svc := NewNotificationService(repo, sender, 3, 10,
		clock.NewFakeClock(time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)), &mockLogger{})

	stats, err := svc.ProcessPending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DeliveryStats{Sent: 2, Failed: 2}, stats)
	assert.Equal(t, 3, repo.maxAttempts)
	assert.Equal(t, []int64{1, 4}, repo.sent)
	assert.Equal(t, []int64{2, 3}, repo.failed)
	assert.Equal(t, []int64{3}, repo.gaveUp)
	assert.Equal(t, []string{"mgr-1", "broken", "broken", "mr-1"}, sender.sent)
}

func TestNotificationService_ListError(t *testing.T) {
	repo := &mockNotificationRepo{listErr: errors.New("db down")}
	svc := NewNotificationService(repo, &mockSender{}, 0, 0, clock.NewSystem(time.UTC), &mockLogger{})

	_, err := svc.ProcessPending(context.Background())
	assert.Error(t, err)
}

func TestNotificationService_StopsOnCancelledContext(t *testing.T) {
	repo := &mockNotificationRepo{pending: []*entity.Notification{{ID: 1, RecipientID: "mgr-1"}}}
	sender := &mockSender{}
	svc := NewNotificationService(repo, sender, 3, 10, clock.NewSystem(time.UTC), &mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ProcessPending(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sender.sent)
}

func TestLogSender(t *testing.T) {
	id, err := NewLogSender(&mockLogger{}).SendText(context.Background(), "mgr-1", "hello")
	require.NoError(t, err)
	assert.Empty(t, id)
}

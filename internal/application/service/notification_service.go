package service

import (
	"context"
	"fmt"

	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/clock"
)

// DeliveryStats counts one outbox pass
type DeliveryStats struct {
	Sent   int
	Failed int
}

// NotificationService drains the notification outbox
type NotificationService interface {
	ProcessPending(ctx context.Context) (DeliveryStats, error)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	sender           port.MessageSender
	maxAttempts      int
	batchSize        int
	clock            clock.Clock
	logger           Logger
}

// NewNotificationService creates a new NotificationService. Each notification
// is tried at most maxAttempts times.
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	sender port.MessageSender,
	maxAttempts int,
	batchSize int,
	c clock.Clock,
	logger Logger,
) NotificationService {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		sender:           sender,
		maxAttempts:      maxAttempts,
		batchSize:        batchSize,
		clock:            c,
		logger:           logger,
	}
}

// ProcessPending sends one batch of pending notifications. A failed send is
// recorded on the row and does not stop the batch.
func (s *notificationServiceImpl) ProcessPending(ctx context.Context) (DeliveryStats, error) {
	var stats DeliveryStats

	pending, err := s.notificationRepo.ListPending(ctx, s.maxAttempts, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to list pending notifications", "error", err)
		return stats, fmt.Errorf("list pending notifications: %w", err)
	}

	for _, n := range pending {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		messageID, sendErr := s.sender.SendText(ctx, n.RecipientID, n.Content)
		if sendErr != nil {
			stats.Failed++
			giveUp := n.Attempts+1 >= s.maxAttempts
			s.logger.Error("Failed to send notification",
				"error", sendErr,
				"notification_id", n.ID,
				"expense_id", n.ExpenseID,
				"attempt", n.Attempts+1,
				"give_up", giveUp,
			)
			if err := s.notificationRepo.MarkFailed(ctx, n.ID, sendErr.Error(), giveUp); err != nil {
				return stats, fmt.Errorf("mark notification failed: %w", err)
			}
			continue
		}

		if err := s.notificationRepo.MarkSent(ctx, n.ID, s.clock.Now()); err != nil {
			return stats, fmt.Errorf("mark notification sent: %w", err)
		}
		stats.Sent++

		s.logger.Info("Notification sent",
			"notification_id", n.ID,
			"expense_id", n.ExpenseID,
			"event", n.Event,
			"message_id", messageID,
		)
	}

	return stats, nil
}

// LogSender stands in for a messenger when none is configured
type LogSender struct {
	logger Logger
}

// NewLogSender creates a sender that only logs
func NewLogSender(logger Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendText logs the message and reports it delivered
func (l *LogSender) SendText(ctx context.Context, receiveID, content string) (string, error) {
	l.logger.Info("Notification (messaging disabled)", "receive_id", receiveID, "content", content)
	return "", nil
}

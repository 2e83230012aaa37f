package expense

import (
	"fmt"
	"time"

	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/domain/entity"
)

// EntryWindow tells the caller whether expenses may be entered right now
type EntryWindow struct {
	Allowed       bool   `json:"allowed"`
	Message       string `json:"message"`
	TimeRemaining string `json:"time_remaining,omitempty"`
}

// IsEntryAllowed reads the clock exactly once and checks the entry window
func IsEntryAllowed(s entity.AppSettings, c clock.Clock) EntryWindow {
	return CheckEntryWindow(s, c.Now())
}

// CheckEntryWindow allows entry once the local hour reaches the start hour.
// Minutes inside the start hour do not matter.
func CheckEntryWindow(s entity.AppSettings, now time.Time) EntryWindow {
	startHour := s.ExpenseEntryStartHour
	currentHour := now.Hour()

	if currentHour >= startHour {
		return EntryWindow{
			Allowed: true,
			Message: "Expense entry is allowed",
		}
	}

	// minutes count up to the next full hour, so that hour is not counted twice
	hoursRemaining := startHour - currentHour - 1
	minutesRemaining := 60 - now.Minute()

	return EntryWindow{
		Allowed:       false,
		Message:       fmt.Sprintf("Expense entry is only allowed after %d:00 (%s)", startHour, formatHour12(startHour)),
		TimeRemaining: fmt.Sprintf("%dh %dm remaining", hoursRemaining, minutesRemaining),
	}
}

func formatHour12(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}

package hos

import (
	"time"

	"truck_log/internal/models"
)

// EventKind tags a schedule event. The set is closed; statusForEvent maps
// every kind onto a log-sheet duty status.
type EventKind string

const (
	EventDriving EventKind = "driving"
	EventBreak   EventKind = "break"
	EventSleeper EventKind = "sleeper"
	EventOnDuty  EventKind = "on_duty"
)

// ScheduleEvent is one interval on the simulated HOS timeline. Events for a
// trip are contiguous: each event ends exactly where the next one starts.
// They are never persisted; stops and log entries are derived from them.
type ScheduleEvent struct {
	Start       time.Time
	End         time.Time
	Kind        EventKind
	Location    string
	Description string
}

// statusForEvent maps an event kind to the duty status recorded on the
// daily log sheet. Breaks count as on-duty time.
func statusForEvent(kind EventKind) models.DutyStatus {
	switch kind {
	case EventDriving:
		return models.StatusDriving
	case EventSleeper:
		return models.StatusSleeper
	case EventBreak, EventOnDuty:
		return models.StatusOnDuty
	default:
		return models.StatusOnDuty
	}
}

package hos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truck_log/internal/models"
)

func testTrip() *models.Trip {
	return &models.Trip{
		CurrentLocation: "New York, NY",
		PickupLocation:  "New York, NY",
		DropoffLocation: "Los Angeles, CA",
	}
}

func tripStart() time.Time {
	return time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
}

// assertContiguous checks that each event ends exactly where the next starts.
func assertContiguous(t *testing.T, events []ScheduleEvent) {
	t.Helper()
	for i := 1; i < len(events); i++ {
		assert.True(t, events[i].Start.Equal(events[i-1].End),
			"event %d starts at %v but previous ends at %v", i, events[i].Start, events[i-1].End)
	}
}

func totalDrivingHours(events []ScheduleEvent) float64 {
	total := 0.0
	for _, ev := range events {
		if ev.Kind == EventDriving {
			total += ev.End.Sub(ev.Start).Hours()
		}
	}
	return total
}

func TestGenerateEventsShortTrip(t *testing.T) {
	s := NewScheduler(DefaultConstraints())

	events, err := s.generateEvents(testTrip(), 6, tripStart())
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, EventDriving, events[0].Kind)
	assert.Equal(t, tripStart(), events[0].Start)
	assert.Equal(t, tripStart().Add(6*time.Hour), events[0].End)
	assert.Equal(t, "Los Angeles, CA", events[0].Location)
}

func TestGenerateEventsBreakAfterEightHours(t *testing.T) {
	s := NewScheduler(DefaultConstraints())

	events, err := s.generateEvents(testTrip(), 10, tripStart())
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, EventDriving, events[0].Kind)
	assert.Equal(t, 8.0, events[0].End.Sub(events[0].Start).Hours())
	assert.Equal(t, EventBreak, events[1].Kind)
	assert.Equal(t, 30*time.Minute, events[1].End.Sub(events[1].Start))
	assert.Equal(t, EventDriving, events[2].Kind)
	assert.Equal(t, 2.0, events[2].End.Sub(events[2].Start).Hours())

	assertContiguous(t, events)
	assert.InDelta(t, 10, totalDrivingHours(events), 1e-9)
}

func TestGenerateEventsLongTrip(t *testing.T) {
	s := NewScheduler(DefaultConstraints())

	// 2800 miles at 50 mph
	events, err := s.generateEvents(testTrip(), 56, tripStart())
	require.NoError(t, err)

	assertContiguous(t, events)
	assert.InDelta(t, 56, totalDrivingHours(events), 1e-9)

	sleepers := 0
	for _, ev := range events {
		if ev.Kind == EventSleeper {
			sleepers++
			assert.Equal(t, 10.0, ev.End.Sub(ev.Start).Hours())
		}
	}
	assert.Greater(t, sleepers, 0, "multi-day trip must include sleeper berth time")

	var lastDriving *ScheduleEvent
	for i := range events {
		if events[i].Kind == EventDriving {
			lastDriving = &events[i]
		}
	}
	require.NotNil(t, lastDriving)
	assert.Equal(t, "Los Angeles, CA", lastDriving.Location)

	// The trip spans multiple calendar days.
	first := events[0].Start
	last := events[len(events)-1].End
	assert.True(t, last.Sub(first) > 48*time.Hour)
}

func TestGenerateEventsEnRouteProgress(t *testing.T) {
	s := NewScheduler(DefaultConstraints())

	events, err := s.generateEvents(testTrip(), 16, tripStart())
	require.NoError(t, err)

	require.NotEmpty(t, events)
	assert.Equal(t, EventDriving, events[0].Kind)
	// First 8-hour chunk of a 16-hour drive is 50% of the distance.
	assert.Equal(t, "En route to Los Angeles, CA (50%)", events[0].Location)
}

func TestGenerateEventsCustomConstraints(t *testing.T) {
	s := NewScheduler(Constraints{
		MaxDrivingHours:        8,
		MaxDutyHours:           12,
		BreakAfterDrivingHours: 6,
		BreakDurationMinutes:   45,
		SleeperBerthHours:      10,
		MaxHours8Days:          70,
		MaxHours7Days:          60,
	})

	// Five hours is below the six-hour break trigger: one contiguous drive.
	events, err := s.generateEvents(testTrip(), 5, tripStart())
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, EventDriving, events[0].Kind)
	assert.Equal(t, 5.0, events[0].End.Sub(events[0].Start).Hours())
}

func TestGenerateEventsInvalidInput(t *testing.T) {
	s := NewScheduler(DefaultConstraints())

	for _, hours := range []float64{0, -3} {
		_, err := s.generateEvents(testTrip(), hours, tripStart())
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestCalculateTripScheduleInvalidSpeed(t *testing.T) {
	s := NewScheduler(DefaultConstraints())

	_, _, err := s.CalculateTripSchedule(testTrip(), 300, tripStart(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScheduleTripShortTrip(t *testing.T) {
	stops, entries, err := ScheduleTrip(testTrip(), 300, tripStart(), 50)
	require.NoError(t, err)

	assert.Empty(t, stops, "six-hour drive needs no rest stops")
	require.Len(t, entries, 1)
	assert.Equal(t, models.StatusDriving, entries[0].Status)
	assert.Equal(t, "06:00:00", entries[0].StartHour)
	assert.Equal(t, "12:00:00", entries[0].EndHour)
	assert.True(t, entries[0].Day.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestScheduleTripWithBreak(t *testing.T) {
	stops, entries, err := ScheduleTrip(testTrip(), 500, tripStart(), 50)
	require.NoError(t, err)

	require.Len(t, stops, 1)
	assert.Equal(t, models.StopRest, stops[0].Type)
	assert.Equal(t, 30*time.Minute, stops[0].EndTime.Sub(stops[0].StartTime))

	require.Len(t, entries, 3)
	assert.Equal(t, models.StatusDriving, entries[0].Status)
	assert.Equal(t, "06:00:00", entries[0].StartHour)
	assert.Equal(t, "14:00:00", entries[0].EndHour)
	assert.Equal(t, models.StatusOnDuty, entries[1].Status)
	assert.Equal(t, "14:00:00", entries[1].StartHour)
	assert.Equal(t, "14:30:00", entries[1].EndHour)
	assert.Equal(t, models.StatusDriving, entries[2].Status)
	assert.Equal(t, "14:30:00", entries[2].StartHour)
	assert.Equal(t, "16:30:00", entries[2].EndHour)
}

func TestLogEntriesCompaction(t *testing.T) {
	s := NewScheduler(DefaultConstraints())

	trip := testTrip()
	events, err := s.generateEvents(trip, 56, tripStart())
	require.NoError(t, err)

	entries := s.logEntriesFromEvents(trip, events)
	require.NotEmpty(t, entries)

	// Per day: sorted, non-overlapping, maximally merged.
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if !prev.Day.Equal(cur.Day) {
			continue
		}
		assert.LessOrEqual(t, prev.StartHour, cur.StartHour, "entries within a day must be ordered")
		assert.NotEqual(t, prev.Status, cur.Status, "adjacent entries of one status must be merged")
	}

	// Total driving hours on the sheets match the requested driving time;
	// Hours() compensates for entries that cross midnight.
	total := 0.0
	for _, entry := range entries {
		if entry.Status == models.StatusDriving {
			total += entry.Hours()
		}
	}
	assert.InDelta(t, 56, total, 1e-6)

	// Compacting twice produces the same sheets.
	again := s.logEntriesFromEvents(trip, events)
	assert.Equal(t, entries, again)

	// Four calendar days: Jan 1 through Jan 4.
	days := map[string]bool{}
	for _, entry := range entries {
		days[entry.Day.Format("2006-01-02")] = true
	}
	assert.Len(t, days, 4)
}

func TestStopsFromEventsOnlyRest(t *testing.T) {
	s := NewScheduler(DefaultConstraints())

	trip := testTrip()
	events, err := s.generateEvents(trip, 56, tripStart())
	require.NoError(t, err)

	stops := s.stopsFromEvents(trip, events)
	require.NotEmpty(t, stops)
	for _, stop := range stops {
		assert.Equal(t, models.StopRest, stop.Type)
		assert.True(t, stop.EndTime.After(stop.StartTime))
	}

	breaks, sleepers := 0, 0
	for _, ev := range events {
		switch ev.Kind {
		case EventBreak:
			breaks++
		case EventSleeper:
			sleepers++
		}
	}
	assert.Equal(t, breaks+sleepers, len(stops))
}

func drivingEntry(day time.Time, start, end string) models.LogEntry {
	return models.LogEntry{
		Day:       day,
		Status:    models.StatusDriving,
		StartHour: start,
		EndHour:   end,
		Location:  "I-80",
	}
}

func TestValidateRollingWindow(t *testing.T) {
	s := NewScheduler(DefaultConstraints())
	checkDate := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	// Seven 10-hour driving days inside the window: exactly 70 hours.
	var entries []models.LogEntry
	for i := 0; i < 7; i++ {
		day := time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		entries = append(entries, drivingEntry(day, "06:00:00", "16:00:00"))
	}
	assert.True(t, s.ValidateRollingWindow(entries, checkDate), "exactly 70 hours is compliant")

	// Entries outside the window are ignored.
	old := drivingEntry(time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC), "00:00:00", "23:00:00")
	assert.True(t, s.ValidateRollingWindow(append(entries, old), checkDate))

	// Off-duty and sleeper time never counts toward the cap.
	sleeper := models.LogEntry{
		Day:       time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Status:    models.StatusSleeper,
		StartHour: "16:00:00",
		EndHour:   "23:00:00",
	}
	assert.True(t, s.ValidateRollingWindow(append(entries, sleeper), checkDate))

	// 36 extra seconds push the total to 70.01 hours.
	entries[6].EndHour = "16:00:36"
	assert.False(t, s.ValidateRollingWindow(entries, checkDate))
}

func TestValidateRollingWindowOvernightEntry(t *testing.T) {
	s := NewScheduler(DefaultConstraints())
	checkDate := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	// An entry whose end hour reads before its start hour spans midnight and
	// counts as an overnight period.
	entries := []models.LogEntry{
		drivingEntry(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "22:00:00", "02:00:00"),
	}
	assert.True(t, s.ValidateRollingWindow(entries, checkDate))
	assert.InDelta(t, 4, entries[0].Hours(), 1e-9)
}

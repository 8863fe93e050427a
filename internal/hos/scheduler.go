package hos

import (
	"fmt"
	"math"
	"sort"
	"time"

	"truck_log/internal/models"
)

// referenceSpeedMPH is the speed assumed for progress interpolation of
// "en route" locations. It is fixed regardless of the average speed used to
// derive total driving hours, so the two can disagree; fuel-stop placement
// uses the same reference figure.
const referenceSpeedMPH = 50.0

// hoursEpsilon absorbs float dust when comparing accumulated hours.
const hoursEpsilon = 1e-9

// Scheduler produces HOS-compliant trip schedules. Every method is a pure
// function of its inputs; a single Scheduler may be shared across trips.
type Scheduler struct {
	constraints Constraints
}

func NewScheduler(constraints Constraints) *Scheduler {
	return &Scheduler{constraints: constraints}
}

// CalculateTripSchedule converts a trip distance into driving time at
// averageSpeed and returns the rest stops and daily log entries of a
// compliant schedule starting at startTime.
func (s *Scheduler) CalculateTripSchedule(
	trip *models.Trip,
	distanceMiles float64,
	startTime time.Time,
	averageSpeed float64,
) ([]models.Stop, []models.LogEntry, error) {
	if averageSpeed <= 0 {
		return nil, nil, fmt.Errorf("%w: average speed must be positive, got %v", ErrInvalidInput, averageSpeed)
	}

	totalDrivingHours := distanceMiles / averageSpeed

	events, err := s.generateEvents(trip, totalDrivingHours, startTime)
	if err != nil {
		return nil, nil, err
	}

	stops := s.stopsFromEvents(trip, events)
	logEntries := s.logEntriesFromEvents(trip, events)

	return stops, logEntries, nil
}

// generateEvents runs the simulated clock until all driving hours are
// scheduled. The loop terminates because remaining driving time strictly
// decreases on every driving chunk and every other branch advances the
// clock a bounded amount per iteration.
func (s *Scheduler) generateEvents(
	trip *models.Trip,
	totalDrivingHours float64,
	startTime time.Time,
) ([]ScheduleEvent, error) {
	if totalDrivingHours <= 0 {
		return nil, fmt.Errorf("%w: total driving hours must be positive, got %v", ErrInvalidInput, totalDrivingHours)
	}

	c := s.constraints

	var events []ScheduleEvent
	currentTime := startTime
	remaining := totalDrivingHours
	currentLocation := trip.PickupLocation

	drivingToday := 0.0
	dutyStart := startTime

	for remaining > hoursEpsilon {
		// Duty window exhausted: sleeper berth takes priority over anything else.
		if !currentTime.Before(dutyStart.Add(durationHours(c.MaxDutyHours))) {
			sleeperEnd := currentTime.Add(durationHours(c.SleeperBerthHours))
			events = append(events, ScheduleEvent{
				Start:       currentTime,
				End:         sleeperEnd,
				Kind:        EventSleeper,
				Location:    currentLocation,
				Description: fmt.Sprintf("%.0f-hour sleeper berth break", c.SleeperBerthHours),
			})
			currentTime = sleeperEnd
			drivingToday = 0
			dutyStart = currentTime
			continue
		}

		// Break required once the trigger hours accumulate and driving remains.
		if drivingToday >= c.BreakAfterDrivingHours && remaining > hoursEpsilon {
			breakEnd := currentTime.Add(time.Duration(c.BreakDurationMinutes) * time.Minute)
			events = append(events, ScheduleEvent{
				Start:       currentTime,
				End:         breakEnd,
				Kind:        EventBreak,
				Location:    currentLocation,
				Description: fmt.Sprintf("%d-minute break after %.0f hours driving", c.BreakDurationMinutes, c.BreakAfterDrivingHours),
			})
			currentTime = breakEnd
			drivingToday = 0
		}

		maxDrivingToday := math.Min(c.MaxDrivingHours-drivingToday, remaining)
		if maxDrivingToday > 0 {
			chunk := maxDrivingToday
			// Fresh segment with more than the trigger available: drive up to
			// the trigger first so the break lands where it must.
			if drivingToday == 0 && maxDrivingToday > c.BreakAfterDrivingHours {
				chunk = c.BreakAfterDrivingHours
			}

			drivingEnd := currentTime.Add(durationHours(chunk))

			if chunk >= remaining-hoursEpsilon {
				currentLocation = trip.DropoffLocation
			} else {
				drivenMiles := (totalDrivingHours - remaining + chunk) * referenceSpeedMPH
				progress := drivenMiles / (totalDrivingHours * referenceSpeedMPH)
				currentLocation = fmt.Sprintf("En route to %s (%.0f%%)", trip.DropoffLocation, progress*100)
			}

			events = append(events, ScheduleEvent{
				Start:       currentTime,
				End:         drivingEnd,
				Kind:        EventDriving,
				Location:    currentLocation,
				Description: fmt.Sprintf("Driving %.1f hours", chunk),
			})
			currentTime = drivingEnd
			drivingToday += chunk
			remaining -= chunk
		}

		// Daily driving cap hit with work left: fill out the duty window on
		// duty, then take the sleeper berth.
		if remaining > hoursEpsilon && drivingToday >= c.MaxDrivingHours {
			dutyEnd := dutyStart.Add(durationHours(c.MaxDutyHours))
			if currentTime.Before(dutyEnd) {
				events = append(events, ScheduleEvent{
					Start:       currentTime,
					End:         dutyEnd,
					Kind:        EventOnDuty,
					Location:    currentLocation,
					Description: "On-duty, not driving",
				})
				currentTime = dutyEnd
			}

			sleeperEnd := currentTime.Add(durationHours(c.SleeperBerthHours))
			events = append(events, ScheduleEvent{
				Start:       currentTime,
				End:         sleeperEnd,
				Kind:        EventSleeper,
				Location:    currentLocation,
				Description: fmt.Sprintf("%.0f-hour sleeper berth break", c.SleeperBerthHours),
			})
			currentTime = sleeperEnd
			drivingToday = 0
			dutyStart = currentTime
		}
	}

	return events, nil
}

// stopsFromEvents extracts externally visible rest stops. Only break and
// sleeper events become stops; driving and on-duty events do not.
func (s *Scheduler) stopsFromEvents(trip *models.Trip, events []ScheduleEvent) []models.Stop {
	var stops []models.Stop
	for _, ev := range events {
		if ev.Kind != EventBreak && ev.Kind != EventSleeper {
			continue
		}
		stops = append(stops, models.Stop{
			TripID:    trip.ID,
			Location:  ev.Location,
			Type:      models.StopRest,
			StartTime: ev.Start,
			EndTime:   ev.End,
		})
	}
	return stops
}

// logEntriesFromEvents compacts the event timeline into daily log entries:
// events are grouped by the calendar day they start on, and maximal runs of
// same-status events merge into a single entry.
//
// An event that crosses midnight stays on its start day, so the resulting
// entry's EndHour can read earlier than its StartHour. Downstream consumers
// rely on this shape; Hours() compensates when summing.
func (s *Scheduler) logEntriesFromEvents(trip *models.Trip, events []ScheduleEvent) []models.LogEntry {
	byDay := make(map[time.Time][]ScheduleEvent)
	var days []time.Time
	for _, ev := range events {
		day := dateOf(ev.Start)
		if _, ok := byDay[day]; !ok {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], ev)
	}

	var entries []models.LogEntry
	for _, day := range days {
		dayEvents := byDay[day]
		sort.SliceStable(dayEvents, func(i, j int) bool {
			return dayEvents[i].Start.Before(dayEvents[j].Start)
		})

		var (
			haveRun     bool
			runStatus   models.DutyStatus
			runStart    time.Time
			runEnd      time.Time
			runLocation string
		)
		flush := func() {
			entries = append(entries, models.LogEntry{
				TripID:    trip.ID,
				Day:       day,
				Status:    runStatus,
				StartHour: runStart.Format(models.HourLayout),
				EndHour:   runEnd.Format(models.HourLayout),
				Location:  runLocation,
			})
		}

		for _, ev := range dayEvents {
			status := statusForEvent(ev.Kind)
			if !haveRun || status != runStatus {
				if haveRun {
					flush()
				}
				haveRun = true
				runStatus = status
				runStart = ev.Start
				runEnd = ev.End
				runLocation = ev.Location
				continue
			}
			runEnd = ev.End
		}
		if haveRun {
			flush()
		}
	}

	return entries
}

// ValidateRollingWindow reports whether driving plus on-duty hours inside the
// inclusive 8-day window ending at checkDate stay within the 70-hour cap.
func (s *Scheduler) ValidateRollingWindow(entries []models.LogEntry, checkDate time.Time) bool {
	windowEnd := dateOf(checkDate)
	windowStart := windowEnd.AddDate(0, 0, -7)

	total := 0.0
	for _, entry := range entries {
		day := dateOf(entry.Day)
		if day.Before(windowStart) || day.After(windowEnd) {
			continue
		}
		if entry.Status != models.StatusDriving && entry.Status != models.StatusOnDuty {
			continue
		}
		total += entry.Hours()
	}

	return total <= s.constraints.MaxHours8Days
}

func durationHours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// dateOf truncates a timestamp to midnight of its calendar day.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

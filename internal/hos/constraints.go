package hos

// Constraints holds the Hours of Service regulation parameters:
// 11-hour driving limit, 14-hour duty window, 30-minute break after
// 8 hours driving, 10-hour sleeper berth, 70/8 rolling rule.
type Constraints struct {
	MaxDrivingHours        float64
	MaxDutyHours           float64
	BreakAfterDrivingHours float64
	BreakDurationMinutes   int
	SleeperBerthHours      float64
	MaxHours8Days          float64
	MaxHours7Days          float64
}

// DefaultConstraints returns the standard DOT property-carrying limits.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxDrivingHours:        11,
		MaxDutyHours:           14,
		BreakAfterDrivingHours: 8,
		BreakDurationMinutes:   30,
		SleeperBerthHours:      10,
		MaxHours8Days:          70,
		MaxHours7Days:          60,
	}
}

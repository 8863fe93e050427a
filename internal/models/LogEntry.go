package models

import (
	"time"

	"gorm.io/gorm"
)

// DutyStatus is the driver's status during a log-entry period.
type DutyStatus string

const (
	StatusOff     DutyStatus = "off"
	StatusSleeper DutyStatus = "sleeper"
	StatusDriving DutyStatus = "driving"
	StatusOnDuty  DutyStatus = "on-duty"
)

// HourLayout is the wire/storage format for StartHour and EndHour.
const HourLayout = "15:04:05"

// LogEntry is one status period on a daily driver log sheet.
// StartHour and EndHour are times of day on Day. An entry produced from an
// event that crossed midnight keeps its start day, so EndHour may read
// earlier than StartHour.
type LogEntry struct {
	gorm.Model

	TripID    uint       `json:"trip_id" gorm:"index;uniqueIndex:idx_trip_day_start"`
	Day       time.Time  `json:"day" gorm:"type:date;uniqueIndex:idx_trip_day_start"`
	Status    DutyStatus `json:"status" gorm:"type:varchar(10)"`
	StartHour string     `json:"start_hour" gorm:"type:time;uniqueIndex:idx_trip_day_start"`
	EndHour   string     `json:"end_hour" gorm:"type:time"`
	Location  string     `json:"location"`
}

// Hours returns the entry duration in hours, treating EndHour earlier than
// StartHour as an overnight period.
func (e LogEntry) Hours() float64 {
	start, err := time.Parse(HourLayout, e.StartHour)
	if err != nil {
		return 0
	}
	end, err := time.Parse(HourLayout, e.EndHour)
	if err != nil {
		return 0
	}
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}
	return end.Sub(start).Hours()
}

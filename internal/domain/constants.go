package domain

import "time"

// Default configuration values
const (
	DefaultHoldTTLMinutes = 15
)

// Business validation constants
const (
	MinSlotDurationMinutes      = 5
	MaxSlotDurationMinutes      = 480 // 8 hours
	MaxSlotsPerBooking          = 24
	MaxCancellationReasonLength = 500
	MaxAdminNotesLength         = 1000
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses statuses that occupy slots
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
}

// ParseDate парсит дату "YYYY-MM-DD" как полночь в часовом поясе сервиса (time.Local)
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.Local)
}

// DateOf приводит дату из БД или другого пояса к полуночи в часовом поясе сервиса
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

package scheduling

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrClinicClosed       = errors.New("clinic is closed for this day")
	ErrHoursNotConfigured = errors.New("clinic hours are not configured")
	ErrOutsideHours       = errors.New("appointment time is outside clinic hours")
	ErrNotAligned         = errors.New("appointment time is not aligned to slot duration")
)

// parseTimeToMinutes converts "HH:MM" to minutes since midnight.
func parseTimeToMinutes(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// ValidateWithinHours checks a candidate start against a day's operating
// window. Checks run in order and short-circuit: closed day, unparsable
// hours, window containment, slot-grid alignment. The slot grid is anchored
// at open time; slotMinutes falls back to the candidate duration when the
// stored value is zero.
func ValidateWithinHours(scheduledAt time.Time, hours *ClinicHours, durationMinutes int) error {
	if hours == nil || hours.IsClosed {
		return ErrClinicClosed
	}

	openMinutes, okOpen := parseTimeToMinutes(hours.OpenTime)
	closeMinutes, okClose := parseTimeToMinutes(hours.CloseTime)
	if !okOpen || !okClose {
		return ErrHoursNotConfigured
	}

	startMinutes := scheduledAt.Hour()*60 + scheduledAt.Minute()
	endMinutes := startMinutes + durationMinutes

	if startMinutes < openMinutes || endMinutes > closeMinutes {
		return ErrOutsideHours
	}

	slotMinutes := hours.SlotMinutes
	if slotMinutes == 0 {
		slotMinutes = durationMinutes
	}
	if (startMinutes-openMinutes)%slotMinutes != 0 {
		return ErrNotAligned
	}

	return nil
}

// overlaps reports half-open interval intersection: touching endpoints do
// not conflict.
func overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && e1.After(s2)
}

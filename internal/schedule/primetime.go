package schedule

import (
	"regexp"
	"strconv"
	"time"

	"clan-battles/internal/constants"
	"clan-battles/internal/domain"
)

var primeTimePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParsePrimeTime parses a server-local HH:MM prime time.
func ParsePrimeTime(raw string) (domain.ClockTime, error) {
	matches := primeTimePattern.FindStringSubmatch(raw)
	if matches == nil {
		return domain.ClockTime{}, &domain.FormatError{Value: raw}
	}

	h, _ := strconv.Atoi(matches[1])
	m, _ := strconv.Atoi(matches[2])
	if h > 23 || m > 59 {
		return domain.ClockTime{}, &domain.FormatError{Value: raw}
	}
	return domain.ClockTime{Hour: h, Minute: m}, nil
}

// ShiftClock moves a clock time by offsetMinutes, wrapping across midnight.
func ShiftClock(c domain.ClockTime, offsetMinutes int) domain.ClockTime {
	total := mod(c.MinuteOfDay()+offsetMinutes, constants.MinutesPerDay)
	return domain.ClockTime{Hour: total / 60, Minute: total % 60}
}

// ResolvePrimeTime converts a server-local HH:MM into the viewer's clock time.
// offsetMinutes is viewer local minus UTC.
func ResolvePrimeTime(raw string, offsetMinutes int) (domain.ClockTime, error) {
	c, err := ParsePrimeTime(raw)
	if err != nil {
		return domain.ClockTime{}, err
	}
	return ShiftClock(c, offsetMinutes), nil
}

// ViewerZone is the fixed zone for a viewer offset in minutes.
func ViewerZone(offsetMinutes int) *time.Location {
	if offsetMinutes == 0 {
		return time.UTC
	}
	return time.FixedZone("viewer", offsetMinutes*60)
}

// PrimeTimeInstant anchors a server clock time on the viewer's calendar day
// containing now. The shifted time may spill into the next day.
func PrimeTimeInstant(now time.Time, server domain.ClockTime, offsetMinutes int) time.Time {
	local := now.In(ViewerZone(offsetMinutes))
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	return midnight.Add(time.Duration(server.MinuteOfDay()+offsetMinutes) * time.Minute)
}

// InPrimeWindow reports whether t, seen in the viewer's zone, falls within
// window after the prime clock time, wrapping around midnight.
func InPrimeWindow(t time.Time, prime domain.ClockTime, window time.Duration, offsetMinutes int) bool {
	local := t.In(ViewerZone(offsetMinutes))
	minute := local.Hour()*60 + local.Minute()
	delta := mod(minute-prime.MinuteOfDay(), constants.MinutesPerDay)
	return time.Duration(delta)*time.Minute < window
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}

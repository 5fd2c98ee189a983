package schedule

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"clan-battles/internal/constants"
	"clan-battles/internal/domain"
)

// CollisionPolicy decides which round keeps a slot when two rounds of the
// same province bucket onto one key.
type CollisionPolicy string

const (
	LastWins        CollisionPolicy = "last_wins"
	FirstWins       CollisionPolicy = "first_wins"
	PreferContested CollisionPolicy = "prefer_contested"
)

func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return LastWins, nil
	case LastWins, FirstWins, PreferContested:
		return p, nil
	}
	return "", fmt.Errorf("unknown collision policy %q", s)
}

// replaces reports whether incoming takes the slot held by existing.
func (p CollisionPolicy) replaces(existing, incoming domain.Round) bool {
	switch p {
	case FirstWins:
		return false
	case PreferContested:
		return incoming.Participants.Count() >= existing.Participants.Count()
	}
	return true
}

var roundTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// ParseRoundTime parses an upstream round timestamp. Zone-less values are UTC.
func ParseRoundTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range roundTimeLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(raw))
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &domain.ParseError{Value: raw, Err: lastErr}
}

// SlotKeyFor snaps quarter-past and quarter-to rounds back onto the
// on-hour/half-hour grid.
func SlotKeyFor(t time.Time) domain.TimeSlotKey {
	u := t.UTC()
	if m := u.Minute(); m == 15 || m == 45 {
		u = u.Add(-constants.QuarterOffset)
	}
	return domain.TimeSlotKey(u.Format(domain.SlotKeyLayout))
}

// BucketRounds parses and buckets rounds in input order. Unparsable rounds
// are dropped and returned as errors.
func BucketRounds(raw []domain.RawRound, policy CollisionPolicy) (map[domain.TimeSlotKey]domain.Round, []error) {
	rounds := make(map[domain.TimeSlotKey]domain.Round, len(raw))
	var errs []error

	for _, rr := range raw {
		t, err := ParseRoundTime(rr.Time)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		round := domain.Round{Time: t, Title: rr.Title, Participants: rr.Participants}
		key := SlotKeyFor(t)
		if existing, ok := rounds[key]; ok && !policy.replaces(existing, round) {
			continue
		}
		rounds[key] = round
	}

	return rounds, errs
}

// CollectSlots returns the distinct keys of all provinces in ascending order.
func CollectSlots(provinces []domain.Province) []domain.TimeSlotKey {
	seen := make(map[domain.TimeSlotKey]struct{})
	for _, p := range provinces {
		for key := range p.Rounds {
			seen[key] = struct{}{}
		}
	}

	slots := make([]domain.TimeSlotKey, 0, len(seen))
	for key := range seen {
		slots = append(slots, key)
	}
	slices.Sort(slots)
	return slots
}

// VisibleSlots keeps slots that are not older than now minus grace.
func VisibleSlots(slots []domain.TimeSlotKey, now time.Time, grace time.Duration) []domain.TimeSlotKey {
	cutoff := now.Add(-grace)
	visible := make([]domain.TimeSlotKey, 0, len(slots))
	for _, key := range slots {
		t, err := key.Time()
		if err != nil {
			continue
		}
		if !t.Before(cutoff) {
			visible = append(visible, key)
		}
	}
	return visible
}

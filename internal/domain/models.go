package domain

import (
	"time"
)

// TimeSlotKey is a canonical UTC slot on the shared schedule axis,
// formatted as 2006-01-02T15:04:05Z so that string order is time order.
type TimeSlotKey string

const SlotKeyLayout = "2006-01-02T15:04:05Z"

func (k TimeSlotKey) String() string {
	return string(k)
}

func (k TimeSlotKey) Time() (time.Time, error) {
	t, err := time.Parse(SlotKeyLayout, string(k))
	if err != nil {
		return time.Time{}, &ParseError{Value: string(k), Err: err}
	}
	return t, nil
}

type ClanRef struct {
	Tag string
}

// Participants is the optional pair of clans known for a round.
type Participants struct {
	A *ClanRef
	B *ClanRef
}

func (p Participants) Count() int {
	n := 0
	if p.A != nil {
		n++
	}
	if p.B != nil {
		n++
	}
	return n
}

func (p Participants) Has(tag string) bool {
	return (p.A != nil && p.A.Tag == tag) || (p.B != nil && p.B.Tag == tag)
}

// Opponent returns the tag shown against ownTag for this round.
// With both sides known it is the side that is not ownTag, otherwise
// whichever side is present.
func (p Participants) Opponent(ownTag string) string {
	switch {
	case p.A != nil && p.B != nil:
		if p.A.Tag == ownTag {
			return p.B.Tag
		}
		return p.A.Tag
	case p.A != nil:
		return p.A.Tag
	case p.B != nil:
		return p.B.Tag
	}
	return ""
}

type Round struct {
	Time         time.Time
	Title        string
	Participants Participants
}

// RawRound is a round as decoded from the upstream payload, time still unparsed.
type RawRound struct {
	Time         string
	Title        string
	Participants Participants
}

type RawProvince struct {
	ProvinceID   string
	ProvinceName string
	ArenaName    string
	Server       string
	Mode         string
	PrimeTime    string
	Rounds       []RawRound
}

type Province struct {
	ProvinceID   string
	ProvinceName string
	ArenaName    string
	Server       string
	Mode         string
	PrimeTimeRaw string
	Rounds       map[TimeSlotKey]Round
}

// ClockTime is a time of day in the viewer's zone.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) MinuteOfDay() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return time.Date(0, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC).Format("15:04")
}

type RankedProvince struct {
	Province
	PrimeTime      ClockTime
	HasPrimeTime   bool
	PrimeInstant   time.Time
	QuarterAligned bool
}

type IssueKind string

const (
	IssueRoundTime IssueKind = "round_time"
	IssuePrimeTime IssueKind = "prime_time"
)

// Issue records a per-round or per-province failure that was skipped.
type Issue struct {
	ProvinceID string
	Kind       IssueKind
	Detail     string
}

package schedule

import (
	"slices"
	"time"

	"clan-battles/internal/domain"
)

// RankInput is a province together with its raw prime-time resolution result.
type RankInput struct {
	Province domain.Province
	Server   domain.ClockTime
	Valid    bool
}

// RankProvinces derives the prime-time fields of every province and orders
// them by (no prime time, quarter-aligned prime time, later instant first).
// The sort is stable so equal keys keep fetch order.
func RankProvinces(inputs []RankInput, now time.Time, offsetMinutes int) []domain.RankedProvince {
	ranked := make([]domain.RankedProvince, 0, len(inputs))
	for _, in := range inputs {
		rp := domain.RankedProvince{Province: in.Province}
		if in.Valid {
			rp.HasPrimeTime = true
			rp.PrimeTime = ShiftClock(in.Server, offsetMinutes)
			rp.PrimeInstant = PrimeTimeInstant(now, in.Server, offsetMinutes)
			rp.QuarterAligned = rp.PrimeTime.Minute == 15 || rp.PrimeTime.Minute == 45
		}
		ranked = append(ranked, rp)
	}

	SortRanked(ranked)
	return ranked
}

// SortRanked sorts already derived provinces in place.
func SortRanked(ranked []domain.RankedProvince) {
	slices.SortStableFunc(ranked, compareRanked)
}

func compareRanked(a, b domain.RankedProvince) int {
	if a.HasPrimeTime != b.HasPrimeTime {
		if a.HasPrimeTime {
			return -1
		}
		return 1
	}
	if a.QuarterAligned != b.QuarterAligned {
		if a.QuarterAligned {
			return 1
		}
		return -1
	}
	// descending instant
	return b.PrimeInstant.Compare(a.PrimeInstant)
}

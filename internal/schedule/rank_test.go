package schedule

import (
	"testing"
	"time"

	"clan-battles/internal/domain"

	"github.com/stretchr/testify/require"
)

func rankInputs(primeTimes ...string) []RankInput {
	inputs := make([]RankInput, 0, len(primeTimes))
	for i, pt := range primeTimes {
		c, err := ParsePrimeTime(pt)
		inputs = append(inputs, RankInput{
			Province: domain.Province{ProvinceID: string(rune('A' + i)), PrimeTimeRaw: pt},
			Server:   c,
			Valid:    err == nil,
		})
	}
	return inputs
}

func ids(ranked []domain.RankedProvince) []string {
	out := make([]string, 0, len(ranked))
	for _, rp := range ranked {
		out = append(out, rp.ProvinceID)
	}
	return out
}

func TestRankProvincesOnHourBeforeQuarter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	got := RankProvinces(rankInputs("20:15", "20:00"), now, 0)
	require.Equal(t, []string{"B", "A"}, ids(got))

	got = RankProvinces(rankInputs("20:00", "20:15"), now, 0)
	require.Equal(t, []string{"A", "B"}, ids(got))
}

func TestRankProvincesOrder(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	// A 18:00, B 21:00, C bad, D 19:45, E 21:00, F 20:15
	got := RankProvinces(rankInputs("18:00", "21:00", "nope", "19:45", "21:00", "20:15"), now, 0)
	require.Equal(t, []string{"B", "E", "A", "F", "D", "C"}, ids(got))

	require.False(t, got[len(got)-1].HasPrimeTime)
	require.True(t, got[3].QuarterAligned)
	require.Equal(t, "21:00", got[0].PrimeTime.String())
}

func TestRankProvincesStableAndIdempotent(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	once := RankProvinces(rankInputs("20:00", "20:00", "19:30", "bad", "bad", "20:45"), now, 180)

	twice := append([]domain.RankedProvince(nil), once...)
	SortRanked(twice)
	require.Equal(t, ids(once), ids(twice))
	require.Equal(t, []string{"A", "B", "C", "F", "D", "E"}, ids(once))
}

func TestRankProvincesUsesOffsetForDayOverflow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	// at +120, 23:30 server time is 01:30 next day, later than 22:00 server (00:00 next day)
	got := RankProvinces(rankInputs("22:00", "23:30"), now, 120)
	require.Equal(t, []string{"B", "A"}, ids(got))
	require.Equal(t, "01:30", got[0].PrimeTime.String())
}

package schedule

import (
	"testing"
	"time"

	"clan-battles/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestResolvePrimeTime(t *testing.T) {
	tests := []struct {
		raw    string
		offset int
		want   string
	}{
		{"20:00", 0, "20:00"},
		{"23:50", 120, "01:50"},
		{"00:10", -60, "23:10"},
		{"9:05", 180, "12:05"},
		{"18:15", 330, "23:45"},
		{"12:00", -720, "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ResolvePrimeTime(tt.raw, tt.offset)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
			require.GreaterOrEqual(t, got.Hour, 0)
			require.Less(t, got.Hour, 24)
		})
	}
}

func TestParsePrimeTimeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "20", "20:00:00", "24:00", "12:60", "ab:cd", "20:5", " 20:00"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParsePrimeTime(raw)
			var ferr *domain.FormatError
			require.ErrorAs(t, err, &ferr)
			require.Equal(t, raw, ferr.Value)
		})
	}
}

func TestPrimeTimeInstant(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	got := PrimeTimeInstant(now, domain.ClockTime{Hour: 20}, 0)
	require.True(t, got.Equal(time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)))

	// spills over midnight in the viewer zone
	got = PrimeTimeInstant(now, domain.ClockTime{Hour: 23, Minute: 50}, 120)
	local := got.In(ViewerZone(120))
	require.Equal(t, 2, local.Day())
	require.Equal(t, 1, local.Hour())
	require.Equal(t, 50, local.Minute())
}

func TestInPrimeWindow(t *testing.T) {
	prime := domain.ClockTime{Hour: 23}
	window := 2 * time.Hour

	require.True(t, InPrimeWindow(time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), prime, window, 0))
	require.True(t, InPrimeWindow(time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC), prime, window, 0))
	require.False(t, InPrimeWindow(time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC), prime, window, 0))
	require.False(t, InPrimeWindow(time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC), prime, window, 0))

	// 21:00 UTC is 23:00 at +120
	require.True(t, InPrimeWindow(time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC), prime, window, 120))
}

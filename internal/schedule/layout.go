package schedule

import (
	"time"

	"clan-battles/internal/constants"
	"clan-battles/internal/domain"
)

// Layout projects instants linearly onto a horizontal pixel axis.
type Layout struct {
	// milliseconds per pixel
	Scale           float64
	CellWidth       int
	BorderAllowance int
	HeaderWidth     int
}

func DefaultLayout() Layout {
	return Layout{
		Scale:           constants.LayoutScaleMsPerPx,
		CellWidth:       constants.LayoutCellWidth,
		BorderAllowance: constants.LayoutBorderAllow,
		HeaderWidth:     constants.LayoutHeaderWidth,
	}
}

type Placement struct {
	Offset float64
	Width  int
}

type AxisMark struct {
	Key    domain.TimeSlotKey
	Label  string
	Offset float64
}

func (l Layout) Offset(t, cursor time.Time) float64 {
	ms := float64(t.Sub(cursor)) / float64(time.Millisecond)
	return ms / l.Scale
}

func (l Layout) Place(t, cursor time.Time) Placement {
	return Placement{
		Offset: l.Offset(t, cursor),
		Width:  l.CellWidth + l.BorderAllowance,
	}
}

// PlaceRaw places an unparsed timestamp. It fails rather than placing at 0.
func (l Layout) PlaceRaw(raw string, cursor time.Time) (Placement, error) {
	t, err := ParseRoundTime(raw)
	if err != nil {
		return Placement{}, err
	}
	return l.Place(t, cursor), nil
}

// AxisMarks labels slots in the viewer's zone using the same projection as cells.
func (l Layout) AxisMarks(slots []domain.TimeSlotKey, cursor time.Time, offsetMinutes int) []AxisMark {
	zone := ViewerZone(offsetMinutes)
	marks := make([]AxisMark, 0, len(slots))
	for _, key := range slots {
		t, err := key.Time()
		if err != nil {
			continue
		}
		marks = append(marks, AxisMark{
			Key:    key,
			Label:  t.In(zone).Format("15:04"),
			Offset: l.Offset(t, cursor),
		})
	}
	return marks
}

// ViewportWidth is the width left for the timeline once the header column
// is taken from the client width.
func (l Layout) ViewportWidth(clientWidth int) int {
	if w := clientWidth - l.HeaderWidth; w > 0 {
		return w
	}
	return 0
}

// Visible reports whether a placement intersects [0, viewport).
func (l Layout) Visible(p Placement, viewport int) bool {
	return p.Offset+float64(p.Width) > 0 && p.Offset < float64(viewport)
}

// SnapCursor rounds now to the nearest step boundary.
func SnapCursor(now time.Time, step time.Duration) time.Time {
	if step <= 0 {
		step = constants.CursorSnap
	}
	return now.Round(step)
}

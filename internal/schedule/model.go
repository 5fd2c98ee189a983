package schedule

import (
	"time"

	"clan-battles/internal/constants"
	"clan-battles/internal/domain"

	"github.com/jonboulle/clockwork"
)

type Options struct {
	Clock        clockwork.Clock
	ViewerOffset int
	Policy       CollisionPolicy
	Grace        time.Duration
	PrimeWindow  time.Duration
	Layout       Layout
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Policy == "" {
		o.Policy = LastWins
	}
	if o.Grace <= 0 {
		o.Grace = constants.ActiveSlotGrace
	}
	if o.PrimeWindow <= 0 {
		o.PrimeWindow = constants.PrimeWindow
	}
	if o.Layout.Scale <= 0 {
		o.Layout = DefaultLayout()
	}
	return o
}

// Model is the render-ready schedule for one fetch. It is never mutated
// after Build returns.
type Model struct {
	opts      Options
	slots     []domain.TimeSlotKey
	inputs    []RankInput
	provinces []domain.RankedProvince
	issues    []domain.Issue
}

type Cell struct {
	Key         domain.TimeSlotKey
	Round       *domain.Round
	Versus      string
	InPrimeTime bool
}

type Row struct {
	Province domain.RankedProvince
	Cells    []Cell
}

func Empty(opts Options) *Model {
	return &Model{opts: opts.withDefaults()}
}

// Build normalizes raw provinces into a ranked, slotted model. Bad rounds and
// bad prime times are recorded as issues, never fatal.
func Build(raw []domain.RawProvince, opts Options) *Model {
	opts = opts.withDefaults()
	m := &Model{opts: opts}

	inputs := make([]RankInput, 0, len(raw))
	provinces := make([]domain.Province, 0, len(raw))
	for _, rp := range raw {
		rounds, errs := BucketRounds(rp.Rounds, opts.Policy)
		for _, err := range errs {
			m.issues = append(m.issues, domain.Issue{ProvinceID: rp.ProvinceID, Kind: domain.IssueRoundTime, Detail: err.Error()})
		}

		p := domain.Province{
			ProvinceID:   rp.ProvinceID,
			ProvinceName: rp.ProvinceName,
			ArenaName:    rp.ArenaName,
			Server:       rp.Server,
			Mode:         rp.Mode,
			PrimeTimeRaw: rp.PrimeTime,
			Rounds:       rounds,
		}
		provinces = append(provinces, p)

		server, err := ParsePrimeTime(rp.PrimeTime)
		if err != nil {
			m.issues = append(m.issues, domain.Issue{ProvinceID: rp.ProvinceID, Kind: domain.IssuePrimeTime, Detail: err.Error()})
		}
		inputs = append(inputs, RankInput{Province: p, Server: server, Valid: err == nil})
	}

	m.slots = CollectSlots(provinces)
	m.inputs = inputs
	m.provinces = RankProvinces(inputs, opts.Clock.Now(), opts.ViewerOffset)
	return m
}

// WithViewerOffset returns the model re-ranked for another viewer offset.
// The receiver is left untouched.
func (m *Model) WithViewerOffset(offsetMinutes int) *Model {
	if offsetMinutes == m.opts.ViewerOffset {
		return m
	}
	out := *m
	out.opts.ViewerOffset = offsetMinutes
	out.provinces = RankProvinces(m.inputs, m.opts.Clock.Now(), offsetMinutes)
	return &out
}

func (m *Model) TimeSlots(onlyActive bool) []domain.TimeSlotKey {
	if !onlyActive {
		return append([]domain.TimeSlotKey(nil), m.slots...)
	}
	return VisibleSlots(m.slots, m.opts.Clock.Now(), m.opts.Grace)
}

func (m *Model) RankedProvinces() []domain.RankedProvince {
	return append([]domain.RankedProvince(nil), m.provinces...)
}

func (m *Model) Issues() []domain.Issue {
	return append([]domain.Issue(nil), m.issues...)
}

func (m *Model) IsEmpty() bool {
	return len(m.provinces) == 0
}

func (m *Model) Layout() Layout {
	return m.opts.Layout
}

func (m *Model) ViewerOffset() int {
	return m.opts.ViewerOffset
}

// Cursor is the current clock snapped to the axis grid.
func (m *Model) Cursor() time.Time {
	return SnapCursor(m.opts.Clock.Now(), constants.CursorSnap)
}

func (m *Model) LayoutFor(round domain.Round, cursor time.Time) Placement {
	return m.opts.Layout.Place(round.Time, cursor)
}

func (m *Model) AxisFor(onlyActive bool, cursor time.Time) []AxisMark {
	return m.AxisOn(m.TimeSlots(onlyActive), cursor)
}

// AxisOn labels a slot list already taken from TimeSlots.
func (m *Model) AxisOn(slots []domain.TimeSlotKey, cursor time.Time) []AxisMark {
	return m.opts.Layout.AxisMarks(slots, cursor, m.opts.ViewerOffset)
}

func (m *Model) Grid(clanTag string, onlyActive bool) []Row {
	return m.GridOn(clanTag, m.TimeSlots(onlyActive))
}

// GridOn aligns every ranked province on slots. Cells without a round
// are returned with a nil Round. Renderers pass the same slots to AxisOn so
// rows and axis agree even when the clock moves in between.
func (m *Model) GridOn(clanTag string, slots []domain.TimeSlotKey) []Row {
	rows := make([]Row, 0, len(m.provinces))
	for _, p := range m.provinces {
		row := Row{Province: p, Cells: make([]Cell, 0, len(slots))}
		for _, key := range slots {
			cell := Cell{Key: key}
			if r, ok := p.Rounds[key]; ok {
				cell.Round = &r
				cell.Versus = r.Participants.Opponent(clanTag)
				cell.InPrimeTime = p.HasPrimeTime && InPrimeWindow(r.Time, p.PrimeTime, m.opts.PrimeWindow, m.opts.ViewerOffset)
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

package server

import (
	"time"

	"clan-battles/internal/schedule"
	"clan-battles/internal/service"
)

type SlotView struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Offset float64 `json:"offset"`
}

type CellView struct {
	Key         string  `json:"key"`
	Empty       bool    `json:"empty"`
	Title       string  `json:"title,omitempty"`
	Versus      string  `json:"versus,omitempty"`
	Time        string  `json:"time,omitempty"`
	InPrimeTime bool    `json:"in_prime_time"`
	Offset      float64 `json:"offset"`
	Width       int     `json:"width"`
	Visible     bool    `json:"visible"`
}

type ProvinceView struct {
	ProvinceID   string     `json:"province_id"`
	ProvinceName string     `json:"province_name"`
	ArenaName    string     `json:"arena_name"`
	Server       string     `json:"server"`
	Mode         string     `json:"mode"`
	PrimeTime    string     `json:"prime_time"`
	PrimeTimeRaw string     `json:"prime_time_raw"`
	Cells        []CellView `json:"cells"`
}

type IssueView struct {
	ProvinceID string `json:"province_id"`
	Kind       string `json:"kind"`
	Detail     string `json:"detail"`
}

type ScheduleView struct {
	ClanTag       string         `json:"clan_tag"`
	SnapshotID    string         `json:"snapshot_id,omitempty"`
	Generation    uint64         `json:"generation,omitempty"`
	Cursor        string         `json:"cursor"`
	ViewerOffset  int            `json:"viewer_offset"`
	ViewportWidth int            `json:"viewport_width,omitempty"`
	Slots         []SlotView     `json:"slots"`
	Provinces     []ProvinceView `json:"provinces"`
	Issues        []IssueView    `json:"issues,omitempty"`
	NoData        bool           `json:"no_data"`
	Error         string         `json:"error,omitempty"`
}

type FeaturedView struct {
	ClanTag   string `json:"clan_tag"`
	Provinces int    `json:"provinces"`
	NextSlot  string `json:"next_slot,omitempty"`
	Error     string `json:"error,omitempty"`
}

type SyncStatusView struct {
	Running    bool   `json:"running"`
	Last       string `json:"last"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
}

type viewQuery struct {
	onlyActive  bool
	cursor      time.Time
	clientWidth int
}

func renderSchedule(m *schedule.Model, clanTag string, q viewQuery, fetchErr error) ScheduleView {
	layout := m.Layout()
	cursor := q.cursor
	if cursor.IsZero() {
		cursor = m.Cursor()
	}
	viewport := 0
	if q.clientWidth > 0 {
		viewport = layout.ViewportWidth(q.clientWidth)
	}

	view := ScheduleView{
		ClanTag:       clanTag,
		Cursor:        cursor.UTC().Format(time.RFC3339),
		ViewerOffset:  m.ViewerOffset(),
		ViewportWidth: viewport,
		Slots:         []SlotView{},
		Provinces:     []ProvinceView{},
		NoData:        m.IsEmpty(),
	}
	if fetchErr != nil {
		view.Error = fetchErr.Error()
	}

	slots := m.TimeSlots(q.onlyActive)
	for _, mark := range m.AxisOn(slots, cursor) {
		view.Slots = append(view.Slots, SlotView{Key: mark.Key.String(), Label: mark.Label, Offset: mark.Offset})
	}

	for _, row := range m.GridOn(clanTag, slots) {
		p := row.Province
		pv := ProvinceView{
			ProvinceID:   p.ProvinceID,
			ProvinceName: p.ProvinceName,
			ArenaName:    p.ArenaName,
			Server:       p.Server,
			Mode:         p.Mode,
			PrimeTimeRaw: p.PrimeTimeRaw,
			Cells:        make([]CellView, 0, len(row.Cells)),
		}
		if p.HasPrimeTime {
			pv.PrimeTime = p.PrimeTime.String()
		}

		for _, cell := range row.Cells {
			cv := CellView{Key: cell.Key.String(), Empty: cell.Round == nil}
			if cell.Round != nil {
				placement := m.LayoutFor(*cell.Round, cursor)
				cv.Title = cell.Round.Title
				cv.Versus = cell.Versus
				cv.Time = cell.Round.Time.UTC().Format(time.RFC3339)
				cv.InPrimeTime = cell.InPrimeTime
				cv.Offset = placement.Offset
				cv.Width = placement.Width
				cv.Visible = viewport == 0 || layout.Visible(placement, viewport)
			}
			pv.Cells = append(pv.Cells, cv)
		}
		view.Provinces = append(view.Provinces, pv)
	}

	for _, issue := range m.Issues() {
		view.Issues = append(view.Issues, IssueView{ProvinceID: issue.ProvinceID, Kind: string(issue.Kind), Detail: issue.Detail})
	}
	return view
}

func renderFeatured(summaries []service.ClanSummary) []FeaturedView {
	out := make([]FeaturedView, 0, len(summaries))
	for _, s := range summaries {
		fv := FeaturedView{ClanTag: s.ClanTag, Provinces: s.Provinces, NextSlot: s.NextSlot.String()}
		if s.Err != nil {
			fv.Error = s.Err.Error()
		}
		out = append(out, fv)
	}
	return out
}

func renderSyncStatus(st service.SyncStatus) SyncStatusView {
	v := SyncStatusView{Running: st.Running, Last: st.Last, Error: st.Err}
	if !st.StartedAt.IsZero() {
		v.StartedAt = st.StartedAt.UTC().Format(time.RFC3339)
	}
	if !st.FinishedAt.IsZero() {
		v.FinishedAt = st.FinishedAt.UTC().Format(time.RFC3339)
	}
	return v
}

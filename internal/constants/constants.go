package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	RequestTimeout     = 30 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

const (
	ActiveSlotGrace  = 30 * time.Minute
	PrimeWindow      = 2 * time.Hour
	CursorSnap       = 30 * time.Minute
	QuarterOffset    = 15 * time.Minute
	MinutesPerDay    = 24 * 60
	FeaturedParallel = 4
)

// Timeline geometry. Cells and axis marks must share these values.
const (
	LayoutScaleMsPerPx = 10000
	LayoutCellWidth    = 180
	LayoutBorderAllow  = 0
	LayoutHeaderWidth  = 350
)

const (
	SyncStatusReadBuffer = 4096
	StatusWriteTimeout   = 5 * time.Second
)

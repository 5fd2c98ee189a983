package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"clan-battles/internal/domain"
	"clan-battles/internal/schedule"

	"github.com/jonboulle/clockwork"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Snapshot is one applied board state. It is never modified once published.
type Snapshot struct {
	ID         string
	Generation uint64
	ClanTag    string
	Model      *schedule.Model
	Err        error
	FetchedAt  time.Time
}

// Board holds the schedule currently on display. Each Select is tagged with a
// generation and only the latest issued generation may publish.
type Board struct {
	svc    *ScheduleService
	clock  clockwork.Clock
	logger zerolog.Logger

	issued atomic.Uint64

	mu      sync.Mutex
	current *Snapshot
	cancel  context.CancelFunc
}

func NewBoard(svc *ScheduleService, clock clockwork.Clock, logger zerolog.Logger) *Board {
	b := &Board{svc: svc, clock: clock, logger: logger}
	b.current = &Snapshot{
		ID:        newSnapshotID(),
		Model:     schedule.Empty(svc.opts),
		FetchedAt: clock.Now(),
	}
	return b
}

func (b *Board) Current() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Board) Generation() uint64 {
	return b.issued.Load()
}

// Select fetches clanTag for viewerOffset and publishes the result unless a
// newer Select was issued meanwhile, in which case domain.ErrSuperseded is
// returned. Selecting cancels the previous in-flight fetch.
func (b *Board) Select(ctx context.Context, clanTag string, viewerOffset int) (*Snapshot, error) {
	clanTag = strings.ToUpper(strings.TrimSpace(clanTag))
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.mu.Lock()
	gen := b.issued.Add(1)
	if b.cancel != nil {
		b.cancel()
	}
	b.cancel = cancel
	b.mu.Unlock()

	model, err := b.svc.Build(fetchCtx, clanTag, viewerOffset)

	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.issued.Load() {
		b.logger.Debug().
			Str("clan_tag", clanTag).
			Uint64("generation", gen).
			Uint64("latest", b.issued.Load()).
			Msg("discarding superseded schedule")
		return nil, domain.ErrSuperseded
	}
	b.cancel = nil

	snap := &Snapshot{
		ID:         newSnapshotID(),
		Generation: gen,
		ClanTag:    clanTag,
		Model:      model,
		Err:        err,
		FetchedAt:  b.clock.Now(),
	}
	b.current = snap

	b.logger.Info().
		Str("clan_tag", clanTag).
		Uint64("generation", gen).
		Str("snapshot_id", snap.ID).
		Bool("no_data", model.IsEmpty()).
		Msg("board updated")
	return snap, err
}

func newSnapshotID() string {
	id, err := gonanoid.New()
	if err != nil {
		return time.Now().Format("20060102T150405.000000000")
	}
	return id
}

package service

import (
	"context"
	"strings"

	"clan-battles/internal/config"
	"clan-battles/internal/constants"
	"clan-battles/internal/domain"
	"clan-battles/internal/schedule"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ScheduleFetcher interface {
	GetClanSchedule(ctx context.Context, clanTag string) ([]domain.RawProvince, error)
}

type ScheduleService struct {
	fetcher  ScheduleFetcher
	opts     schedule.Options
	featured []string
	logger   zerolog.Logger
}

func NewScheduleService(fetcher ScheduleFetcher, cfg *config.Config, clock clockwork.Clock, logger zerolog.Logger) *ScheduleService {
	opts := cfg.ScheduleOptions()
	opts.Clock = clock
	return &ScheduleService{fetcher: fetcher, opts: opts, featured: cfg.FeaturedClans, logger: logger}
}

func (s *ScheduleService) ViewerOffset() int {
	return s.opts.ViewerOffset
}

// Build fetches and normalizes the schedule of one clan. On fetch failure it
// returns an empty model together with the error.
func (s *ScheduleService) Build(ctx context.Context, clanTag string, viewerOffset int) (*schedule.Model, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	opts := s.opts
	opts.ViewerOffset = viewerOffset
	clanTag = strings.ToUpper(strings.TrimSpace(clanTag))

	s.logger.Debug().Str("clan_tag", clanTag).Int("viewer_offset", viewerOffset).Msg("fetching schedule")

	raw, err := s.fetcher.GetClanSchedule(ctx, clanTag)
	if err != nil {
		s.logger.Error().Err(err).Str("clan_tag", clanTag).Msg("failed to fetch schedule")
		return schedule.Empty(opts), err
	}

	model := schedule.Build(raw, opts)
	for _, issue := range model.Issues() {
		s.logger.Warn().
			Str("clan_tag", clanTag).
			Str("province_id", issue.ProvinceID).
			Str("kind", string(issue.Kind)).
			Str("detail", issue.Detail).
			Msg("skipped malformed schedule data")
	}

	s.logger.Info().
		Str("clan_tag", clanTag).
		Int("provinces", len(raw)).
		Int("slots", len(model.TimeSlots(false))).
		Msg("schedule built")
	return model, nil
}

type ClanSummary struct {
	ClanTag   string
	Provinces int
	NextSlot  domain.TimeSlotKey
	Err       error
}

// Featured summarizes the configured featured clans concurrently. A failing
// clan carries its error without failing the others.
func (s *ScheduleService) Featured(ctx context.Context) []ClanSummary {
	summaries := make([]ClanSummary, len(s.featured))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.FeaturedParallel)
	for i, tag := range s.featured {
		g.Go(func() error {
			model, err := s.Build(gctx, tag, s.opts.ViewerOffset)
			summary := ClanSummary{ClanTag: tag, Err: err}
			if err == nil {
				summary.Provinces = len(model.RankedProvinces())
				if active := model.TimeSlots(true); len(active) > 0 {
					summary.NextSlot = active[0]
				}
			}
			summaries[i] = summary
			return nil
		})
	}
	_ = g.Wait()

	return summaries
}

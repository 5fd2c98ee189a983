package fx

import (
	"clan-battles/internal/api"
	"clan-battles/internal/broadcaster"
	"clan-battles/internal/config"
	"clan-battles/internal/logger"
	"clan-battles/internal/server"
	"clan-battles/internal/service"

	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
)

func ProvideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func ProvideFetcher(c *api.BattlesClient) service.ScheduleFetcher {
	return c
}

func ProvideStreamer(c *api.BattlesClient) service.SyncStreamer {
	return c
}

func ProvideStatusSink(b *broadcaster.Broadcaster) service.StatusSink {
	return b
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(ProvideClock),
	// upstream client
	fx.Provide(api.NewBattlesClient),
	fx.Provide(ProvideFetcher),
	fx.Provide(ProvideStreamer),
	// status relay
	fx.Provide(broadcaster.New),
	fx.Provide(ProvideStatusSink),
	// svc
	fx.Provide(service.NewScheduleService),
	fx.Provide(service.NewBoard),
	fx.Provide(service.NewSyncService),
	// server
	fx.Provide(server.NewServer),
)

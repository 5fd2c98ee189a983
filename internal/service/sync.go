package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

var ErrSyncRunning = errors.New("sync already running")

type SyncStreamer interface {
	StreamSyncAll(ctx context.Context, onDelta func(string)) error
}

type StatusSink interface {
	Broadcast(message []byte)
}

type SyncStatus struct {
	Running    bool
	Last       string
	Err        string
	StartedAt  time.Time
	FinishedAt time.Time
}

// SyncService runs the upstream full resync and relays its status text.
// At most one resync runs at a time.
type SyncService struct {
	streamer SyncStreamer
	sink     StatusSink
	clock    clockwork.Clock
	logger   zerolog.Logger

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	status SyncStatus
}

func NewSyncService(streamer SyncStreamer, sink StatusSink, clock clockwork.Clock, logger zerolog.Logger) *SyncService {
	ctx, stop := context.WithCancel(context.Background())
	return &SyncService{streamer: streamer, sink: sink, clock: clock, logger: logger, ctx: ctx, stop: stop}
}

func (s *SyncService) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start launches a resync in the background.
func (s *SyncService) Start() error {
	if err := s.begin(); err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.run(s.ctx)
	}()
	return nil
}

// Run performs a resync synchronously.
func (s *SyncService) Run(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}
	return s.run(ctx)
}

// Close cancels a running resync and waits for it to finish.
func (s *SyncService) Close() {
	s.stop()
	s.wg.Wait()
}

func (s *SyncService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Running {
		return ErrSyncRunning
	}
	s.status = SyncStatus{Running: true, StartedAt: s.clock.Now()}
	return nil
}

func (s *SyncService) run(ctx context.Context) error {
	s.logger.Info().Msg("full resync started")

	err := s.streamer.StreamSyncAll(ctx, func(delta string) {
		s.mu.Lock()
		s.status.Last = delta
		s.mu.Unlock()
		s.sink.Broadcast([]byte(delta))
	})

	s.mu.Lock()
	s.status.Running = false
	s.status.FinishedAt = s.clock.Now()
	if err != nil {
		s.status.Err = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("full resync failed")
		return err
	}
	s.logger.Info().Msg("full resync finished")
	return nil
}

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"clan-battles/internal/config"
	"clan-battles/internal/domain"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func newTestClient(t *testing.T, h http.Handler) *BattlesClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewBattlesClient(&config.Config{UpstreamURL: srv.URL})
}

func TestGetClanSchedule(t *testing.T) {
	paths := make(chan string, 1)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"provinces": [{"province_id": "P1", "prime_time": "20:00", "rounds": [{"time": "2024-01-01T20:15:00Z", "clan_a": {"tag": "AAA"}}]}]}`))
	}))

	provinces, err := client.GetClanSchedule(context.Background(), "lecat")
	require.NoError(t, err)
	require.Equal(t, "/update/LECAT", <-paths)
	require.Len(t, provinces, 1)
	require.Equal(t, "AAA", provinces[0].Rounds[0].Participants.A.Tag)
}

func TestGetClanScheduleEmptyTagSkipsUpstream(t *testing.T) {
	var called atomic.Bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}))

	provinces, err := client.GetClanSchedule(context.Background(), "  ")
	require.NoError(t, err)
	require.NotNil(t, provinces)
	require.Empty(t, provinces)
	require.False(t, called.Load())
}

func TestGetClanScheduleFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"detail": "Clan not found"}`},
		{"server error", http.StatusBadGateway, ``},
		{"invalid json", http.StatusOK, `{"provinces": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := client.GetClanSchedule(context.Background(), "LECAT")
			var ferr *domain.FetchError
			require.ErrorAs(t, err, &ferr)
			if tt.status != http.StatusOK {
				require.Equal(t, tt.status, ferr.Status)
			}
		})
	}
}

func TestGetClanScheduleUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewBattlesClient(&config.Config{UpstreamURL: srv.URL})

	_, err := client.GetClanSchedule(context.Background(), "LECAT")
	var ferr *domain.FetchError
	require.ErrorAs(t, err, &ferr)
	require.Zero(t, ferr.Status)
}

func TestStreamSyncAll(t *testing.T) {
	paths := make(chan string, 1)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		flusher := w.(http.Flusher)
		for _, line := range []string{"updating P1\n", "updating P2\n", "done\n"} {
			_, _ = w.Write([]byte(line))
			flusher.Flush()
		}
	}))

	var deltas []string
	err := client.StreamSyncAll(context.Background(), func(s string) {
		deltas = append(deltas, s)
	})
	require.NoError(t, err)
	require.Equal(t, "/update_all/", <-paths)
	require.Equal(t, "updating P1\nupdating P2\ndone\n", strings.Join(deltas, ""))
}

func TestStreamSyncAllStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := client.StreamSyncAll(context.Background(), func(string) {})
	var ferr *domain.FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, http.StatusServiceUnavailable, ferr.Status)
}

// stallingUpstream holds every request open until the test ends or the
// client goes away. With sendHeaders it first flushes headers and one line.
func stallingUpstream(t *testing.T, sendHeaders bool) *BattlesClient {
	t.Helper()
	release := make(chan struct{})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sendHeaders {
			_, _ = w.Write([]byte("updating P1\n"))
			w.(http.Flusher).Flush()
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(release) })
	return client
}

func TestStreamSyncAllCancelWhileStalled(t *testing.T) {
	tests := []struct {
		name        string
		sendHeaders bool
	}{
		{"before headers", false},
		{"mid body", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := stallingUpstream(t, tt.sendHeaders)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			deltas := make(chan string, 4)
			done := make(chan error, 1)
			go func() {
				done <- client.StreamSyncAll(ctx, func(s string) { deltas <- s })
			}()

			if tt.sendHeaders {
				select {
				case d := <-deltas:
					require.Equal(t, "updating P1\n", d)
				case <-time.After(2 * time.Second):
					t.Fatal("no status delta received")
				}
			} else {
				time.Sleep(50 * time.Millisecond)
			}

			cancel()
			select {
			case err := <-done:
				require.ErrorIs(t, err, context.Canceled)
			case <-time.After(2 * time.Second):
				t.Fatal("stream did not return after cancellation")
			}
		})
	}
}

func TestStreamSyncAllHeaderTimeout(t *testing.T) {
	client := stallingUpstream(t, false)

	start := time.Now()
	err := client.streamSyncAll(context.Background(), 100*time.Millisecond, func(string) {})
	require.Less(t, time.Since(start), 2*time.Second)

	var ferr *domain.FetchError
	require.ErrorAs(t, err, &ferr)
	require.ErrorIs(t, err, fasthttp.ErrTimeout)
}

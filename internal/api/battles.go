package api

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"clan-battles/internal/config"
	"clan-battles/internal/constants"
	"clan-battles/internal/domain"

	"github.com/valyala/fasthttp"
)

// BattlesClient talks to the upstream clan battles service.
type BattlesClient struct {
	baseURL string
	client  *fasthttp.Client
}

func NewBattlesClient(cfg *config.Config) *BattlesClient {
	return &BattlesClient{
		baseURL: cfg.UpstreamURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// streamConns tracks the connections of one streamed request so they can be
// closed from outside. Closing the conn is the only way to unblock a
// fasthttp Do or body Read that is waiting on a stalled upstream.
type streamConns struct {
	mu     sync.Mutex
	conns  []net.Conn
	closed bool
}

func (s *streamConns) dial(addr string) (net.Conn, error) {
	conn, err := fasthttp.DialTimeout(addr, constants.ExternalAPITimeout)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		conn.Close()
		return nil, net.ErrClosed
	}
	s.conns = append(s.conns, conn)
	return conn, nil
}

func (s *streamConns) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
}

// GetClanSchedule fetches the raw provinces for a clan. An empty tag yields
// no provinces without calling upstream.
func (c *BattlesClient) GetClanSchedule(ctx context.Context, clanTag string) ([]domain.RawProvince, error) {
	clanTag = strings.TrimSpace(clanTag)
	if clanTag == "" {
		return []domain.RawProvince{}, nil
	}

	u := c.baseURL + "/update/" + url.PathEscape(strings.ToUpper(clanTag))
	body, err := doRequest(ctx, c.client, u)
	if err != nil {
		return nil, err
	}

	provinces, err := DecodeSchedule(body)
	if err != nil {
		return nil, &domain.FetchError{URL: u, Err: err}
	}
	return provinces, nil
}

// StreamSyncAll triggers the upstream full resync and hands every chunk of
// its growing plain-text body to onDelta as it arrives. Headers must arrive
// within ExternalAPITimeout. Cancelling ctx aborts the stream at any point.
func (c *BattlesClient) StreamSyncAll(ctx context.Context, onDelta func(string)) error {
	return c.streamSyncAll(ctx, constants.ExternalAPITimeout, onDelta)
}

func (c *BattlesClient) streamSyncAll(ctx context.Context, headerTimeout time.Duration, onDelta func(string)) error {
	u := c.baseURL + "/update_all/"

	conns := &streamConns{}
	defer conns.closeAll()
	stop := context.AfterFunc(ctx, conns.closeAll)
	defer stop()

	client := &fasthttp.Client{
		Dial:               conns.dial,
		MaxConnsPerHost:    1,
		WriteTimeout:       constants.ExternalAPITimeout,
		StreamResponseBody: true,
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u)
	req.Header.SetMethod(fasthttp.MethodGet)

	var timedOut atomic.Bool
	headerTimer := time.AfterFunc(headerTimeout, func() {
		timedOut.Store(true)
		conns.closeAll()
	})
	err := client.Do(req, resp)
	headerTimer.Stop()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if timedOut.Load() {
			err = fasthttp.ErrTimeout
		}
		return &domain.FetchError{URL: u, Err: err}
	}
	defer resp.CloseBodyStream()

	if resp.StatusCode() != fasthttp.StatusOK {
		return &domain.FetchError{URL: u, Status: resp.StatusCode()}
	}

	body := resp.BodyStream()
	if body == nil {
		if b := resp.Body(); len(b) > 0 {
			onDelta(string(b))
		}
		return nil
	}

	buf := make([]byte, constants.SyncStatusReadBuffer)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			onDelta(string(buf[:n]))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &domain.FetchError{URL: u, Err: err}
		}
	}
}

func doRequest(ctx context.Context, client *fasthttp.Client, u string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.DoDeadline(req, resp, deadline); err != nil {
			return nil, &domain.FetchError{URL: u, Err: err}
		}
	} else {
		if err := client.Do(req, resp); err != nil {
			return nil, &domain.FetchError{URL: u, Err: err}
		}
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return nil, &domain.FetchError{URL: u, Status: code}
	}

	// resp is released on return
	return append([]byte(nil), resp.Body()...), nil
}

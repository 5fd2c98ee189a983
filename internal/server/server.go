package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clan-battles/internal/broadcaster"
	"clan-battles/internal/constants"
	"clan-battles/internal/domain"
	"clan-battles/internal/service"

	"github.com/rs/zerolog"
)

type Server struct {
	schedules *service.ScheduleService
	board     *service.Board
	sync      *service.SyncService
	status    *broadcaster.Broadcaster
	logger    zerolog.Logger
}

func NewServer(schedules *service.ScheduleService, board *service.Board, sync *service.SyncService, status *broadcaster.Broadcaster, logger zerolog.Logger) *Server {
	return &Server{schedules: schedules, board: board, sync: sync, status: status, logger: logger}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/schedule/{$}", s.handleSchedule)
	mux.HandleFunc("GET /api/schedule/{clanTag}", s.handleSchedule)
	mux.HandleFunc("GET /api/board", s.handleBoard)
	mux.HandleFunc("POST /api/board/{clanTag}", s.handleSelect)
	mux.HandleFunc("GET /api/featured", s.handleFeatured)
	mux.HandleFunc("POST /api/sync", s.handleSyncStart)
	mux.HandleFunc("GET /api/sync/status", s.handleSyncStatus)
	mux.HandleFunc("GET /api/sync/ws", s.handleSyncSocket)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	q, offset, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	clanTag := strings.ToUpper(strings.TrimSpace(r.PathValue("clanTag")))
	model, fetchErr := s.schedules.Build(ctx, clanTag, offset)
	writeJSON(w, http.StatusOK, renderSchedule(model, clanTag, q, fetchErr))
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	q, offset, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, renderSnapshot(s.board.Current(), q, offset))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	q, offset, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := s.board.Select(r.Context(), r.PathValue("clanTag"), offset)
	if errors.Is(err, domain.ErrSuperseded) {
		zerolog.Ctx(r.Context()).Debug().Msg("board selection superseded")
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, renderSnapshot(snap, q, offset))
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()
	writeJSON(w, http.StatusOK, renderFeatured(s.schedules.Featured(ctx)))
}

func (s *Server) handleSyncStart(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.Start(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, renderSyncStatus(s.sync.Status()))
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, renderSyncStatus(s.sync.Status()))
}

func (s *Server) handleSyncSocket(w http.ResponseWriter, r *http.Request) {
	var initial []byte
	if last := s.sync.Status().Last; last != "" {
		initial = []byte(last)
	}
	s.status.HandleConnections(w, r, initial)
}

// parseQuery reads only_active (default true), offset (viewer minutes from
// UTC), cursor (RFC3339) and client_width.
func (s *Server) parseQuery(r *http.Request) (viewQuery, int, error) {
	values := r.URL.Query()
	q := viewQuery{onlyActive: true}
	offset := s.schedules.ViewerOffset()

	if v := values.Get("only_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, 0, fmt.Errorf("invalid only_active: %w", err)
		}
		q.onlyActive = b
	}
	if v := values.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < -14*60 || n > 14*60 {
			return q, 0, fmt.Errorf("invalid offset %q", v)
		}
		offset = n
	}
	if v := values.Get("cursor"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, 0, fmt.Errorf("invalid cursor: %w", err)
		}
		q.cursor = t
	}
	if v := values.Get("client_width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, 0, fmt.Errorf("invalid client_width %q", v)
		}
		q.clientWidth = n
	}
	return q, offset, nil
}

// renderSnapshot shows the board for the requested offset; a snapshot taken
// at another offset is re-ranked without refetching.
func renderSnapshot(snap *service.Snapshot, q viewQuery, offset int) ScheduleView {
	view := renderSchedule(snap.Model.WithViewerOffset(offset), snap.ClanTag, q, snap.Err)
	view.SnapshotID = snap.ID
	view.Generation = snap.Generation
	return view
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

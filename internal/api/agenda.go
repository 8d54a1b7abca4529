package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ymorita/hisho/internal/agenda"
	"github.com/ymorita/hisho/internal/domain"
)

// EventResponse is one event instance as the calendar screen renders it.
type EventResponse struct {
	SourceID  string `json:"source_id"`
	EventID   string `json:"event_id"`
	Title     string `json:"title"`
	Location  string `json:"location,omitempty"`
	StartAt   string `json:"start_at"`
	EndAt     string `json:"end_at,omitempty"`
	AllDay    bool   `json:"all_day"`
	TimeLabel string `json:"time_label"`
	Color     string `json:"color,omitempty"`
}

// DayResponse is one day cell: its classification plus its events.
type DayResponse struct {
	Date      string          `json:"date"`
	Weekday   string          `json:"weekday"`
	IsToday   bool            `json:"is_today"`
	IsHoliday bool            `json:"is_holiday"`
	Tint      string          `json:"tint,omitempty"`
	Events    []EventResponse `json:"events"`
}

// AgendaResponse is one published aggregation snapshot.
type AgendaResponse struct {
	Start       string              `json:"start"`
	End         string              `json:"end"`
	Days        []DayResponse       `json:"days"`
	FetchErrors []domain.FetchError `json:"fetch_errors,omitempty"`
	FetchedAt   string              `json:"fetched_at"`
}

func (s *Server) handleAgendaMonth(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(s.session.Location())

	year := now.Year()
	month := int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			s.jsonError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = m
	}

	rng := domain.MonthRange(year, time.Month(month), s.session.Location())
	s.serveAgenda(w, r, rng)
}

func (s *Server) handleAgendaToday(w http.ResponseWriter, r *http.Request) {
	rng := domain.DayRange(time.Now().In(s.session.Location()))
	s.serveAgenda(w, r, rng)
}

func (s *Server) handleAgendaRefresh(w http.ResponseWriter, r *http.Request) {
	// The trigger is detached from the request so the cycle keeps running
	// if this client disconnects. Wait below still honors the request
	// context.
	gen := s.session.Refresh(context.Background())
	s.waitAndRespond(w, r, gen)
}

func (s *Server) serveAgenda(w http.ResponseWriter, r *http.Request, rng domain.Range) {
	// A snapshot covering the requested range is served as-is; anything else
	// triggers a fresh aggregation cycle.
	if snap := s.session.Snapshot(); snap != nil && snap.Range == rng {
		s.jsonResponse(w, agendaResponse(snap))
		return
	}

	gen := s.session.LoadRange(context.Background(), rng)
	s.waitAndRespond(w, r, gen)
}

func (s *Server) waitAndRespond(w http.ResponseWriter, r *http.Request, gen uint64) {
	snap, err := s.session.Wait(r.Context(), gen)
	if errors.Is(err, agenda.ErrPermissionDenied) {
		s.jsonError(w, http.StatusForbidden, "calendar access denied")
		return
	}
	if err != nil {
		s.log.WithError(err).Error("agenda aggregation failed")
		s.jsonError(w, http.StatusBadGateway, err.Error())
		return
	}
	if snap == nil {
		s.jsonError(w, http.StatusBadGateway, "no agenda available")
		return
	}

	s.jsonResponse(w, agendaResponse(snap))
}

func agendaResponse(snap *domain.Snapshot) AgendaResponse {
	resp := AgendaResponse{
		Start:       domain.DayKey(snap.Range.Start),
		End:         domain.DayKey(snap.Range.End),
		FetchErrors: snap.FetchErrors,
		FetchedAt:   snap.FetchedAt.Format(time.RFC3339),
	}

	for _, day := range snap.Range.Days() {
		key := domain.DayKey(day)
		bucket := snap.Buckets[key]
		cls := snap.Classifications[key]

		dr := DayResponse{
			Date:      key,
			Weekday:   cls.Weekday.String(),
			IsToday:   cls.IsToday,
			IsHoliday: cls.IsHoliday,
			Tint:      cls.Tint,
			Events:    make([]EventResponse, 0, len(bucket.Events)),
		}

		for _, e := range bucket.Events {
			er := EventResponse{
				SourceID:  e.SourceID,
				EventID:   e.EventID,
				Title:     e.Title,
				Location:  e.Location,
				StartAt:   e.StartAt.Format(time.RFC3339),
				AllDay:    e.AllDay,
				TimeLabel: e.FormatTime(),
				Color:     snap.SourceColors[e.SourceID],
			}
			if !e.EndAt.IsZero() {
				er.EndAt = e.EndAt.Format(time.RFC3339)
			}
			dr.Events = append(dr.Events, er)
		}

		resp.Days = append(resp.Days, dr)
	}

	return resp
}

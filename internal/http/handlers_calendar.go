package http

import (
	"net/http"

	"dailymeow/internal/core"
	"dailymeow/internal/log"
	"dailymeow/internal/services"
)

// handleMarkers serves the month's calendar markers. A store failure still
// answers 200 with an empty object so the calendar can render.
func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request, sess core.Session) {
	params := ParseMonthParams(r.URL.Query(), s.today(sess))
	if params.Month < 1 || params.Month > 12 {
		s.fail(w, r, log.OpRead, core.ErrInvalidMonth)
		return
	}

	key := markersKey(sess.UserID, monthKey(params.Year, params.Month), sess.Loc())
	if markers, ok := s.markers.Get(key); ok {
		s.countCache(true)
		NewJSONResponse().Body(markers).Write(w)
		return
	}
	s.countCache(false)

	markers, err := s.svc.Calendar.Markers(r.Context(), sess, params.Year, params.Month)
	if err != nil {
		if core.IsValidation(err) {
			s.fail(w, r, log.OpRead, err)
			return
		}
		s.structured.LogError(r.Context(), "Calendar markers unavailable", err, log.ComponentCalendar, log.OpRead,
			log.NewFields().WithUser(sess.UserID))
		NewJSONResponse().Body(services.MonthlyMarkers{}).Write(w)
		return
	}

	s.markers.Set(key, markers)
	NewJSONResponse().Body(markers).Write(w)
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request, sess core.Session) {
	view, err := s.svc.Daily.Day(r.Context(), sess, r.PathValue("date"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

// handleDeleteDayItem deletes one row of the day view and answers with the
// day as re-read from the store.
func (s *Server) handleDeleteDayItem(w http.ResponseWriter, r *http.Request, sess core.Session) {
	kind := services.ItemKind(r.PathValue("kind"))
	view, changes, err := s.svc.Daily.Delete(r.Context(), sess, r.PathValue("date"), kind, r.PathValue("id"))
	if err != nil {
		s.invalidate(changes)
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.changed(changes).Body(view).Write(w)
}

func (s *Server) handleRecap(w http.ResponseWriter, r *http.Request, sess core.Session) {
	params := ParseMonthParams(r.URL.Query(), s.today(sess))
	recap, err := s.svc.Recap.Month(r.Context(), sess, params.Year, params.Month)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(recap).Write(w)
}

// handleInsight serves the monthly insight. An optional daily amount adds
// the savings projection.
func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request, sess core.Session) {
	var daily int64
	if raw := r.URL.Query().Get("daily"); raw != "" {
		v, err := core.ParseAmount(raw)
		if err != nil {
			s.fail(w, r, log.OpRead, err)
			return
		}
		daily = v
	}

	insight, err := s.svc.Insight.Compute(r.Context(), sess)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	insight.Projection = services.Projection(daily)
	NewJSONResponse().Body(insight).Write(w)
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request, sess core.Session) {
	upcoming, err := s.svc.Reminders.Upcoming(r.Context(), sess)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"items": toActivitiesJSON(upcoming, sess.Loc()),
	}).Write(w)
}

package http

import (
	"net/http"
	"strings"
	"sync/atomic"

	"dailymeow/internal/core"
	"dailymeow/internal/log"
	"dailymeow/internal/services"
)

// handleCreateFinance stores a single entry or a daily range.
//
// Body fields: title, type, amount, date, endDate, mode (single|range), time.
func (s *Server) handleCreateFinance(w http.ResponseWriter, r *http.Request, sess core.Session) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	// An unparseable amount is left at zero so validation reports it first.
	amount, _ := core.ParseAmount(p.Get("amount"))
	entry := services.FinanceEntry{
		Title:     p.Get("title"),
		Type:      p.Get("type"),
		Amount:    amount,
		StartDate: firstNonEmpty(p.Get("date"), p.Get("startDate")),
		EndDate:   p.Get("endDate"),
		Mode:      services.EntryMode(strings.ToLower(p.Get("mode"))),
		Time:      p.Get("time"),
	}

	result, err := s.svc.Finances.Expand(r.Context(), sess, entry)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.financeRecords, int64(len(result.Created)))
	if len(result.Created) > 0 {
		s.structured.LogFinanceEntry(r.Context(), sess.UserID, string(result.Created[0].Type), amount, len(result.Created))
	}

	s.changed(result.Changes).
		Status(http.StatusCreated).
		Body(map[string]any{
			"count":   len(result.Created),
			"records": toFinancesJSON(result.Created, sess.Loc()),
		}).
		Write(w)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sess core.Session) {
	params := ParseMonthParams(r.URL.Query(), s.today(sess))
	filter, err := services.ParseHistoryFilter(r.URL.Query().Get("type"))
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}

	records, err := s.svc.History.List(r.Context(), sess, params.Year, params.Month, filter)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}

	NewJSONResponse().Body(historyJSON{
		Year:    params.Year,
		Month:   params.Month,
		Filter:  string(filter),
		Items:   toFinancesJSON(records, sess.Loc()),
		Summary: core.Summarize(records),
	}).Write(w)
}

// handleDeleteHistory bulk-deletes the selected finance ids.
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request, sess core.Session) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	ids := p.Strings("ids")
	if len(ids) == 0 {
		UnprocessableEntityError("no records selected").Write(w)
		return
	}

	deleted, changes, err := s.svc.History.DeleteSelected(r.Context(), sess, ids)
	if err != nil {
		// Whatever was deleted before the failure is gone; evict it anyway.
		s.invalidate(changes)
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.changed(changes).Body(map[string]int{"deleted": deleted}).Write(w)
}

// handleCreateActivity body fields: title, date, time, color, notes.
func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request, sess core.Session) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	activity, changes, err := s.svc.Activities.Create(r.Context(), sess, services.ActivityEntry{
		Title: p.Get("title"),
		Date:  p.Get("date"),
		Time:  p.Get("time"),
		Color: p.Get("color"),
		Notes: p.Get("notes"),
	})
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	s.changed(changes).
		Status(http.StatusCreated).
		Body(toActivityJSON(activity, sess.Loc())).
		Write(w)
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request, sess core.Session) {
	items, err := s.svc.Activities.Day(r.Context(), sess, r.PathValue("date"))
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"items": toActivitiesJSON(items, sess.Loc()),
	}).Write(w)
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request, sess core.Session) {
	changes, err := s.svc.Activities.Delete(r.Context(), sess, r.PathValue("date"), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.changed(changes).Status(http.StatusNoContent).Write(w)
}

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tartampluch/go-compass/internal/config"
	"github.com/tartampluch/go-compass/internal/engine"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type healthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// birthdayItem is one row of the upcoming birthdays widget.
type birthdayItem struct {
	StudentID     string              `json:"student_id"`
	FullName      string              `json:"full_name"`
	ClassName     string              `json:"class_name,omitempty"`
	DateOfBirth   string              `json:"date_of_birth"`
	NextBirthday  engine.CalendarDate `json:"next_birthday"`
	DaysUntil     int                 `json:"days_until_birthday"`
	DaysUntilText string              `json:"days_until_label"`
	AgeNext       int                 `json:"age_next"`
	Today         bool                `json:"today"`
	Soon          bool                `json:"soon"`
	Label         string              `json:"label"`
}

type rosterResponse struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Empty       string              `json:"empty,omitempty"`
	Date        engine.CalendarDate `json:"date"`
	Lang        string              `json:"lang"`
	Items       []birthdayItem      `json:"items"`
	Skipped     []string            `json:"skipped"`
}

type studentBirthdayResponse struct {
	birthdayItem
	Date engine.CalendarDate `json:"date"`
	Age  int                 `json:"age"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeError maps calculator errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidDate):
		writeJSONError(w, http.StatusBadRequest, config.CodeInvalidDate, err.Error())
	case errors.Is(err, engine.ErrInvalidArgument):
		writeJSONError(w, http.StatusBadRequest, config.CodeInvalidArgument, err.Error())
	default:
		slog.ErrorContext(r.Context(), config.HTTPMsgInternalErr,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
			config.LogKeyRequestID, RequestIDFrom(r.Context()),
		)
		writeJSONError(w, http.StatusInternalServerError, config.CodeInternal, config.HTTPMsgInternalErr)
	}
}

func writeNotReady(w http.ResponseWriter) {
	w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
	writeJSONError(w, http.StatusServiceUnavailable, config.CodeNotReady, config.HTTPMsgInitializing)
}

// referenceDate is today on the server clock unless ?date= asks for another day.
func (s *Server) referenceDate(r *http.Request) (engine.CalendarDate, error) {
	if raw := r.URL.Query().Get(config.QueryDate); raw != "" {
		return engine.ParseDate(raw)
	}
	return engine.Today(s.clock), nil
}

// scope reads ?church= and ?class=. Classes may be repeated or comma separated.
func scope(r *http.Request) engine.Scope {
	q := r.URL.Query()
	sc := engine.Scope{ChurchID: strings.TrimSpace(q.Get(config.QueryChurch))}
	for _, raw := range q[config.QueryClass] {
		for _, c := range strings.Split(raw, config.ListSeparator) {
			if c = strings.TrimSpace(c); c != "" {
				sc.Classes = append(sc.Classes, c)
			}
		}
	}
	return sc
}

func (s *Server) language(r *http.Request) string {
	if s.translator == nil {
		return config.DefaultLanguage
	}
	return s.translator.Match(r.URL.Query().Get(config.QueryLanguage), r.Header.Get(config.HeaderAcceptLanguage))
}

// queryInt reads a non-mandatory integer parameter. Range checks belong to the calculator.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %s=%q: %w", config.ErrNotANumber, key, raw, engine.ErrInvalidArgument)
	}
	return n, nil
}

func (s *Server) item(lang string, e engine.RosterEntry[engine.Student], today, soon bool) birthdayItem {
	st := e.Person
	item := birthdayItem{
		StudentID:    st.ID,
		FullName:     st.FullName(),
		ClassName:    st.ClassName,
		DateOfBirth:  st.DateOfBirth,
		NextBirthday: e.Next,
		DaysUntil:    e.DaysUntil,
		AgeNext:      e.AgeNext,
		Today:        today,
		Soon:         soon,
	}
	if birth, err := st.BirthDate(); err == nil {
		item.DateOfBirth = birth.String()
	}
	if s.translator != nil {
		item.Label = s.translator.Badge(lang, today, soon)
		item.DaysUntilText = s.translator.Plural(lang, config.TKeyDaysUntil, e.DaysUntil)
	}
	return item
}

func (s *Server) rosterEnvelope(lang string, ref engine.CalendarDate, days int, items []birthdayItem, skipped []string) rosterResponse {
	resp := rosterResponse{
		Title:   config.TKeyRosterTitle,
		Date:    ref,
		Lang:    lang,
		Items:   items,
		Skipped: skipped,
	}
	if s.translator == nil {
		return resp
	}
	data := map[string]any{"Days": days}
	resp.Title = s.translator.Msg(lang, config.TKeyRosterTitle, nil)
	resp.Description = s.translator.Msg(lang, config.TKeyRosterDesc, data)
	if len(items) == 0 {
		resp.Empty = s.translator.Msg(lang, config.TKeyRosterEmpty, data)
	}
	return resp
}

func (s *Server) logSkipped(r *http.Request, skipped []string) {
	if len(skipped) == 0 {
		return
	}
	s.metrics.observeSkipped(len(skipped))
	slog.DebugContext(r.Context(), config.MsgRosterSkipped,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyCount, len(skipped),
		config.LogKeyRequestID, RequestIDFrom(r.Context()),
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: config.HTTPStatusOK, Ready: s.Ready()})
}

// handleBirthdays serves the students whose birthday falls within ?days= of the reference date.
// ?church= and ?class= restrict the students considered.
func (s *Server) handleBirthdays(w http.ResponseWriter, r *http.Request) {
	snap := s.current.Load()
	if snap == nil {
		writeNotReady(w)
		return
	}

	ref, err := s.referenceDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := queryInt(r, config.QueryDays, s.windowDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, config.QueryLimit, s.rosterLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reminders, err := engine.UpcomingWithin(engine.InScope(snap.students, scope(r)), ref, days, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logSkipped(r, reminders.Skipped)

	lang := s.language(r)
	items := make([]birthdayItem, 0, len(reminders.Items))
	for _, rem := range reminders.Items {
		items = append(items, s.item(lang, rem.RosterEntry, rem.Today, rem.Soon))
	}
	writeJSON(w, http.StatusOK, s.rosterEnvelope(lang, ref, days, items, reminders.Skipped))
}

// handleRoster serves the next ?limit= birthdays regardless of how far away they are.
func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	snap := s.current.Load()
	if snap == nil {
		writeNotReady(w)
		return
	}

	ref, err := s.referenceDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, config.QueryLimit, s.rosterLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	roster, err := engine.UpcomingRoster(engine.InScope(snap.students, scope(r)), ref, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logSkipped(r, roster.Skipped)

	lang := s.language(r)
	items := make([]birthdayItem, 0, len(roster.Entries))
	for _, e := range roster.Entries {
		items = append(items, s.item(lang, e, e.DaysUntil == 0, e.DaysUntil <= config.SoonThresholdDays))
	}
	// The roster has no window, so only the title applies.
	resp := s.rosterEnvelope(lang, ref, s.windowDays, items, roster.Skipped)
	resp.Description, resp.Empty = "", ""
	writeJSON(w, http.StatusOK, resp)
}

// handleStudentBirthday serves the age and next birthday shown on a student card.
func (s *Server) handleStudentBirthday(w http.ResponseWriter, r *http.Request) {
	snap := s.current.Load()
	if snap == nil {
		writeNotReady(w)
		return
	}

	idx, ok := snap.byID[chi.URLParam(r, config.URLParamID)]
	if !ok {
		writeJSONError(w, http.StatusNotFound, config.CodeNotFound, config.HTTPMsgNotFound)
		return
	}
	st := snap.students[idx]

	ref, err := s.referenceDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	birth, err := st.BirthDate()
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, config.CodeInvalidDate, err.Error())
		return
	}
	age, err := engine.AgeInYears(birth, ref)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, config.CodeInvalidDate, err.Error())
		return
	}
	next, err := engine.NextAnniversary(birth, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry := engine.RosterEntry[engine.Student]{
		Person:    st,
		Next:      next,
		DaysUntil: ref.DaysUntil(next),
		AgeNext:   next.Year - birth.Year,
	}
	lang := s.language(r)
	writeJSON(w, http.StatusOK, studentBirthdayResponse{
		birthdayItem: s.item(lang, entry, entry.DaysUntil == 0, entry.DaysUntil <= config.SoonThresholdDays),
		Date:         ref,
		Age:          age,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresh == nil {
		writeJSONError(w, http.StatusServiceUnavailable, config.CodeUnavailable, config.HTTPMsgRefreshOff)
		return
	}
	slog.InfoContext(r.Context(), config.MsgRefreshReq,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyRequestID, RequestIDFrom(r.Context()),
	)
	s.refresh()
	writeJSON(w, http.StatusAccepted, statusResponse{Status: config.HTTPStatusQueued})
}

// handleCalendar serves the ICS content with HTTP caching support.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	snap := s.current.Load()
	if snap == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, snap.etag)
	w.Header().Set(config.HeaderLastModified, snap.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match != "" {
		if match == snap.etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	} else if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		clientTime, err1 := time.Parse(http.TimeFormat, since)
		serverTime, err2 := time.Parse(http.TimeFormat, snap.lastModified)
		if err1 == nil && err2 == nil && !serverTime.After(clientTime) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(snap.ics)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}

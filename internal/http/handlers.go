package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cashflow/internal/aggregate"
	"cashflow/internal/cache"
	"cashflow/internal/core"
	"cashflow/internal/ledger"
	applog "cashflow/internal/log"
)

// View names used as cache keys.
const (
	viewDaily        = "daily"
	viewMonthly      = "monthly"
	viewTransactions = "transactions"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().NoStore().JSON(map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks templates and the persistence backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]string{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["backend"] = "not_configured"
	default:
		if err := s.ready(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	}

	_, version := s.service.Store().Snapshot()
	hits, misses := s.views.Stats()

	NewResponse().Status(code).NoStore().JSON(map[string]any{
		"status":        status,
		"checks":        checks,
		"ledgerVersion": version,
		"cache": map[string]any{
			"entries": s.views.Len(),
			"hits":    hits,
			"misses":  misses,
		},
	}).Write(w)
}

// sheetFor returns the daily sheet of sel for the current ledger snapshot.
func (s *Server) sheetFor(sel Selection) (aggregate.Sheet, error) {
	l, version := s.service.Store().Snapshot()
	key := cache.ViewKey{Version: version, View: viewDaily, Year: sel.Year, Month: int(sel.Month)}
	return cache.Lookup(s.views, key, func() (aggregate.Sheet, error) {
		return aggregate.DailySheet(l.Transactions(), s.service.Taxonomy(), sel.Year, sel.Month), nil
	})
}

// summariesFor returns the twelve monthly summaries of year.
func (s *Server) summariesFor(year int) ([12]aggregate.MonthSummary, error) {
	l, version := s.service.Store().Snapshot()
	key := cache.ViewKey{Version: version, View: viewMonthly, Year: year}
	return cache.Lookup(s.views, key, func() ([12]aggregate.MonthSummary, error) {
		return aggregate.MonthlySummary(l.Transactions(), s.service.Taxonomy(), year), nil
	})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	sel := ParseSelection(r.URL.Query(), s.now())
	sheet, err := s.sheetFor(sel)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	NewResponse().JSON(newDailyView(sheet)).Write(w)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	year := ParseYear(r.URL.Query(), s.now())
	summaries, err := s.summariesFor(year)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	NewResponse().JSON(newMonthlyView(year, summaries)).Write(w)
}

// handleTransactions lists every transaction split by flow. With a year
// (and optionally a month) parameter the list is restricted to that period.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, month := 0, 0
	if q.Get("year") != "" {
		sel := ParseSelection(q, s.now())
		year = sel.Year
		if q.Get("month") != "" {
			month = int(sel.Month)
		}
	}

	l, version := s.service.Store().Snapshot()
	key := cache.ViewKey{Version: version, View: viewTransactions, Year: year, Month: month}
	view, err := cache.Lookup(s.views, key, func() (transactionsView, error) {
		txs := filterPeriod(l.Transactions(), year, month)
		in, out := aggregate.Partition(txs, s.service.Taxonomy())
		return newTransactionsView(in, out), nil
	})
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	NewResponse().JSON(view).Write(w)
}

// filterPeriod keeps the transactions of year (0 = all) and month (0 = whole year).
func filterPeriod(txs []core.Transaction, year, month int) []core.Transaction {
	switch {
	case year == 0:
		return txs
	case month != 0:
		return aggregate.FilterByMonth(txs, year, time.Month(month))
	}
	prefix := fmt.Sprintf("%04d-", year)
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if len(t.Date) >= len(prefix) && t.Date[:len(prefix)] == prefix {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	tax := s.service.Taxonomy()
	NewResponse().JSON(categoriesView{
		Inflow:  tax.Categories(core.Inflow),
		Outflow: tax.Categories(core.Outflow),
	}).Write(w)
}

// handleSetCell commits one cell edit. Browser form posts are redirected
// back to the month of the edited date; API clients receive the committed
// cell as JSON.
func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	in, err := ParseCellInput(r)
	if err != nil {
		if errors.Is(err, ErrMissingField) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		BadRequestError("invalid request body").Write(w)
		return
	}

	res, err := s.service.SetCell(r.Context(), in.Date, in.Category, in.Amount)
	if err != nil {
		if errors.Is(err, core.ErrInvalidDate) || errors.Is(err, core.ErrEmptyCategory) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		s.renderError(w, r, err)
		return
	}
	if res.Change != ledger.Unchanged {
		s.views.Forget(res.Version)
	}

	if wantsHTML(r, in) {
		http.Redirect(w, r, sheetURL(res, in.Date), http.StatusSeeOther)
		return
	}

	t := res.Transaction
	NewResponse().NoStore().JSON(cellView{
		ID:        t.ID,
		Date:      t.Date,
		Category:  t.Category,
		Amount:    num(t.Amount),
		Change:    res.Change.String(),
		Version:   res.Version,
		Persisted: res.Persisted,
	}).Write(w)
}

// sheetURL points back at the month holding date.
func sheetURL(res ledger.Result, date string) string {
	d, err := core.ParseDate(date)
	if err != nil {
		return "/"
	}
	q := url.Values{}
	q.Set("year", strconv.Itoa(d.Year()))
	q.Set("month", strconv.Itoa(int(d.Month())))
	q.Set("changed", res.Change.String())
	return "/?" + q.Encode()
}

type sheetPage struct {
	Selection  Selection
	Prev, Next Selection
	MonthName  string
	Notice     string
	Today      string

	Inflow, Outflow []string
	DayNumbers      []int
	Span            int

	Sheet      aggregate.Sheet
	Months     [12]aggregate.MonthSummary
	YearTotals aggregate.MonthSummary
	HasData    bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	now := s.now()
	sel := ParseSelection(r.URL.Query(), now)

	sheet, err := s.sheetFor(sel)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	summaries, err := s.summariesFor(sel.Year)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	today := now
	if today.Year() != sel.Year || today.Month() != sel.Month {
		today = time.Date(sel.Year, sel.Month, 1, 0, 0, 0, 0, time.UTC)
	}
	days := make([]int, sheet.Days)
	for i := range days {
		days[i] = i + 1
	}

	tax := s.service.Taxonomy()
	page := sheetPage{
		Selection:  sel,
		Prev:       sel.Prev(),
		Next:       sel.Next(),
		MonthName:  sel.Month.String(),
		Notice:     noticeFor(r.URL.Query().Get("changed")),
		Today:      today.Format(core.DateLayout),
		Inflow:     tax.Categories(core.Inflow),
		Outflow:    tax.Categories(core.Outflow),
		DayNumbers: days,
		Span:       sheet.Days + 2,
		Sheet:      sheet,
		Months:     summaries,
		YearTotals: aggregate.YearTotals(summaries),
		HasData:    aggregate.HasData(summaries),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "sheet.html", page); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldOperation, applog.OpRender,
			applog.FieldError, err,
			"template", "sheet.html")
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func noticeFor(change string) string {
	switch change {
	case ledger.Created.String():
		return "Entry added."
	case ledger.Updated.String():
		return "Entry updated."
	case ledger.Deleted.String():
		return "Entry cleared."
	case ledger.Unchanged.String():
		return "Nothing changed."
	default:
		return ""
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		applog.FieldPath, r.URL.Path,
		applog.FieldError, err)
	InternalServerError("internal error").Write(w)
}

package http

import (
	"net/http"

	"scadenze/internal/core"
	"scadenze/internal/services"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParam(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.deps.Dashboard.GetDashboardSummary(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleMonthlySeries serves the per-month totals of one entry type (expense by default).
func (s *Server) handleMonthlySeries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	entryType, err := queryEntryType(query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entryType == "" {
		entryType = core.Expense
	}
	opts, err := ParseSeriesParams(query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	series, err := s.deps.Dashboard.GetMonthlySeries(r.Context(), entryType, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if series == nil {
		series = []core.MonthTotal{}
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleExpenseBreakdown(w http.ResponseWriter, r *http.Request) {
	opts, err := ParseSeriesParams(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.deps.Dashboard.GetMonthlyExpenseBreakdown(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.MonthBreakdown{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := queryInt(query, "limit", services.DefaultUpcomingLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := queryInt(query, "days", services.DefaultUpcomingDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	due, err := s.deps.Dashboard.GetUpcomingPayments(r.Context(), limit, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDue(w, due)
}

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	entryType, err := queryEntryType(query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entryType == "" {
		entryType = core.Expense
	}
	limit, err := queryInt(query, "limit", services.DefaultOverdueLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	due, err := s.deps.Dashboard.GetOverduePayments(r.Context(), entryType, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeDue(w, due)
}

func writeDue(w http.ResponseWriter, due []core.DuePayment) {
	if due == nil {
		due = []core.DuePayment{}
	}
	writeJSON(w, http.StatusOK, due)
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.deps.Dashboard.GetAvailableYears(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r.URL.Query(), "year", s.deps.Dashboard.CurrentYear())
	if err != nil {
		writeError(w, r, err)
		return
	}
	cf, err := s.deps.Dashboard.GetYearlyCashFlow(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cf)
}

package http

import (
	"net/http"

	"scadenze/internal/core"
)

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.deps.Reports.SaveReport(r.Context(), sanitizeInput(req.Name), req.Config)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/reports/"+id).
		Data(idResponse{ID: id}).
		Write(w)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.deps.Reports.ListReports(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reports == nil {
		reports = []core.ReportDefinition{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	def, err := s.deps.Reports.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	def, err := s.deps.Reports.UpdateReport(r.Context(), r.PathValue("id"), sanitizeInput(req.Name), req.Config)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Reports.DeleteReport(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	def, rows, err := s.deps.Reports.RunReport(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.AggregateRow{}
	}
	writeJSON(w, http.StatusOK, reportRunResponse{Report: def, Rows: rows})
}

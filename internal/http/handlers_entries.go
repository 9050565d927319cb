package http

import (
	"net/http"

	"scadenze/internal/core"
)

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.toNewEntry()
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.deps.Entries.CreateEntryWithSchedule(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.deps.Entries.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := s.deps.Entries.GetPaymentsByEntry(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/entries/"+id).
		Data(struct {
			Entry    entryDTO     `json:"entry"`
			Payments []paymentDTO `json:"payments"`
		}{toEntryDTO(entry), toPaymentDTOs(payments)}).
		Write(w)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entryType, err := queryEntryType(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.deps.Entries.GetEntries(r.Context(), entryType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deps.Entries.GetEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// handleUpdateEntry edits metadata only. The payment schedule is never regenerated.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req updateEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	current, err := s.deps.Entries.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.deps.Entries.UpdateEntry(r.Context(), id, req.merge(current))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(updated))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Entries.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Entries.GetPaymentsByEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Entries.GetPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(p))
}

func (s *Server) handleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := core.ParsePaymentStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.deps.Entries.UpdatePaymentStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(p))
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var q core.AggregateQuery
	if err := decodeJSON(w, r, &q); err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.deps.Aggregator.Aggregate(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.AggregateRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

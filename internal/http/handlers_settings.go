package http

import (
	"net/http"
	"strings"

	"scadenze/internal/core"
	"scadenze/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	entryType, err := queryEntryType(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	categories, err := s.deps.Settings.ListCategories(r.Context(), entryType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.deps.Settings.CreateCategory(r.Context(), core.Category{
		Name:  sanitizeInput(req.Name),
		Type:  core.EntryType(req.Type),
		Icon:  sanitizeInput(req.Icon),
		Color: sanitizeInput(req.Color),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.ListSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if settings == nil {
		settings = []core.Setting{}
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, err := s.deps.Settings.GetSetting(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, core.Setting{Key: key, Value: value})
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	key := strings.TrimSpace(r.PathValue("key"))
	value := sanitizeInput(req.Value)
	if err := s.deps.Settings.SetSetting(r.Context(), key, value); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, core.Setting{Key: key, Value: value})
}

// handleReset wipes all user data. The body must carry {"confirm":"RESET"}.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Maintenance.ResetAppData(r.Context(), req.Confirm); err != nil {
		writeError(w, r, err)
		return
	}
	version, err := s.deps.Maintenance.SchemaVersion(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.logger.WarnContext(r.Context(), "Application data reset via API", log.FieldOperation, log.OpReset)
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset", "schema_version": version})
}

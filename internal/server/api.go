package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ZaguanLabs/livelang"
	"github.com/ZaguanLabs/livelang/editor"
	"github.com/ZaguanLabs/livelang/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var body editor.SaveBody
	if !decodeJSON(w, r, &body) {
		return
	}

	id, err := s.overlay.Save(r.Context(), body.SaveRequest())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"id": id})
}

func (s *Server) handleListTranslations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ListFilter{
		Slug:     q.Get("slug"),
		Language: q.Get("language"),
		Search:   strings.TrimSpace(q.Get("q")),
		Limit:    defaultListLimit,
	}

	switch status := livelang.Status(q.Get("status")); status {
	case "", livelang.StatusActive, livelang.StatusInactive:
		filter.Status = status
	default:
		writeJSONError(w, http.StatusBadRequest, "bad_request", "status must be active or inactive", nil)
		return
	}

	var ok bool
	if filter.Limit, ok = intParam(w, q.Get("limit"), "limit", defaultListLimit); !ok {
		return
	}
	if filter.Offset, ok = intParam(w, q.Get("offset"), "offset", 0); !ok {
		return
	}
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	entries, err := s.translations.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"translations": entries, "count": len(entries)})
}

func (s *Server) handleClearTranslations(w http.ResponseWriter, r *http.Request) {
	if err := s.overlay.ClearAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.logger.Info("all translations cleared")
	writeJSONSuccess(w, nil)
}

func (s *Server) handleDeleteTranslation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	entry, err := s.translations.Get(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.translations.Delete(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateEntry(ctx, entry)
	writeJSONSuccess(w, nil)
}

func (s *Server) handleToggleTranslation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	entry, err := s.translations.Get(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status, err := s.translations.ToggleStatus(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateEntry(ctx, entry)
	writeJSONSuccess(w, map[string]any{"status": status})
}

// invalidateEntry drops the cached mappings entry takes part in.
func (s *Server) invalidateEntry(ctx context.Context, entry *livelang.Entry) {
	language, slug := entry.Language, entry.Slug
	if entry.IsGlobal {
		language, slug = "", ""
	}
	if err := s.overlay.Invalidate(ctx, language, slug); err != nil {
		s.logger.Warn("invalidating render cache failed", "id", entry.ID, "error", err)
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Settings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"settings": settings})
}

// settingsUpdate is a partial settings change; absent fields keep their value.
type settingsUpdate struct {
	Enabled          *bool    `json:"enabled"`
	AllowedRoles     []string `json:"allowed_roles"`
	TranslateNumbers *bool    `json:"translate_numbers"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update settingsUpdate
	if !decodeJSON(w, r, &update) {
		return
	}
	ctx := r.Context()

	settings, err := s.settings.Settings(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	numbersBefore := settings.TranslateNumbers

	if update.Enabled != nil {
		settings.Enabled = *update.Enabled
	}
	if update.TranslateNumbers != nil {
		settings.TranslateNumbers = *update.TranslateNumbers
	}
	if update.AllowedRoles != nil {
		roles := make([]string, 0, len(update.AllowedRoles))
		for _, role := range update.AllowedRoles {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
		if len(roles) == 0 {
			writeError(w, r, &livelang.ValidationError{Field: "allowed_roles", Message: "must name at least one role"})
			return
		}
		settings.AllowedRoles = roles
	}

	if err := s.settings.SaveSettings(ctx, settings); err != nil {
		writeError(w, r, err)
		return
	}

	// The numeric policy changes how every mapping is built.
	if settings.TranslateNumbers != numbersBefore {
		if err := s.overlay.Invalidate(ctx, "", ""); err != nil {
			s.logger.Warn("invalidating render cache failed", "error", err)
		}
	}

	s.logger.Info("settings updated", "enabled", settings.Enabled, "translate_numbers", settings.TranslateNumbers)
	writeJSONSuccess(w, map[string]any{"settings": settings})
}

func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := s.languages.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	defaultCode, err := s.languages.Default(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"languages": langs, "default": defaultCode})
}

type languageRequest struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

func (s *Server) handleAddLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lang, err := s.languages.Add(r.Context(), strings.ToLower(req.Code), req.Label)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logger.Info("language added", "code", lang.Code)
	writeJSONStatus(w, http.StatusCreated, map[string]any{"language": lang})
}

func (s *Server) handleUpdateLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.languages.Update(r.Context(), chi.URLParam(r, "code"), req.Label); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, nil)
}

func (s *Server) handleDeleteLanguage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := s.languages.Delete(r.Context(), code); err != nil {
		writeError(w, r, err)
		return
	}
	s.logger.Info("language deleted", "code", code)
	writeJSONSuccess(w, nil)
}

func (s *Server) handleReorderLanguages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Codes []string `json:"codes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.languages.Reorder(r.Context(), req.Codes); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, nil)
}

func (s *Server) handleSetDefaultLanguage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := s.languages.SetDefault(r.Context(), code); err != nil {
		writeError(w, r, err)
		return
	}
	s.logger.Info("default language changed", "code", code)
	writeJSONSuccess(w, nil)
}

func (s *Server) handleFlushCache(w http.ResponseWriter, r *http.Request) {
	if err := s.overlay.Invalidate(r.Context(), "", ""); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, nil)
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "invalid id", nil)
		return 0, false
	}
	return id, true
}

func intParam(w http.ResponseWriter, raw, name string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeJSONError(w, http.StatusBadRequest, "bad_request", name+" must be a non-negative integer", nil)
		return 0, false
	}
	return n, true
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

// AlertRulesHandler exposes the alert rule registry over HTTP: listing for
// all callers plus create/replace and delete for administrators.
type AlertRulesHandler struct {
	registry domain.RuleRegistry
	logger   *slog.Logger
}

// NewAlertRulesHandler creates a new AlertRulesHandler.
func NewAlertRulesHandler(registry domain.RuleRegistry, logger *slog.Logger) *AlertRulesHandler {
	return &AlertRulesHandler{registry: registry, logger: logger}
}

// List serves GET /api/v1/alerts/rules as a mapping of rule name to rule.
func (h *AlertRulesHandler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.registry.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list alert rules", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list alert rules")
		return
	}

	byName := make(map[string]*domain.AlertRule, len(rules))
	for _, rule := range rules {
		byName[rule.Name] = rule
	}
	respondJSON(w, http.StatusOK, byName)
}

// Put serves PUT /api/v1/alerts/rules/{name}, creating or replacing a rule.
func (h *AlertRulesHandler) Put(w http.ResponseWriter, r *http.Request) {
	var rule domain.AlertRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	rule.Name = chi.URLParam(r, "name")

	if err := h.registry.Put(r.Context(), &rule); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		h.logger.Error("failed to store alert rule", "rule", rule.Name, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store alert rule")
		return
	}

	respondJSON(w, http.StatusOK, &rule)
}

// Delete serves DELETE /api/v1/alerts/rules/{name}.
func (h *AlertRulesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.registry.Remove(r.Context(), name); err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			respondError(w, http.StatusNotFound, "alert rule not found")
			return
		}
		h.logger.Error("failed to remove alert rule", "rule", name, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to remove alert rule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"judolog/internal/moodtheme"
)

type MoodThemeHandler struct {
	applier *moodtheme.Applier
	log     *zap.Logger
}

func NewMoodThemeHandler(applier *moodtheme.Applier, log *zap.Logger) *MoodThemeHandler {
	return &MoodThemeHandler{applier: applier, log: log}
}

type appliedResponse struct {
	moodtheme.Applied
	Vars moodtheme.Vars `json:"css_vars"`
}

type currentResponse struct {
	Theme moodtheme.Theme         `json:"theme"`
	Entry *moodtheme.HistoryEntry `json:"entry,omitempty"`
	Vars  moodtheme.Vars          `json:"css_vars"`
}

func (h *MoodThemeHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, moodtheme.Themes())
}

type suggestRequest struct {
	Mood   int  `json:"mood"`
	Energy *int `json:"energy"`
	Stress *int `json:"stress"`
	Apply  bool `json:"apply"`
}

// Suggest picks a theme for a check-in. With "apply": true the theme is also
// applied and recorded as auto-applied for the check-in mood.
func (h *MoodThemeHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req suggestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	theme, err := moodtheme.Suggest(req.Mood, req.Energy, req.Stress)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if !req.Apply {
		writeJSON(w, http.StatusOK, map[string]any{
			"theme":         theme,
			"adjusted_mood": moodtheme.AdjustedMood(req.Mood, req.Energy, req.Stress),
		})
		return
	}
	mood := req.Mood
	writeJSON(w, http.StatusOK, h.apply(r, userID, theme, &mood))
}

type applyRequest struct {
	ThemeID  string `json:"theme_id"`
	UserMood *int   `json:"user_mood"`
}

func (h *MoodThemeHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req applyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	theme, found := moodtheme.ByID(req.ThemeID)
	if !found {
		http.Error(w, "unknown theme_id", http.StatusBadRequest)
		return
	}
	if m := req.UserMood; m != nil && (*m < moodtheme.MinLevel || *m > moodtheme.MaxLevel) {
		http.Error(w, "user_mood must be between 1 and 5", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.apply(r, userID, theme, req.UserMood))
}

func (h *MoodThemeHandler) apply(r *http.Request, userID int, theme moodtheme.Theme, userMood *int) appliedResponse {
	vars := moodtheme.Vars{}
	applied := h.applier.Apply(r.Context(), scope(userID), theme, userMood, vars)
	return appliedResponse{Applied: applied, Vars: vars}
}

func (h *MoodThemeHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	theme, entry, err := h.applier.Current(r.Context(), scope(userID))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	vars := moodtheme.Vars{}
	moodtheme.Paint(theme, vars)
	writeJSON(w, http.StatusOK, currentResponse{Theme: theme, Entry: entry, Vars: vars})
}

func (h *MoodThemeHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	history, err := h.applier.History(r.Context(), scope(userID))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *MoodThemeHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.applier.Reset(r.Context(), scope(userID)); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func scope(userID int) string { return strconv.Itoa(userID) }

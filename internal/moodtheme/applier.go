package moodtheme

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxHistory bounds the persisted history; the oldest entry is evicted first.
const MaxHistory = 10

// Canvas receives the palette of an applied theme.
type Canvas interface {
	SetVar(name, value string)
}

// Vars is a Canvas that collects CSS custom properties.
type Vars map[string]string

func (v Vars) SetVar(name, value string) { v[name] = value }

type HistoryEntry struct {
	ID          string    `json:"id"`
	ThemeID     string    `json:"theme_id"`
	UserMood    *int      `json:"user_mood,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	AutoApplied bool      `json:"auto_applied"`
}

type Applied struct {
	Theme Theme        `json:"theme"`
	Entry HistoryEntry `json:"entry"`
}

type Applier struct {
	store KVStore
	log   *zap.Logger
	now   func() time.Time
}

func NewApplier(store KVStore, log *zap.Logger) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{store: store, log: log, now: time.Now}
}

// Paint writes theme's colors and gradient to canvas as CSS variables.
func Paint(theme Theme, canvas Canvas) {
	for _, c := range theme.Colors.named() {
		canvas.SetVar("--"+c.name, c.color.String())
	}
	canvas.SetVar("--gradient", theme.Gradient)
}

// Apply paints canvas, records the selection in scope's history and makes it
// current. Persistence failures are logged and never returned: the palette
// change always takes effect.
func (a *Applier) Apply(ctx context.Context, scope string, theme Theme, userMood *int, canvas Canvas) Applied {
	if canvas != nil {
		Paint(theme, canvas)
	}
	entry := HistoryEntry{
		ID:          uuid.NewString(),
		ThemeID:     theme.ID,
		UserMood:    userMood,
		Timestamp:   a.now().UTC(),
		AutoApplied: userMood != nil,
	}
	log := a.log.With(zap.String("scope", scope), zap.String("theme_id", theme.ID))

	history, err := a.History(ctx, scope)
	if err != nil {
		// The store is unreachable; rewriting from an empty list would drop entries.
		log.Warn("theme history unavailable; not recording", zap.Error(err))
	} else if err := a.writeJSON(ctx, historyKey(scope), appendHistory(history, entry)); err != nil {
		log.Warn("theme history write failed", zap.Error(err))
	}

	if err := a.writeJSON(ctx, currentKey(scope), entry); err != nil {
		log.Warn("current theme write failed", zap.Error(err))
	}
	return Applied{Theme: theme, Entry: entry}
}

// appendHistory puts e first and keeps at most MaxHistory entries.
func appendHistory(history []HistoryEntry, e HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, MaxHistory)
	out = append(out, e)
	for _, h := range history {
		if len(out) == MaxHistory {
			break
		}
		out = append(out, h)
	}
	return out
}

// Current returns the persisted selection for scope, if any.
func (a *Applier) Current(ctx context.Context, scope string) (Theme, *HistoryEntry, error) {
	raw, ok, err := a.store.Get(ctx, currentKey(scope))
	if err != nil {
		return Theme{}, nil, err
	}
	if !ok {
		return ByMood(NeutralMood), nil, nil
	}
	var e HistoryEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Theme{}, nil, fmt.Errorf("decode current theme: %w", err)
	}
	t, found := ByID(e.ThemeID)
	if !found {
		return ByMood(NeutralMood), nil, nil
	}
	return t, &e, nil
}

// History returns entries newest first. An undecodable stored value reads as
// an empty history so the next Apply replaces it.
func (a *Applier) History(ctx context.Context, scope string) ([]HistoryEntry, error) {
	raw, ok, err := a.store.Get(ctx, historyKey(scope))
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []HistoryEntry{}, nil
	}
	var out []HistoryEntry
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		a.log.Warn("discarding undecodable theme history", zap.String("scope", scope), zap.Error(err))
		return []HistoryEntry{}, nil
	}
	if out == nil {
		out = []HistoryEntry{}
	}
	return out, nil
}

// Reset forgets the current selection and history for scope.
func (a *Applier) Reset(ctx context.Context, scope string) error {
	if err := a.store.Remove(ctx, currentKey(scope)); err != nil {
		return err
	}
	return a.store.Remove(ctx, historyKey(scope))
}

func (a *Applier) writeJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, string(b))
}

package models

import (
	"net/url"
	"strings"
	"time"

	"judolog/internal/apperr"
)

type User struct {
	ID              int       `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`         // Encrypted in DB
	EmailBlindIndex string    `db:"email_blind_index" json:"-"` // HMAC hash for searching
	PasswordHash    string    `db:"password_hash" json:"-"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	FirstName       *string   `db:"first_name" json:"first_name,omitempty"`
	LastName        *string   `db:"last_name" json:"last_name,omitempty"`
	BeltRank        *string   `db:"belt_rank" json:"belt_rank,omitempty"`
	ClubID          *int      `db:"club_id" json:"club_id,omitempty"`
}

// Owned carries the columns every user-owned table shares.
type Owned struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (o *Owned) SetID(id int)        { o.ID = id }
func (o *Owned) SetOwner(userID int) { o.UserID = userID }

type TrainingSession struct {
	Owned
	LocalDate       Date   `db:"local_date" json:"local_date"`
	Type            string `db:"type" json:"type"`
	DurationMinutes int    `db:"duration_minutes" json:"duration_minutes"`
	Intensity       int    `db:"intensity" json:"intensity"`
	Notes           string `db:"notes" json:"notes"` // Encrypted in DB
}

func (s *TrainingSession) Validate() error {
	if s.LocalDate.IsZero() {
		return apperr.Invalid("local_date", "required, expected YYYY-MM-DD")
	}
	if strings.TrimSpace(s.Type) == "" {
		return apperr.Invalid("type", "required")
	}
	if s.DurationMinutes <= 0 {
		return apperr.Invalid("duration_minutes", "must be positive")
	}
	if s.Intensity < 0 || s.Intensity > 10 {
		return apperr.Invalid("intensity", "must be between 0 and 10")
	}
	return nil
}

type Exercise struct {
	Owned
	SessionID       int    `db:"session_id" json:"session_id"`
	Name            string `db:"name" json:"name"`
	Sets            int    `db:"sets" json:"sets"`
	Reps            int    `db:"reps" json:"reps"`
	DurationMinutes int    `db:"duration_minutes" json:"duration_minutes"`
	Notes           string `db:"notes" json:"notes"`
}

func (e *Exercise) Validate() error {
	if e.SessionID <= 0 {
		return apperr.Invalid("session_id", "required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return apperr.Invalid("name", "required")
	}
	if e.Sets < 0 || e.Reps < 0 || e.DurationMinutes < 0 {
		return apperr.Invalid("exercise", "sets, reps and duration must not be negative")
	}
	return nil
}

type Technique struct {
	Owned
	Name        string `db:"name" json:"name"`
	Category    string `db:"category" json:"category"`
	Description string `db:"description" json:"description"`
	KeyPoints   string `db:"key_points" json:"key_points"`
	VideoURL    string `db:"video_url" json:"video_url"`
	ImageURL    string `db:"image_url" json:"image_url"`
}

func (t *Technique) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return apperr.Invalid("name", "required")
	}
	if strings.TrimSpace(t.Category) == "" {
		return apperr.Invalid("category", "required")
	}
	if err := checkURL("video_url", t.VideoURL); err != nil {
		return err
	}
	return checkURL("image_url", t.ImageURL)
}

type TacticalNote struct {
	Owned
	Title    string `db:"title" json:"title"`
	Category string `db:"category" json:"category"`
	Opponent string `db:"opponent" json:"opponent"`
	Content  string `db:"content" json:"content"` // Encrypted in DB
	MediaURL string `db:"media_url" json:"media_url"`
}

func (n *TacticalNote) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return apperr.Invalid("title", "required")
	}
	if strings.TrimSpace(n.Category) == "" {
		return apperr.Invalid("category", "required")
	}
	return checkURL("media_url", n.MediaURL)
}

type Club struct {
	Owned
	Name        string `db:"name" json:"name"`
	City        string `db:"city" json:"city"`
	Description string `db:"description" json:"description"`
}

func (c *Club) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperr.Invalid("name", "required")
	}
	return nil
}

// Media is stored as a link only; empty means none.
func checkURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.Invalid(field, "must be an http(s) URL")
	}
	return nil
}

package services

import (
	"bytes"
	"testing"

	"judolog/internal/models"
)

func newTestService(t *testing.T) *EncryptionService {
	t.Helper()
	s, err := NewEncryptionService(bytes.Repeat([]byte{3}, 32), bytes.Repeat([]byte{4}, 32))
	if err != nil {
		t.Fatalf("NewEncryptionService: %v", err)
	}
	return s
}

func TestEncryptUserNormalizesEmail(t *testing.T) {
	s := newTestService(t)
	u := models.User{Email: "  Judoka@Example.COM "}
	if err := s.EncryptUser(&u); err != nil {
		t.Fatalf("EncryptUser: %v", err)
	}
	if u.Email == "judoka@example.com" {
		t.Fatalf("email stored in plaintext")
	}
	if u.EmailBlindIndex != s.EmailBlindIndex("judoka@example.com") {
		t.Fatalf("blind index must match normalized lookup")
	}
	if err := s.DecryptUser(&u); err != nil {
		t.Fatalf("DecryptUser: %v", err)
	}
	if u.Email != "judoka@example.com" {
		t.Fatalf("email: got=%q", u.Email)
	}
}

func TestNoteAndSessionRoundTrip(t *testing.T) {
	s := newTestService(t)
	n := models.TacticalNote{Title: "vs. Tanaka", Content: "grips high on the collar"}
	if err := s.EncryptNote(&n); err != nil {
		t.Fatalf("EncryptNote: %v", err)
	}
	if n.Content == "grips high on the collar" || n.Title != "vs. Tanaka" {
		t.Fatalf("only content should be sealed: %+v", n)
	}
	if err := s.DecryptNote(&n); err != nil || n.Content != "grips high on the collar" {
		t.Fatalf("DecryptNote: content=%q err=%v", n.Content, err)
	}

	sess := models.TrainingSession{Notes: "knee felt fine"}
	if err := s.EncryptSession(&sess); err != nil {
		t.Fatalf("EncryptSession: %v", err)
	}
	if err := s.DecryptSession(&sess); err != nil || sess.Notes != "knee felt fine" {
		t.Fatalf("DecryptSession: notes=%q err=%v", sess.Notes, err)
	}
}

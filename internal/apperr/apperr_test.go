package apperr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Invalid("date", "bad"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("classify: %w", Invalid("date", "bad")), http.StatusBadRequest},
		{"not found", fmt.Errorf("get session: %w", ErrNotFound), http.StatusNotFound},
		{"conflict", ErrConflict, http.StatusConflict},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := Status(tc.err)
			if got != tc.want {
				t.Fatalf("status: want=%d got=%d", tc.want, got)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := Invalid("mood", "must be between 1 and 5")
	if err.Error() != "invalid mood: must be between 1 and 5" {
		t.Fatalf("message: got=%q", err.Error())
	}
	if !IsValidation(err) {
		t.Fatalf("IsValidation: want=true")
	}
}

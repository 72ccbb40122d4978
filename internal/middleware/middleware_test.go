package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"judolog/internal/roles"
)

var secret = []byte("test-secret")

func sign(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, ok := UserID(r.Context())
	if !ok {
		http.Error(w, "no user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte{byte('0' + id)})
}

func TestRequireAuth(t *testing.T) {
	h := NewAuthMiddleware(secret).RequireAuth(http.HandlerFunc(echoUser))
	valid := sign(t, jwt.MapClaims{"sub": 7, "exp": time.Now().Add(time.Hour).Unix()}, jwt.SigningMethodHS256)
	expired := sign(t, jwt.MapClaims{"sub": 7, "exp": time.Now().Add(-time.Hour).Unix()}, jwt.SigningMethodHS256)
	noExp := sign(t, jwt.MapClaims{"sub": 7}, jwt.SigningMethodHS256)
	wrongAlg := sign(t, jwt.MapClaims{"sub": 7, "exp": time.Now().Add(time.Hour).Unix()}, jwt.SigningMethodHS512)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"no expiry", "Bearer " + noExp, http.StatusUnauthorized},
		{"wrong alg", "Bearer " + wrongAlg, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status: want=%d got=%d", tc.want, rec.Code)
			}
			if tc.want == http.StatusOK && rec.Body.String() != "7" {
				t.Fatalf("user id: got=%q", rec.Body.String())
			}
		})
	}
}

type fakeChecker struct {
	allowed map[int]bool
	err     error
}

func (f fakeChecker) HasRole(_ context.Context, userID int, _ roles.Role) (bool, error) {
	return f.allowed[userID], f.err
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	cases := []struct {
		name    string
		checker fakeChecker
		userID  int
		want    int
	}{
		{"allowed", fakeChecker{allowed: map[int]bool{1: true}}, 1, http.StatusNoContent},
		{"denied", fakeChecker{allowed: map[int]bool{1: true}}, 2, http.StatusForbidden},
		{"error", fakeChecker{err: errors.New("db down")}, 1, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := RequireRole(tc.checker, roles.Trainer, zap.NewNop())(ok)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithUserID(req.Context(), tc.userID))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status: want=%d got=%d", tc.want, rec.Code)
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", rec.Code)
	}
}

func TestZapRequestLoggerPassesThrough(t *testing.T) {
	h := ZapRequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status: want=418 got=%d", rec.Code)
	}
}

func TestZapRequestLoggerLevels(t *testing.T) {
	cases := []struct {
		status int
		want   zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.InfoLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		core, logs := observer.New(zapcore.InfoLevel)
		h := ZapRequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("status %d: want=1 entry got=%d", tc.status, len(entries))
		}
		if entries[0].Level != tc.want {
			t.Fatalf("status %d: level want=%v got=%v", tc.status, tc.want, entries[0].Level)
		}
		if got := entries[0].ContextMap()["path"]; got != "/api/sessions" {
			t.Fatalf("path field: got=%v", got)
		}
	}
	if levelFor(http.StatusOK, SlowRequest+time.Millisecond) != zapcore.WarnLevel {
		t.Fatalf("slow request should log at warn")
	}
}

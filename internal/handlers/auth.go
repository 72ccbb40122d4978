package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"judolog/internal/models"
	"judolog/internal/roles"
	"judolog/internal/services"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	db        *sqlx.DB
	encSvc    *services.EncryptionService
	jwtSecret []byte
	log       *zap.Logger
}

func NewAuthHandler(db *sqlx.DB, encSvc *services.EncryptionService, jwtSecret []byte, log *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, encSvc: encSvc, jwtSecret: jwtSecret, log: log}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *credentials) normalize() bool {
	c.Email = services.NormalizeEmail(c.Email)
	return c.Email != "" && c.Password != ""
}

// Signup creates the account with the athlete role and returns a token.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !decodeBody(w, r, &c) {
		return
	}
	if !c.normalize() {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}
	if len(c.Password) < 8 {
		http.Error(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "could not hash password", http.StatusInternalServerError)
		return
	}
	u := models.User{Email: c.Email, PasswordHash: string(hashed)}
	if err := h.encSvc.EncryptUser(&u); err != nil {
		h.log.Error("encrypt user", zap.Error(err))
		http.Error(w, "could not encrypt user data", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		http.Error(w, "could not start transaction", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	var userID int
	err = tx.GetContext(ctx, &userID,
		`INSERT INTO users (email, email_blind_index, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		u.Email, u.EmailBlindIndex, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		h.log.Error("create user", zap.Error(err))
		http.Error(w, "could not create user", http.StatusInternalServerError)
		return
	}
	if err := roles.Assign(ctx, tx, userID, roles.Athlete); err != nil {
		h.log.Error("assign default role", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "could not create user", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, "could not commit transaction", http.StatusInternalServerError)
		return
	}

	h.respondToken(w, http.StatusCreated, userID)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !decodeBody(w, r, &c) {
		return
	}
	if !c.normalize() {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	var u models.User
	err := h.db.GetContext(r.Context(), &u,
		`SELECT id, password_hash FROM users WHERE email_blind_index=$1`, h.encSvc.EmailBlindIndex(c.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.log.Error("lookup user", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	h.respondToken(w, http.StatusOK, u.ID)
}

func (h *AuthHandler) respondToken(w http.ResponseWriter, status, userID int) {
	token, err := IssueToken(h.jwtSecret, userID, time.Now())
	if err != nil {
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, map[string]any{"token": token})
}

// IssueToken signs an HS256 token for userID valid for 24 hours from now.
func IssueToken(secret []byte, userID int, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(tokenTTL).Unix(),
		"iat": now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"safeway/internal/models"
)

type AuthHandler struct {
	db        *sqlx.DB
	jwtSecret []byte
	jwtTTL    time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(db *sqlx.DB, jwtSecret []byte, jwtTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, jwtSecret: jwtSecret, jwtTTL: jwtTTL, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,strongpw"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"omitempty,inmobile"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) issueToken(userID int, email string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(h.jwtTTL).Unix(),
		"iat":   time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
}

// Register creates a new user and returns a token plus the public
// profile fields.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	var existing int
	err := h.db.Get(&existing, `SELECT id FROM users WHERE email=$1`, req.Email)
	if err == nil {
		respondError(w, http.StatusBadRequest, "User with this email already exists")
		return
	}
	if err != sql.ErrNoRows {
		h.logger.Error("register lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Registration failed. Please try again.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("password hash failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Registration failed. Please try again.")
		return
	}

	var phone *string
	if req.Phone != "" {
		phone = &req.Phone
	}

	var user models.User
	err = h.db.QueryRowx(
		`INSERT INTO users (email, password_hash, name, phone)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, email, password_hash, name, phone, created_at, updated_at`,
		req.Email, string(hashed), req.Name, phone).StructScan(&user)
	if err != nil {
		h.logger.Error("user insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Registration failed. Please try again.")
		return
	}

	token, err := h.issueToken(user.ID, user.Email)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Registration failed. Please try again.")
		return
	}

	respondSuccess(w, http.StatusCreated, envelope{
		"data":    envelope{"user": user, "token": token},
		"message": "User registered successfully",
	})
}

// Login verifies credentials and issues a token. The response never
// reveals whether the email exists.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	var user models.User
	err := h.db.Get(&user,
		`SELECT id, email, password_hash, name, phone, created_at, updated_at FROM users WHERE email=$1`,
		req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.logger.Error("login lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Login failed. Please try again.")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.issueToken(user.ID, user.Email)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Login failed. Please try again.")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{
		"data":    envelope{"user": user, "token": token},
		"message": "Login successful",
	})
}

// Me returns the profile of the authenticated caller.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var user models.User
	err := h.db.Get(&user,
		`SELECT id, email, password_hash, name, phone, created_at, updated_at FROM users WHERE id=$1`,
		userID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("me lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch user data")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"data": user})
}

package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
)

type AuthMiddleware struct {
	db        *sqlx.DB
	jwtSecret []byte
}

func NewAuthMiddleware(db *sqlx.DB, secret []byte) *AuthMiddleware {
	return &AuthMiddleware{db: db, jwtSecret: secret}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

// RequireAuth verifies the bearer token, confirms the user still exists,
// and attaches identity to the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			unauthorized(w, "No token provided. Please authenticate.")
			return
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.jwtSecret, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				unauthorized(w, "Token expired. Please log in again.")
				return
			}
			unauthorized(w, "Invalid token. Please log in again.")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(w, "Invalid token. Please log in again.")
			return
		}
		sub, ok := claims["sub"].(float64)
		if !ok {
			unauthorized(w, "Invalid token. Please log in again.")
			return
		}
		email, _ := claims["email"].(string)

		userID := int(sub)
		var exists int
		if err := m.db.Get(&exists, `SELECT id FROM users WHERE id=$1`, userID); err != nil {
			if err == sql.ErrNoRows {
				unauthorized(w, "User not found. Please log in again.")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Authentication failed"})
			return
		}

		ctx := context.WithValue(r.Context(), "userID", userID)
		ctx = context.WithValue(ctx, "userEmail", email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

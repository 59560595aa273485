package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"brewtab-cafe-service/internal/auth"
)

type contextKey string

const (
	authContextKey  contextKey = "authContext"
	tableContextKey contextKey = "tableContext"
)

type AuthContext struct {
	UserID int64
	Email  string
	Name   string
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

type TableContext struct {
	TableID     int64
	TableNumber string
}

func WithTableContext(ctx context.Context, tc *TableContext) context.Context {
	return context.WithValue(ctx, tableContextKey, tc)
}

func GetTableContext(ctx context.Context) (*TableContext, bool) {
	value := ctx.Value(tableContextKey)
	if value == nil {
		return nil, false
	}
	tc, ok := value.(*TableContext)
	return tc, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "UNAUTHORIZED",
		"message": message,
	})
}

// StaffAuth verifies the bearer token and checks the staff account is
// still active before letting a dashboard request through.
func StaffAuth(db *pgxpool.Pool, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "Authorization token is required")
				return
			}

			claims, err := auth.VerifyAccessToken(token, secret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			userID, err := strconv.ParseInt(strings.TrimSpace(claims.UserID), 10, 64)
			if err != nil || userID <= 0 {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token subject")
				return
			}

			var (
				name     string
				isActive bool
			)
			err = db.QueryRow(r.Context(), `select name, is_active from staff_users where id = $1`, userID).Scan(&name, &isActive)
			if err != nil || !isActive {
				writeAuthError(w, http.StatusUnauthorized, "Staff account not found or disabled")
				return
			}

			ctx := WithAuthContext(r.Context(), &AuthContext{
				UserID: userID,
				Email:  claims.Email,
				Name:   name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TableSession verifies the signed table token issued at QR scan time.
// The QR code itself only carries the table number; identity lives in
// the server-signed token, never in a client-decryptable payload.
func TableSession(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get("X-Table-Session"))
			if token == "" {
				token = auth.ParseBearerToken(r.Header.Get("Authorization"))
			}
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "Table session token is required")
				return
			}

			claims, err := auth.VerifyTableToken(token, secret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired table session")
				return
			}

			ctx := WithTableContext(r.Context(), &TableContext{
				TableID:     claims.TableID,
				TableNumber: claims.TableNumber,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

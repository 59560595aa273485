package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Table session tokens replace client-decryptable QR payloads: the QR code
// only carries the table number, and the server signs the session identity.
type TableClaims struct {
	TableID     int64  `json:"tableId"`
	TableNumber string `json:"tableNumber"`
	jwt.RegisteredClaims
}

func IssueTableToken(tableID int64, tableNumber string, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TableClaims{
		TableID:     tableID,
		TableNumber: tableNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "table-session",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func VerifyTableToken(tokenString string, secret string) (*TableClaims, error) {
	if tokenString == "" {
		return nil, errors.New("table token required")
	}

	claims := &TableClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, errors.New("table session expired")
	}
	if claims.TableID == 0 {
		return nil, errors.New("invalid table session")
	}
	return claims, nil
}

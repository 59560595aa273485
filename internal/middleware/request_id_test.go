package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brewtab-cafe-service/internal/auth"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if seen == "" {
		t.Fatal("expected a generated request id")
	}
	if rec.Header().Get("X-Request-Id") != seen {
		t.Fatal("expected the same id on the response header")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"request id header", "X-Request-Id"},
		{"correlation id header", "X-Correlation-Id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set(tc.header, "abc-123")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if seen != "abc-123" {
				t.Fatalf("expected abc-123, got %q", seen)
			}
		})
	}
}

func TestRequestIDOutsideMiddleware(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestTableSessionMiddleware(t *testing.T) {
	const secret = "table-secret"
	token, err := auth.IssueTableToken(9, "T-09", secret, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	var captured *TableContext
	handler := TableSession(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = GetTableContext(r.Context())
	}))

	req := httptest.NewRequest("POST", "/api/public/orders", nil)
	req.Header.Set("X-Table-Session", token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured == nil || captured.TableID != 9 || captured.TableNumber != "T-09" {
		t.Fatalf("unexpected table context: %+v", captured)
	}
}

func TestTableSessionMiddlewareRejects(t *testing.T) {
	handler := TableSession("table-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("POST", "/api/public/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing token, got %d", rec.Code)
	}

	req = httptest.NewRequest("POST", "/api/public/orders", nil)
	req.Header.Set("X-Table-Session", "not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
}

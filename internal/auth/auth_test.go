package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("rahasia123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "rahasia123" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !CheckPassword(hash, "rahasia123") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "salah") {
		t.Fatalf("wrong password accepted")
	}
}

func TestHashPasswordTooShort(t *testing.T) {
	if _, err := HashPassword("abc"); err != ErrPasswordTooShort {
		t.Fatalf("got %v, want ErrPasswordTooShort", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer("test-secret-test-secret", time.Hour)
	token, err := ti.Issue(42, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, err := ti.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != 42 {
		t.Fatalf("user id = %d, want 42", userID)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	ti := NewTokenIssuer("test-secret-test-secret", time.Hour)
	other := NewTokenIssuer("another-secret-entirely", time.Hour)
	token, err := ti.Issue(42, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := other.Parse(token); err != ErrInvalidToken {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestTokenExpiryRejected(t *testing.T) {
	ti := NewTokenIssuer("test-secret-test-secret", time.Minute)
	token, err := ti.Issue(7, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ti.Parse(token); err != ErrInvalidToken {
		t.Fatalf("expired token should be rejected, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	ti := NewTokenIssuer("test-secret-test-secret", time.Hour)

	var gotID int64
	var gotErr error
	protected := ti.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotErr = UserIDFromContext(r.Context())
	}))

	// No token. The rejection uses the same JSON envelope as the API.
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("no token: content type %q, want JSON", ct)
	}
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode rejection body: %v", err)
	}
	if body.Success || body.Message == "" {
		t.Fatalf("rejection body = %+v, want success=false with a message", body)
	}

	// Garbage token.
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d, want 401", rr.Code)
	}

	// Valid token.
	token, err := ti.Issue(9, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("valid token: status %d, want 200", rr.Code)
	}
	if gotErr != nil || gotID != 9 {
		t.Fatalf("context user id = %d (%v), want 9", gotID, gotErr)
	}
}

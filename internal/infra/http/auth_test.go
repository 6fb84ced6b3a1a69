package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classifieds-engine/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := IssueToken("secret", domain.Identity{UserID: 42, Role: domain.UserRoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("не удалось подписать токен: %v", err)
	}
	who, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if who.UserID != 42 || !who.IsAdmin() {
		t.Fatalf("неожиданный вызывающий: %+v", who)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatalf("токен с чужой подписью должен отклоняться")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := IssueToken("secret", domain.Identity{UserID: 1, Role: domain.UserRoleMember}, -time.Minute)
	if err != nil {
		t.Fatalf("не удалось подписать токен: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatalf("просроченный токен должен отклоняться")
	}
}

func TestAuthMiddleware(t *testing.T) {
	var got domain.Identity
	handler := AuthMiddleware("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("без токена ожидали 401, получили %d", rec.Code)
	}

	token, _ := IssueToken("secret", domain.Identity{UserID: 9, Role: domain.UserRoleMember}, time.Hour)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("ожидали 204, получили %d", rec.Code)
	}
	if got.UserID != 9 || got.IsAdmin() {
		t.Fatalf("неожиданный вызывающий: %+v", got)
	}
}

package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/feria-cr/feria-backend/internal/auth"
	usersvc "github.com/feria-cr/feria-backend/internal/users"
	pkgauth "github.com/feria-cr/feria-backend/pkg/auth"
	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/enums"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
)

var controllerJWTConfig = config.JWTConfig{
	Secret:            "controller-test-secret",
	Issuer:            "feria-test",
	ExpirationMinutes: 15,
}

type stubAuthService struct {
	loginResp  *authsvc.LoginResponse
	loginErr   error
	refreshed  *authsvc.RefreshRequest
	revokedJTI string
}

func (s *stubAuthService) Login(_ context.Context, _ authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	return s.loginResp, s.loginErr
}

func (s *stubAuthService) Refresh(_ context.Context, req authsvc.RefreshRequest) (*authsvc.RefreshResponse, error) {
	s.refreshed = &req
	return &authsvc.RefreshResponse{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.revokedJTI = accessID
	return nil
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := &stubAuthService{
		loginResp: &authsvc.LoginResponse{
			AccessToken:  "access",
			RefreshToken: "refresh",
			User:         &usersvc.UserDTO{ID: uuid.New(), Email: "ana@example.cr"},
		},
	}
	handler := AuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ana@example.cr","password":"hunter2secret"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data authsvc.LoginResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access" || envelope.Data.User == nil {
		t.Fatalf("unexpected login payload: %+v", envelope.Data)
	}
}

func TestAuthLoginRejectsInvalidBody(t *testing.T) {
	handler := AuthLogin(&stubAuthService{}, nil)

	for _, body := range []string{`{}`, `{"email":"not-an-email","password":"x"}`, `{"email":"ana@example.cr"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, resp.Code)
		}
	}
}

func TestAuthLoginSurfacesUnauthorized(t *testing.T) {
	svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ana@example.cr","password":"wrong-password"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLogoutRevokesSessionFromToken(t *testing.T) {
	token, err := pkgauth.MintAccessToken(controllerJWTConfig, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleBuyer,
		JTI:    "session-42",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	svc := &stubAuthService{}
	handler := AuthLogout(svc, controllerJWTConfig, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.revokedJTI != "session-42" {
		t.Fatalf("expected session-42 revoked, got %q", svc.revokedJTI)
	}
}

func TestAuthLogoutRequiresBearerToken(t *testing.T) {
	handler := AuthLogout(&stubAuthService{}, controllerJWTConfig, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRefreshForwardsTokenPair(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthRefresh(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"access_token":"old-access","refresh_token":"old-refresh"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.refreshed == nil || svc.refreshed.AccessToken != "old-access" || svc.refreshed.RefreshToken != "old-refresh" {
		t.Fatalf("token pair not forwarded: %+v", svc.refreshed)
	}
}

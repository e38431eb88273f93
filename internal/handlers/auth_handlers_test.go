package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cryptic/delivery-user-service/internal/domain"
	"github.com/cryptic/delivery-user-service/pkg/auth"
)

// stubAuthService returns a canned response or error for every call.
type stubAuthService struct {
	resp *domain.AuthResponse
	err  error
}

func (s *stubAuthService) Register(context.Context, *domain.RegisterRequest) (*domain.AuthResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) Login(context.Context, *domain.LoginRequest) (*domain.AuthResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) Refresh(context.Context, string) (*domain.AuthResponse, error) {
	return s.resp, s.err
}

func newTestHandlers(authSvc *stubAuthService) *Handlers {
	tokens := auth.NewTokens("test-secret", 15*time.Minute, 24*time.Hour)
	return New(authSvc, nil, nil, tokens)
}

func doJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegisterStatusMapping(t *testing.T) {
	body := `{"name":"Alice","email":"alice@example.com","phone":"+15550001111","password":"supersecret"}`

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"created", nil, http.StatusCreated, ""},
		{"duplicate", domain.ErrDuplicateIdentity, http.StatusConflict, CodeDuplicateIdentity},
		{"validation", domain.ErrValidationFailed, http.StatusBadRequest, CodeValidationFailed},
		{"storage failure", errors.New("connection refused"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthService{err: tt.err}
			if tt.err == nil {
				stub.resp = &domain.AuthResponse{UserID: 1, AccessToken: "a", RefreshToken: "r"}
			}
			h := newTestHandlers(stub)

			rec := doJSON(t, h.Register, body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				var resp errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if resp.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestRegisterRejectsMalformedJSON(t *testing.T) {
	h := newTestHandlers(&stubAuthService{})

	rec := doJSON(t, h.Register, `{"name":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterStorageErrorIsOpaque(t *testing.T) {
	h := newTestHandlers(&stubAuthService{err: errors.New("pq: deadlock detected on relation users")})

	rec := doJSON(t, h.Register, `{"name":"A","email":"a@x.com","phone":"+15550001111","password":"supersecret"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "deadlock") {
		t.Error("storage error detail leaked to the client")
	}
}

func TestLoginStatusMapping(t *testing.T) {
	body := `{"email":"alice@example.com","password":"supersecret"}`

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"ok", nil, http.StatusOK},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"suspended", domain.ErrAccountNotUsable, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthService{err: tt.err}
			if tt.err == nil {
				stub.resp = &domain.AuthResponse{UserID: 1, AccessToken: "a", RefreshToken: "r"}
			}
			h := newTestHandlers(stub)

			rec := doJSON(t, h.Login, body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRefreshRequiresToken(t *testing.T) {
	h := newTestHandlers(&stubAuthService{})

	rec := doJSON(t, h.Refresh, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRefreshStatusMapping(t *testing.T) {
	body := `{"refresh_token":"some-token"}`

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"expired", domain.ErrTokenExpired, http.StatusUnauthorized, CodeTokenExpired},
		{"wrong kind", domain.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"user gone", domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthService{err: tt.err}
			if tt.err == nil {
				stub.resp = &domain.AuthResponse{UserID: 1, AccessToken: "a", RefreshToken: "r"}
			}
			h := newTestHandlers(stub)

			rec := doJSON(t, h.Refresh, body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				var resp errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if resp.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
				}
			}
		})
	}
}

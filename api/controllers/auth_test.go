package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgather/tripgather-backend/api/middleware"
	"github.com/tripgather/tripgather-backend/internal/auth"
	"github.com/tripgather/tripgather-backend/pkg/config"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
)

type stubRegisterService struct {
	user *auth.SessionUser
	err  error
	got  auth.SignUpRequest
}

func (s *stubRegisterService) SignUp(_ context.Context, req auth.SignUpRequest) (*auth.SessionUser, error) {
	s.got = req
	return s.user, s.err
}

type stubAuthService struct {
	resp      *auth.LoginResponse
	err       error
	loggedOut string
	refreshed string
}

func (s *stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) IssueSession(_ context.Context, user auth.SessionUser) (*auth.LoginResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &auth.LoginResponse{Tokens: s.resp.Tokens, User: user}, nil
}

func (s *stubAuthService) Refresh(_ context.Context, _, refresh string) (*auth.LoginResponse, error) {
	s.refreshed = refresh
	return s.resp, s.err
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

func testCookies() CookieSettings {
	return CookieSettings{
		Cookie: config.CookieConfig{Secure: true, SameSite: "lax"},
		JWT:    config.JWTConfig{Secret: "test-secret", Issuer: "tripgather-test", ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60},
	}
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthSignUpSetsCookies(t *testing.T) {
	userID := uuid.New()
	register := &stubRegisterService{user: &auth.SessionUser{UUID: userID, Email: "ana@example.com"}}
	svc := &stubAuthService{resp: &auth.LoginResponse{Tokens: auth.Tokens{AccessToken: "access", RefreshToken: "refresh"}}}
	handler := AuthSignUp(register, svc, testCookies(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{"email":"ana@example.com","password":"longenough"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ana@example.com", register.got.Email)

	access := cookieByName(rec, middleware.AccessTokenCookie)
	require.NotNil(t, access)
	assert.Equal(t, "access", access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	require.NotNil(t, cookieByName(rec, refreshTokenCookie))
	assert.NotContains(t, rec.Body.String(), `"access"`)

	var body authUserResponse
	decodeData(t, rec, &body)
	assert.True(t, body.Success)
	assert.Equal(t, userID, body.User.UUID)
}

func TestAuthSignUpValidation(t *testing.T) {
	handler := AuthSignUp(&stubRegisterService{}, &stubAuthService{}, testCookies(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{"email":"not-an-email","password":"x"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
	assert.Nil(t, cookieByName(rec, middleware.AccessTokenCookie))
}

func TestAuthSignUpDuplicateEmail(t *testing.T) {
	register := &stubRegisterService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	handler := AuthSignUp(register, &stubAuthService{}, testCookies(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(`{"email":"ana@example.com","password":"longenough"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeConflict), errorCode(t, rec))
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthLogin(svc, testCookies(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, cookieByName(rec, middleware.AccessTokenCookie))
}

func TestAuthLogoutClearsCookiesWithoutToken(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogout(svc, testCookies(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.loggedOut)
	access := cookieByName(rec, middleware.AccessTokenCookie)
	require.NotNil(t, access)
	assert.Less(t, access.MaxAge, 0)
}

func TestAuthRefreshReadsCookie(t *testing.T) {
	svc := &stubAuthService{resp: &auth.LoginResponse{Tokens: auth.Tokens{AccessToken: "a2", RefreshToken: "r2"}}}
	handler := AuthRefresh(svc, testCookies(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "r1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", svc.refreshed)
	assert.Equal(t, "r2", cookieByName(rec, refreshTokenCookie).Value)
}

func TestAuthRefreshUnauthorizedClearsCookies(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token invalid")}
	handler := AuthRefresh(svc, testCookies(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "stale"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	access := cookieByName(rec, middleware.AccessTokenCookie)
	require.NotNil(t, access)
	assert.Less(t, access.MaxAge, 0)
}

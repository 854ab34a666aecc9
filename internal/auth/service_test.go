package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgAuth "github.com/tripgather/tripgather-backend/pkg/auth"
	"github.com/tripgather/tripgather-backend/pkg/auth/session"
	"github.com/tripgather/tripgather-backend/pkg/config"
	"github.com/tripgather/tripgather-backend/pkg/db/models"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByUUID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range s.byEmail {
		if u.UUID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessions struct {
	sessions map[string]session.Session
	revoked  []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: map[string]session.Session{}}
}

func (s *stubSessions) Start(_ context.Context, userID uuid.UUID) (session.Session, error) {
	sess := session.Session{AccessID: uuid.NewString(), RefreshToken: uuid.NewString(), UserID: userID}
	s.sessions[sess.AccessID] = sess
	return sess, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (session.Session, error) {
	old, ok := s.sessions[oldAccessID]
	if !ok || old.RefreshToken != provided {
		return session.Session{}, session.ErrInvalidRefreshToken
	}
	delete(s.sessions, oldAccessID)
	return s.Start(ctx, old.UserID)
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.sessions, accessID)
	return nil
}

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "tripgather", ExpirationMinutes: 15}

func newLoginService(t *testing.T) (Service, *stubSessions, *models.User) {
	t.Helper()
	hash, err := security.HashPassword("password123", fastPasswordConfig())
	require.NoError(t, err)
	user := &models.User{UUID: uuid.New(), Email: "hana@trip.io", Password: hash}
	sessions := newStubSessions()
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}},
		SessionManager: sessions,
		JWTConfig:      testJWT,
	})
	require.NoError(t, err)
	return svc, sessions, user
}

func TestLoginIssuesTokens(t *testing.T) {
	svc, sessions, user := newLoginService(t)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "HANA@trip.io", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.UUID, resp.User.UUID)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.UUID, claims.UserID)
	assert.Contains(t, sessions.sessions, claims.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newLoginService(t)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "hana@trip.io", Password: "nope"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ghost@trip.io", Password: "password123"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, sessions, user := newLoginService(t)
	first, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "password123"})
	require.NoError(t, err)

	second, err := svc.Refresh(context.Background(), first.AccessToken, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Len(t, sessions.sessions, 1)

	_, err = svc.Refresh(context.Background(), first.AccessToken, first.RefreshToken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	hash, err := security.HashPassword("password123", fastPasswordConfig())
	require.NoError(t, err)
	user := &models.User{UUID: uuid.New(), Email: "old@trip.io", Password: hash}
	sessions := newStubSessions()
	past := time.Now().Add(-time.Hour)
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}},
		SessionManager: sessions,
		JWTConfig:      testJWT,
		Now:            func() time.Time { return past },
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "password123"})
	require.NoError(t, err)
	_, err = pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.Error(t, err, "token minted an hour ago must be expired")

	_, err = svc.Refresh(context.Background(), resp.AccessToken, resp.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutRevokes(t *testing.T) {
	svc, sessions, _ := newLoginService(t)
	require.NoError(t, svc.Logout(context.Background(), "access-1"))
	require.NoError(t, svc.Logout(context.Background(), ""))
	assert.Equal(t, []string{"access-1"}, sessions.revoked)
}

func TestIssueSessionAfterSignUp(t *testing.T) {
	svc, _, _ := newLoginService(t)
	id := uuid.New()
	resp, err := svc.IssueSession(context.Background(), SessionUser{UUID: id, Email: "new@trip.io"})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "new@trip.io", claims.Email)
}

package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/synergy-ops/synergy-ops/internal/auth"
	"github.com/synergy-ops/synergy-ops/internal/shared"
	_ "github.com/synergy-ops/synergy-ops/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func newAuthHandler(t *testing.T, repo auth.RepositoryPort) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	return auth.NewHandler(nil, auth.NewService(repo), sessionManager), sessionManager
}

func withSession(t *testing.T, sm *shared.SessionManager, req *http.Request) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func testUser(t *testing.T) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           1,
		Email:        "poster@synergy.local",
		DisplayName:  "Poster One",
		PasswordHash: string(hashed),
		Role:         shared.RolePoster,
		IsActive:     true,
	}
}

func TestLoginSetsSessionUser(t *testing.T) {
	handler, sm := newAuthHandler(t, &stubRepo{user: testUser(t)})

	body := strings.NewReader(`{"email":"poster@synergy.local","password":"correctpass"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	req, sess := withSession(t, sm, req)

	res := httptest.NewRecorder()
	handler.LoginForTest(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"role":"poster"`)
	require.Equal(t, "1", sess.User())
	require.Equal(t, shared.RolePoster, sess.Role())
}

func TestLoginWrongPassword(t *testing.T) {
	handler, sm := newAuthHandler(t, &stubRepo{user: testUser(t)})

	body := strings.NewReader(`{"email":"poster@synergy.local","password":"wrongpass"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	req, sess := withSession(t, sm, req)

	res := httptest.NewRecorder()
	handler.LoginForTest(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Empty(t, sess.User())
}

func TestLoginInactiveAccount(t *testing.T) {
	user := testUser(t)
	user.IsActive = false
	handler, sm := newAuthHandler(t, &stubRepo{user: user})

	body := strings.NewReader(`{"email":"poster@synergy.local","password":"correctpass"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	req, _ = withSession(t, sm, req)

	res := httptest.NewRecorder()
	handler.LoginForTest(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMeRequiresSession(t *testing.T) {
	handler, sm := newAuthHandler(t, &stubRepo{user: testUser(t)})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req, sess := withSession(t, sm, req)

	res := httptest.NewRecorder()
	handler.MeForTest(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)

	sess.SetUser("1", shared.RoleManager)
	res = httptest.NewRecorder()
	handler.MeForTest(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"role":"manager"`)
}

package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/internal/users"
	pkgAuth "github.com/dfcarvalho/radiostock-backend/pkg/auth"
	"github.com/dfcarvalho/radiostock-backend/pkg/config"
	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
	"github.com/dfcarvalho/radiostock-backend/pkg/security"
)

var (
	testJWT = config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "radiostock-test",
		ExpirationMinutes: 60,
	}
	testPasswords = config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
)

type stubSessions struct {
	registered []string
	revoked    []string
}

func (s *stubSessions) Register(_ context.Context, sessionID string) error {
	s.registered = append(s.registered, sessionID)
	return nil
}

func (s *stubSessions) Revoke(_ context.Context, sessionID string) error {
	s.revoked = append(s.revoked, sessionID)
	return nil
}

type testEnv struct {
	db       *gorm.DB
	svc      Service
	repo     *users.Repository
	sessions *stubSessions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	repo := users.NewRepository(db)
	sessions := &stubSessions{}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWT,
	})
	require.NoError(t, err)
	return &testEnv{db: db, svc: svc, repo: repo, sessions: sessions}
}

func (e *testEnv) seedUser(t *testing.T, email, password string) {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswords)
	require.NoError(t, err)
	_, err = e.repo.Create(context.Background(), users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Operador",
		Permissions:  []string{string(enums.PermissionOutbound)},
	})
	require.NoError(t, err)
}

func TestLoginIssuesTokenAndSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedUser(t, "op@dfradiocom.com.br", "senha-forte")

	resp, err := env.svc.Login(context.Background(), LoginRequest{
		Email:    "OP@dfradiocom.com.br",
		Password: "senha-forte",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "op@dfradiocom.com.br", resp.User.Email)
	require.Len(t, env.sessions.registered, 1)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, env.sessions.registered[0], claims.ID)
	assert.Contains(t, claims.Permissions, string(enums.PermissionOutbound))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedUser(t, "op@dfradiocom.com.br", "senha-forte")

	var appErr *pkgerrors.Error

	_, err := env.svc.Login(context.Background(), LoginRequest{Email: "op@dfradiocom.com.br", Password: "errada"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
	assert.Equal(t, invalidCredentialsMessage, appErr.Message())

	_, err = env.svc.Login(context.Background(), LoginRequest{Email: "naoexiste@dfradiocom.com.br", Password: "senha-forte"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedUser(t, "op@dfradiocom.com.br", "senha-forte")
	require.NoError(t, env.db.Model(&models.User{}).
		Where("email = ?", "op@dfradiocom.com.br").
		Update("active", false).Error)

	var appErr *pkgerrors.Error
	_, err := env.svc.Login(context.Background(), LoginRequest{Email: "op@dfradiocom.com.br", Password: "senha-forte"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	require.NoError(t, env.svc.Logout(context.Background(), "session-123"))
	require.Len(t, env.sessions.revoked, 1)
	assert.Equal(t, "session-123", env.sessions.revoked[0])

	var appErr *pkgerrors.Error
	err := env.svc.Logout(context.Background(), "  ")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestEnsureAdminSeedsOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	bootstrap := config.BootstrapConfig{
		AdminEmail:    "Admin@dfradiocom.com.br",
		AdminPassword: "senha-admin",
		AdminName:     "Administrador",
	}

	created, err := users.EnsureAdmin(context.Background(), env.repo, bootstrap, testPasswords)
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := env.repo.FindByEmail(context.Background(), "admin@dfradiocom.com.br")
	require.NoError(t, err)
	assert.Contains(t, admin.Permissions, string(enums.PermissionAdmin))

	// Second run is a no-op on a populated table.
	created, err = users.EnsureAdmin(context.Background(), env.repo, bootstrap, testPasswords)
	require.NoError(t, err)
	assert.False(t, created)

	resp, err := env.svc.Login(context.Background(), LoginRequest{
		Email:    "admin@dfradiocom.com.br",
		Password: "senha-admin",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.User.Permissions, string(enums.PermissionAdmin))
}

package auth

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictorRomo99/veterinaria-pro/internal/email"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	pkgauth "github.com/VictorRomo99/veterinaria-pro/pkg/auth"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) GetByDNI(_ context.Context, dni string) (*model.User, error) {
	for _, user := range r.users {
		if user.DNI == dni {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) UpdateLoginAttempts(_ context.Context, id uuid.UUID, attempts int, lastAttempt time.Time) error {
	if user, ok := r.users[id]; ok {
		user.LoginAttempts = attempts
		user.LastLoginAttempt = lastAttempt
	}
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if user, ok := r.users[id]; ok {
		user.LastLoginAt = &at
		user.LoginAttempts = 0
	}
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, _ *model.UserRole, _ model.Pagination) ([]*model.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, _ model.UserRole) ([]*model.User, error) {
	return nil, nil
}

// plainHasher skips bcrypt so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Compare(hashedPassword, password string) error {
	if hashedPassword != "plain:"+password {
		return fmt.Errorf("password mismatch")
	}
	return nil
}

type authFixture struct {
	svc   *Service
	users *fakeUserRepo
	now   time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := newFakeUserRepo()
	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})

	f := &authFixture{
		users: users,
		now:   time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(users, jwtSvc, email.NopService{}, zerolog.Nop()).
		WithHasher(plainHasher{})
	f.svc.WithClock(func() time.Time { return f.now })
	return f
}

func registerRequest() *model.RegisterRequest {
	return &model.RegisterRequest{
		FirstName:        "Lucía",
		LastName:         "Paredes",
		DNI:              "45678912",
		Email:            "lucia@example.com",
		Password:         "secreto123",
		BirthDate:        "1992-04-15",
		DataConsent:      true,
		AcceptedPolicies: true,
	}
}

func TestRegisterIssuesTokens(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.Equal(t, model.UserRoleClient, resp.User.Role)
	assert.Equal(t, model.UserStatusActive, resp.User.Status)
}

func TestRegisterRequiresConsent(t *testing.T) {
	f := newAuthFixture(t)

	req := registerRequest()
	req.DataConsent = false
	_, err := f.svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	dup := registerRequest()
	dup.DNI = "11122233"
	_, err = f.svc.Register(context.Background(), dup)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConflict))

	dup = registerRequest()
	dup.Email = "otra@example.com"
	_, err = f.svc.Register(context.Background(), dup)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConflict))
}

func TestLoginSuccessResetsAttempts(t *testing.T) {
	f := newAuthFixture(t)
	resp, err := f.svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "lucia@example.com", Password: "equivocada1",
	})
	require.Error(t, err)

	_, err = f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "lucia@example.com", Password: "secreto123",
	})
	require.NoError(t, err)

	user, err := f.users.Get(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, user.LoginAttempts)
	require.NotNil(t, user.LastLoginAt)
}

func TestLoginLocksAfterFiveFailures(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(context.Background(), &model.LoginRequest{
			Email: "lucia@example.com", Password: "equivocada1",
		})
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindUnauthorized))
	}

	// Even the right password is rejected while the lockout holds.
	_, err = f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "lucia@example.com", Password: "secreto123",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnauthorized))
}

func TestLoginLockoutExpires(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _ = f.svc.Login(context.Background(), &model.LoginRequest{
			Email: "lucia@example.com", Password: "equivocada1",
		})
	}

	f.now = f.now.Add(16 * time.Minute)

	_, err = f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "lucia@example.com", Password: "secreto123",
	})
	require.NoError(t, err)
}

func TestLoginFailureAfterWindowResetsCounter(t *testing.T) {
	f := newAuthFixture(t)
	resp, err := f.svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, _ = f.svc.Login(context.Background(), &model.LoginRequest{
			Email: "lucia@example.com", Password: "equivocada1",
		})
	}

	f.now = f.now.Add(16 * time.Minute)

	_, err = f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "lucia@example.com", Password: "equivocada1",
	})
	require.Error(t, err)

	user, err := f.users.Get(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, user.LoginAttempts)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	f := newAuthFixture(t)
	resp, err := f.svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	user, err := f.users.Get(context.Background(), resp.User.ID)
	require.NoError(t, err)
	user.Status = model.UserStatusInactive
	require.NoError(t, f.users.Update(context.Background(), user))

	_, err = f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "lucia@example.com", Password: "secreto123",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindForbidden))
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "nadie@example.com", Password: "loquesea1",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnauthorized))
}

func TestRefreshExchangesTokenPair(t *testing.T) {
	f := newAuthFixture(t)
	resp, err := f.svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	renewed, err := f.svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, renewed.AccessToken)
	assert.Equal(t, resp.User.ID, renewed.User.ID)

	_, err = f.svc.Refresh(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnauthorized))
}

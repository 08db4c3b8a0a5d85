package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/pkg/jwt"
	"bookingcrm/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = "65f1a2b3c4d5e6f708192a3b"
	}
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func storedUser(t *testing.T) *domain.User {
	return &domain.User{ID: "u1", Name: "Asha", Email: "asha@example.com", PasswordHash: hashed(t, "secret-pass"), Role: domain.RoleSrDev}
}

func TestLogin_Success(t *testing.T) {
	repo := new(mockUserRepo)
	jwtService := jwt.New("test-secret", time.Hour)
	svc := NewService(repo, jwtService)

	repo.On("GetByEmail", mock.Anything, "asha@example.com").Return(storedUser(t), nil)

	res, err := svc.Login(context.Background(), LoginRequest{Email: " Asha@Example.com ", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Empty(t, res.User.PasswordHash)

	claims, err := jwtService.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "srdev", claims.Role)
	assert.Equal(t, "Asha", claims.Name)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, jwt.New("test-secret", time.Hour))

	repo.On("GetByEmail", mock.Anything, "asha@example.com").Return(storedUser(t), nil)
	repo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrNotFound)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, jwt.New("test-secret", time.Hour))
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	repo.On("GetByEmail", mock.Anything, "asha@example.com").Return(storedUser(t), nil)

	for i := 0; i < maxFailedLoginAttempts; i++ {
		_, err := svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrAccountLocked)

	now = now.Add(lockoutDuration + time.Second)
	_, err = svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "secret-pass"})
	assert.NoError(t, err)
}

func TestLogin_FailureTrackingIsBounded(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, jwt.New("test-secret", time.Hour))
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	repo.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)

	for i := 0; i < maxFailedLoginAttempts; i++ {
		_, _ = svc.Login(ctx, LoginRequest{Email: "locked@example.com", Password: "wrong"})
	}
	for i := 0; i < attemptsSweepSize; i++ {
		_, err := svc.Login(ctx, LoginRequest{Email: fmt.Sprintf("ghost%d@example.com", i), Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	assert.Len(t, svc.attempts, attemptsSweepSize+1)

	now = now.Add(lockoutDuration - time.Minute)
	_, err := svc.Login(ctx, LoginRequest{Email: "fresh@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Len(t, svc.attempts, attemptsSweepSize+2)

	_, err = svc.Login(ctx, LoginRequest{Email: "locked@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrAccountLocked)

	now = now.Add(2 * time.Minute)
	_, err = svc.Login(ctx, LoginRequest{Email: "late@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Len(t, svc.attempts, 2)
	assert.Contains(t, svc.attempts, "fresh@example.com")
	assert.NotContains(t, svc.attempts, "locked@example.com")
}

func TestRegister(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, jwt.New("test-secret", time.Hour))
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool { return u.Email == "ravi@example.com" })).Return(nil).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool { return u.Email == "dup@example.com" })).Return(repository.ErrDuplicate).Once()

	u, err := svc.Register(ctx, RegisterRequest{Name: "Ravi", Email: "Ravi@Example.com", Password: "long-enough", Role: "bdm"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleBDM, u.Role)
	assert.Empty(t, u.PasswordHash)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Dup", Email: "dup@example.com", Password: "long-enough", Role: "bdm"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	_, err = svc.Register(ctx, RegisterRequest{Name: "X", Email: "x@example.com", Password: "long-enough", Role: "owner"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.Register(ctx, RegisterRequest{Name: "X", Email: "x@example.com", Password: "short", Role: "bdm"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHandler_Login(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, "asha@example.com").Return(storedUser(t), nil)
	repo.On("GetByEmail", mock.Anything, "boom@example.com").Return(nil, errors.New("db down"))

	router := gin.New()
	NewHandler(NewService(repo, jwt.New("test-secret", time.Hour))).RegisterPublicRoutes(&router.RouterGroup)

	post := func(body any) *httptest.ResponseRecorder {
		b, _ := json.Marshal(body)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	w := post(map[string]string{"email": "asha@example.com", "password": "secret-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "u1", res.User["_id"])
	assert.Equal(t, "srdev", res.User["user_role"])
	assert.NotContains(t, w.Body.String(), "password")

	w = post(map[string]string{"email": "asha@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")

	w = post(map[string]string{"email": "boom@example.com", "password": "x"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

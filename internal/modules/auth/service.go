package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/pkg/validator"
	"bookingcrm/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxFailedLoginAttempts = 5
	lockoutDuration        = 15 * time.Minute

	// attempts is swept once it holds this many emails.
	attemptsSweepSize = 1024
)

var ErrAccountLocked = errors.New("too many failed login attempts")

type loginAttempts struct {
	failed      int
	lastFailure time.Time
	lockedUntil time.Time
}

// expired reports whether the entry no longer affects logins.
func (a *loginAttempts) expired(now time.Time) bool {
	return !now.Before(a.lockedUntil) && now.Sub(a.lastFailure) >= lockoutDuration
}

// Service issues sessions for CRM users.
type Service struct {
	users UserRepository
	jwt   tokenIssuer
	now   func() time.Time

	mu       sync.Mutex
	attempts map[string]*loginAttempts
}

func NewService(users UserRepository, jwt tokenIssuer) *Service {
	return &Service{
		users:    users,
		jwt:      jwt,
		now:      time.Now,
		attempts: map[string]*loginAttempts{},
	}
}

// Login checks the password and returns a signed token with the user record.
// Repeated failures lock the email out for a while.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, ErrValidation
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if s.locked(email) {
		return nil, ErrAccountLocked
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordFailure(email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailure(email)
		log.Printf("login_failed email=%s", email)
		return nil, ErrInvalidCredentials
	}
	s.clearFailures(email)

	token, err := s.jwt.GenerateToken(user.ID, string(user.Role), user.Name)
	if err != nil {
		return nil, err
	}

	out := *user
	out.PasswordHash = ""
	log.Printf("login_ok user_id=%s role=%s", user.ID, user.Role)
	return &LoginResponse{Token: token, User: &out}, nil
}

// Register creates a user with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, ErrValidation
	}
	role := domain.UserRole(strings.TrimSpace(req.Role))
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *Service) locked(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[email]
	return ok && s.now().Before(a.lockedUntil)
}

func (s *Service) recordFailure(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	a, ok := s.attempts[email]
	if ok && a.expired(now) {
		a.failed = 0
	}
	if !ok {
		if len(s.attempts) >= attemptsSweepSize {
			s.sweep(now)
		}
		a = &loginAttempts{}
		s.attempts[email] = a
	}
	a.failed++
	a.lastFailure = now
	if a.failed >= maxFailedLoginAttempts {
		a.failed = 0
		a.lockedUntil = now.Add(lockoutDuration)
		log.Printf("login_locked email=%s until=%s", email, a.lockedUntil.Format(time.RFC3339))
	}
}

// sweep drops expired entries. Callers hold mu.
func (s *Service) sweep(now time.Time) {
	for email, a := range s.attempts {
		if a.expired(now) {
			delete(s.attempts, email)
		}
	}
}

func (s *Service) clearFailures(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, email)
}

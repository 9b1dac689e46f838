package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ninglab/ning-backend/internal/apperror"
)

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, URL-safe base64 encoded to 43 characters.
const sessionTokenBytes = 32

// Username and password bounds enforced at registration.
const (
	usernameMinLen = 3
	usernameMaxLen = 40
	passwordMinLen = 6
	// bcrypt only uses the first 72 bytes of the password.
	passwordMaxLen = 72
)

// Service defines the business logic contract for identity and sessions.
// Handlers and the token middleware call these methods -- they never touch
// the repository directly.
type Service interface {
	Register(ctx context.Context, username, password string) (*User, error)
	Login(ctx context.Context, username, password string) (token string, err error)
	Resolve(ctx context.Context, token string) (*User, error)
	Logout(ctx context.Context, token string) error
}

// service implements Service with bcrypt hashing and store-backed sessions.
type service struct {
	repo       Repository
	sessionTTL time.Duration
}

// NewService creates a new auth service with the given dependencies.
func NewService(repo Repository, sessionTTL time.Duration) Service {
	return &service{repo: repo, sessionTTL: sessionTTL}
}

// Register creates a new user account. The username binding is created
// atomically via set-if-absent, so concurrent registrations with the same
// username race safely: at most one wins, the rest observe a conflict.
func (s *service) Register(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.NewBadRequest("username is required")
	}
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return nil, apperror.NewValidation(fmt.Sprintf("username must be %d-%d characters", usernameMinLen, usernameMaxLen))
	}
	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		return nil, apperror.NewValidation(fmt.Sprintf("password must be %d-%d characters", passwordMinLen, passwordMaxLen))
	}

	// Allocate the id before attempting the binding. If the username turns
	// out to be taken, the id is not reclaimed -- a small id-space leak.
	id, err := s.repo.NextUserID(ctx)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	ok, err := s.repo.BindUsername(ctx, username, id)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}
	if !ok {
		return nil, apperror.NewConflict("username already exists")
	}

	user := &User{
		ID:           strconv.FormatInt(id, 10),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    nowISO(),
	}
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, apperror.WrapStore(err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login authenticates a user by username and password. On success it issues
// an opaque token with the configured TTL and records it in the user's
// active-token set. An unknown username and a wrong password produce the
// same error -- external callers can't tell them apart.
func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)

	uid, err := s.repo.FindUserIDByName(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", apperror.NewUnauthorized("invalid credentials")
		}
		return "", apperror.WrapStore(err)
	}

	user, err := s.repo.FindUserByID(ctx, uid)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", apperror.NewUnauthorized("invalid credentials")
		}
		return "", apperror.WrapStore(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", apperror.NewUnauthorized("invalid credentials")
	}

	token, err := generateToken()
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("generating session token: %w", err))
	}
	if err := s.repo.CreateSession(ctx, token, user.ID, s.sessionTTL); err != nil {
		return "", apperror.WrapStore(err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return token, nil
}

// Resolve looks up a bearer token and returns the full user record. A token
// that is unknown, expired, or points at a missing user record fails closed
// with the same Unauthorized error.
func (s *service) Resolve(ctx context.Context, token string) (*User, error) {
	uid, err := s.repo.FindSessionUID(ctx, token)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid or expired token")
		}
		return nil, apperror.WrapStore(err)
	}

	user, err := s.repo.FindUserByID(ctx, uid)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid or expired token")
		}
		return nil, apperror.WrapStore(err)
	}

	return user, nil
}

// Logout destroys the session bound to the token. Logging out an unknown or
// already-expired token is a silent success, so the operation is idempotent.
func (s *service) Logout(ctx context.Context, token string) error {
	uid, err := s.repo.FindSessionUID(ctx, token)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return apperror.WrapStore(err)
	}

	if err := s.repo.DeleteSession(ctx, token, uid); err != nil {
		return apperror.WrapStore(err)
	}
	return nil
}

// generateToken creates a cryptographically random URL-safe token.
func generateToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

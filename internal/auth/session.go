package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/your-org/facegate/internal/crypto"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/observability"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenInvalid       = errors.New("invalid or expired token")
)

// UserSource is the slice of the identity repository the session authority
// needs. VerifyToken re-fetches the live user so role checks reflect
// current state, not the claims cached in the token.
type UserSource interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Sessions struct {
	users    UserSource
	vault    *crypto.Vault
	secret   []byte
	tokenTTL time.Duration
}

func NewSessions(users UserSource, vault *crypto.Vault, secret string, tokenTTL time.Duration) *Sessions {
	return &Sessions{
		users:    users,
		vault:    vault,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Authenticate checks username and password against the repository.
// It fails closed: an absent user, a deactivated user and a password
// mismatch all return ErrInvalidCredentials.
func (s *Sessions) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if user == nil || !user.IsActive {
		observability.AuthFailures.Inc()
		slog.Info("authentication failed", "username", username, "reason", "unknown or inactive user")
		return nil, ErrInvalidCredentials
	}

	ok, err := s.vault.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		// Corrupt hash is a data-integrity failure, not a bad login.
		return nil, fmt.Errorf("verify password for %q: %w", username, err)
	}
	if !ok {
		observability.AuthFailures.Inc()
		slog.Info("authentication failed", "username", username, "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	slog.Info("authentication succeeded", "username", username, "role", user.Role)
	return user, nil
}

// IssueToken signs an HS256 token with subject, role and an absolute
// expiry. Tokens are stateless; there is no server-side revocation list.
func (s *Sessions) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.Username,
		"uid":  user.ID.String(),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates the signature and expiry, then resolves the
// subject to a live user record. A user deleted or deactivated after
// issuance fails closed.
func (s *Sessions) VerifyToken(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	username, _ := claims["sub"].(string)
	if username == "" {
		return nil, ErrTokenInvalid
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("look up token subject: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrTokenInvalid
	}
	return user, nil
}

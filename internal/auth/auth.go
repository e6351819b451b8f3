// Package auth extracts caller credentials from request headers and checks
// them against the user store.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
)

const (
	HeaderUID           = "rs-uid"
	HeaderEmail         = "rs-email"
	HeaderAuthorization = "Authorization"
)

var (
	ErrMissingHeaders = errors.New("missing identity headers")
	ErrMalformedToken = errors.New("malformed bearer token")
	ErrUserNotFound   = errors.New("user was not found")
)

var bearerPattern = regexp.MustCompile(`^Bearer\s+(\S+)$`)

type Credentials struct {
	UID   string
	Email string
	Token string
}

// ParseCredentials reads the identity headers. It only checks their shape.
func ParseCredentials(h http.Header) (Credentials, error) {
	uid := h.Get(HeaderUID)
	email := h.Get(HeaderEmail)
	raw := h.Get(HeaderAuthorization)

	if uid == "" || email == "" || raw == "" {
		return Credentials{}, ErrMissingHeaders
	}

	m := bearerPattern.FindStringSubmatch(raw)
	if m == nil {
		return Credentials{}, ErrMalformedToken
	}

	return Credentials{UID: uid, Email: email, Token: m[1]}, nil
}

// Verifier decides whether parsed credentials belong to a live session and
// returns what is known about the caller.
type Verifier interface {
	Verify(ctx context.Context, creds Credentials) (database.User, error)
}

// HeaderVerifier trusts well-formed headers without a store round trip.
type HeaderVerifier struct{}

func (HeaderVerifier) Verify(_ context.Context, creds Credentials) (database.User, error) {
	return database.User{UID: creds.UID, Email: creds.Email, Token: creds.Token}, nil
}

type UserQuerier interface {
	QueryUsers(ctx context.Context, query database.UserQuery) ([]database.User, error)
}

// StoreVerifier requires exactly one stored user whose email, uid and token
// all match.
type StoreVerifier struct {
	users UserQuerier
}

func NewStoreVerifier(users UserQuerier) *StoreVerifier {
	return &StoreVerifier{users: users}
}

func (v *StoreVerifier) Verify(ctx context.Context, creds Credentials) (database.User, error) {
	users, err := v.users.QueryUsers(ctx, database.UserQuery{
		Email: creds.Email,
		UID:   creds.UID,
		Token: creds.Token,
	})
	if err != nil {
		return database.User{}, fmt.Errorf("query users: %w", err)
	}

	if len(users) != 1 {
		return database.User{}, ErrUserNotFound
	}

	return users[0], nil
}

// HashPassword returns the lowercase hex SHA-256 digest stored for a user.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func CheckPassword(hash, password string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(HashPassword(password))) == 1
}

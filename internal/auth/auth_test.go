package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseCredentials(t *testing.T) {
	tcases := []struct {
		name        string
		headers     map[string]string
		expected    Credentials
		expectedErr error
	}{
		{
			name: "valid headers",
			headers: map[string]string{
				"rs-uid":        "uid1",
				"RS-EMAIL":      "a@example.com",
				"authorization": "Bearer tok",
			},
			expected: Credentials{UID: "uid1", Email: "a@example.com", Token: "tok"},
		},
		{
			name: "extra whitespace after scheme",
			headers: map[string]string{
				"rs-uid":        "uid1",
				"rs-email":      "a@example.com",
				"Authorization": "Bearer \t tok",
			},
			expected: Credentials{UID: "uid1", Email: "a@example.com", Token: "tok"},
		},
		{
			name: "missing email",
			headers: map[string]string{
				"rs-uid":        "uid1",
				"Authorization": "Bearer tok",
			},
			expectedErr: ErrMissingHeaders,
		},
		{
			name: "wrong scheme",
			headers: map[string]string{
				"rs-uid":        "uid1",
				"rs-email":      "a@example.com",
				"Authorization": "Basic tok",
			},
			expectedErr: ErrMalformedToken,
		},
		{
			name: "token with spaces",
			headers: map[string]string{
				"rs-uid":        "uid1",
				"rs-email":      "a@example.com",
				"Authorization": "Bearer tok en",
			},
			expectedErr: ErrMalformedToken,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tc.headers {
				h.Set(k, v)
			}

			creds, err := ParseCredentials(h)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, creds)
		})
	}
}

func TestStoreVerifier(t *testing.T) {
	creds := Credentials{UID: "uid1", Email: "a@example.com", Token: "tok"}
	query := database.UserQuery{Email: "a@example.com", UID: "uid1", Token: "tok"}
	storeErr := errors.New("store down")

	tcases := []struct {
		name        string
		users       []database.User
		mockErr     error
		expectedErr error
	}{
		{
			name:  "exactly one match",
			users: []database.User{{Email: "a@example.com", UID: "uid1", Name: "Ann"}},
		},
		{
			name:        "no match",
			users:       nil,
			expectedErr: ErrUserNotFound,
		},
		{
			name:        "store failure",
			mockErr:     storeErr,
			expectedErr: storeErr,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &database.MockRepository{}
			defer repo.AssertExpectations(t)
			repo.On("QueryUsers", mock.Anything, query).Return(tc.users, tc.mockErr).Once()

			user, err := NewStoreVerifier(repo).Verify(context.Background(), creds)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ann", user.Name)
		})
	}
}

func TestHeaderVerifier(t *testing.T) {
	user, err := HeaderVerifier{}.Verify(context.Background(), Credentials{UID: "uid1", Email: "a@example.com", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "uid1", user.UID)
	assert.Equal(t, "a@example.com", user.Email)
}

func TestHashPassword(t *testing.T) {
	hash := HashPassword("password")
	assert.Equal(t, "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", hash)
	assert.True(t, CheckPassword(hash, "password"))
	assert.False(t, CheckPassword(hash, "Password"))
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "a_long_enough_secret_for_tests_2026"

func TestGenerateAndValidate(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager(testSecret, "fitstake", time.Hour)

	token, err := manager.Generate("u1")
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := manager.Validate(token)
	req.NoError(err)
	req.Equal("u1", claims.UserID)
	req.Equal("fitstake", claims.Issuer)
}

func TestValidate_WrongSecret(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager(testSecret, "fitstake", time.Hour)
	other := NewTokenManager("another_secret_entirely_0000000000", "fitstake", time.Hour)

	token, err := manager.Generate("u1")
	req.NoError(err)

	_, err = other.Validate(token)
	req.Error(err)
}

func TestValidate_ExpiredToken(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager(testSecret, "fitstake", -time.Minute)

	token, err := manager.Generate("u1")
	req.NoError(err)

	_, err = manager.Validate(token)
	req.Error(err)
}

func TestMiddleware_InjectsUserID(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager(testSecret, "fitstake", time.Hour)
	token, err := manager.Generate("u1")
	req.NoError(err)

	var seen string
	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		status  int
		userID  string
	}{
		{
			name:    "Bearer header",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			status:  http.StatusOK,
			userID:  "u1",
		},
		{
			name:    "Query parameter fallback",
			prepare: func(r *http.Request) { r.URL.RawQuery = "token=" + token },
			status:  http.StatusOK,
			userID:  "u1",
		},
		{
			name:    "Missing token",
			prepare: func(r *http.Request) {},
			status:  http.StatusUnauthorized,
		},
		{
			name:    "Garbage token",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") },
			status:  http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			r := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
			tt.prepare(r)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			require.Equal(t, tt.status, w.Code)
			require.Equal(t, tt.userID, seen)
		})
	}
}

package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/auth"
	storefrontHttp "github.com/vasiliy-maslov/storefront/internal/handler/http"
)

func adminProfile(id uuid.UUID, isAdmin bool) *auth.User {
	return &auth.User{ID: id, Email: "caller@example.com", FullName: "Caller", IsAdmin: isAdmin}
}

func testSession(email string) *auth.Session {
	return &auth.Session{
		User:      &auth.User{ID: uuid.Must(uuid.NewV4()), Email: email, FullName: "Ada Lovelace"},
		Token:     "signed.jwt.token",
		ExpiresAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestAuthHandler_SignUp(t *testing.T) {
	tests := []struct {
		name        string
		body        map[string]string
		mockSetup   func(m *MockAuthService)
		wantStatus  int
		wantMessage string
	}{
		{
			name: "created",
			body: map[string]string{"fullName": "Ada Lovelace", "email": "ada@example.com", "password": "s3cretpass"},
			mockSetup: func(m *MockAuthService) {
				m.On("SignUp", mock.Anything, "Ada Lovelace", "ada@example.com", "s3cretpass").
					Return(testSession("ada@example.com"), nil).Once()
			},
			wantStatus:  http.StatusCreated,
			wantMessage: "User created successfully",
		},
		{
			name: "duplicate_email",
			body: map[string]string{"fullName": "Ada Lovelace", "email": "ada@example.com", "password": "s3cretpass"},
			mockSetup: func(m *MockAuthService) {
				m.On("SignUp", mock.Anything, "Ada Lovelace", "ada@example.com", "s3cretpass").
					Return(nil, auth.ErrEmailExists).Once()
			},
			wantStatus:  http.StatusConflict,
			wantMessage: "User already exists with this email",
		},
		{
			name:        "short_password",
			body:        map[string]string{"fullName": "Ada Lovelace", "email": "ada@example.com", "password": "short"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Validation failed",
		},
		{
			name: "store_failure",
			body: map[string]string{"fullName": "Ada Lovelace", "email": "ada@example.com", "password": "s3cretpass"},
			mockSetup: func(m *MockAuthService) {
				m.On("SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, errors.New("connection refused")).Once()
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Error creating user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			if tt.mockSetup != nil {
				tt.mockSetup(ts.auth)
			}

			rr := doJSON(t, ts, http.MethodPost, "/api/auth/signup", "", tt.body)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())

			if tt.wantStatus == http.StatusCreated {
				var resp storefrontHttp.SessionResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantMessage, resp.Message)
				assert.Equal(t, "signed.jwt.token", resp.Token)
				assert.Equal(t, "ada@example.com", resp.User.Email)
				assert.NotContains(t, rr.Body.String(), "password")
			} else {
				assert.Equal(t, tt.wantMessage, decodeError(t, rr))
			}
			ts.auth.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_SignIn(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ts := newTestServer(t)
		ts.auth.On("SignIn", mock.Anything, "ada@example.com", "s3cretpass").
			Return(testSession("ada@example.com"), nil).Once()

		rr := doJSON(t, ts, http.MethodPost, "/api/auth/signin", "",
			map[string]string{"email": "ada@example.com", "password": "s3cretpass"})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp storefrontHttp.SessionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Sign in successful", resp.Message)
		ts.auth.AssertExpectations(t)
	})

	t.Run("bad_credentials", func(t *testing.T) {
		ts := newTestServer(t)
		ts.auth.On("SignIn", mock.Anything, "ada@example.com", "wrong").
			Return(nil, auth.ErrInvalidCredentials).Once()

		rr := doJSON(t, ts, http.MethodPost, "/api/auth/signin", "",
			map[string]string{"email": "ada@example.com", "password": "wrong"})
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid email or password", decodeError(t, rr))
		ts.auth.AssertExpectations(t)
	})
}

func TestAuthHandler_ProfileAndVerify(t *testing.T) {
	ts := newTestServer(t)
	userID := uuid.Must(uuid.NewV4())
	ts.auth.On("Profile", mock.Anything, userID).Return(adminProfile(userID, false), nil).Once()

	rr := doJSON(t, ts, http.MethodGet, "/api/auth/profile", ts.bearer(t, userID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var u auth.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &u))
	assert.Equal(t, userID, u.ID)

	rr = doJSON(t, ts, http.MethodGet, "/api/auth/verify", ts.bearer(t, userID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var v storefrontHttp.VerifyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.True(t, v.Valid)
	assert.Equal(t, userID, v.UserID)
	assert.Equal(t, "caller@example.com", v.Email)

	rr = doJSON(t, ts, http.MethodGet, "/api/auth/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	ts.auth.AssertExpectations(t)
}

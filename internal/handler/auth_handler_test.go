package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digithesis/internal/handler"
	"digithesis/internal/model"
)

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/register", "/api/users"} {
		t.Run(path, func(t *testing.T) {
			body := `{"username":"alice","email":"Alice@Example.com","password":"secret1"}`
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := s.do(req)

			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			var resp struct {
				AccessToken string     `json:"access_token"`
				User        model.User `json:"user"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, model.RoleStudent, resp.User.Role)
			assert.Equal(t, "alice@example.com", resp.User.Email)
			assert.NotContains(t, rec.Body.String(), "password")

			claims, err := s.jwt.Verify(resp.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, resp.User.ID.String(), claims.UserID)
		})
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"username":"al","email":"nope","password":"123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := s.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Contains(t, body.Fields, "username")
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")
}

func TestMe_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", decodeError(t, rec).Code)
}

func TestAuthResponse_OmitsEmptyRefresh(t *testing.T) {
	payload, err := json.Marshal(handler.AuthResponse{AccessToken: "a"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"a"}`, string(payload))
}

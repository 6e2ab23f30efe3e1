package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kickylau/DOPE/internal/httperr"
)

func TestLoginWithUsernameAndEmail(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("abc", "a@b.com", "secret123")

	for _, credential := range []string{"abc", "a@b.com"} {
		rec, c := env.doJSONRequest(http.MethodPost, "/api/session", map[string]string{
			"credential": credential,
			"password":   "secret123",
		})
		require.NoError(t, env.Sessions.Login(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			User struct {
				ID       uint   `json:"id"`
				Username string `json:"username"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, user.ID, resp.User.ID)
		require.Equal(t, "abc", resp.User.Username)

		var hasToken bool
		for _, ck := range rec.Result().Cookies() {
			if ck.Name == "token" && ck.Value != "" {
				hasToken = true
			}
		}
		require.True(t, hasToken, "expected token cookie")
	}
}

// Unknown credential and wrong password must be indistinguishable.
func TestLoginFailureShape(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("abc", "a@b.com", "secret123")

	payloads := []map[string]string{
		{"credential": "nobody", "password": "secret123"},
		{"credential": "abc", "password": "wrong-password"},
	}

	var bodies []*httperr.Error
	for _, payload := range payloads {
		_, c := env.doJSONRequest(http.MethodPost, "/api/session", payload)
		err := env.Sessions.Login(c)
		he, ok := err.(*httperr.Error)
		require.True(t, ok, "expected httperr.Error")
		bodies = append(bodies, he)
	}

	require.Equal(t, bodies[0].Status, bodies[1].Status)
	require.Equal(t, http.StatusUnauthorized, bodies[0].Status)
	require.Equal(t, bodies[0].Title, bodies[1].Title)
	require.Equal(t, bodies[0].Errors, bodies[1].Errors)
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/session", map[string]string{})
	err := env.Sessions.Login(c)
	he, ok := err.(*httperr.Error)
	require.True(t, ok)
	require.Equal(t, http.StatusUnprocessableEntity, he.Status)
	require.Contains(t, he.Errors, "Please provide a valid email or username.")
	require.Contains(t, he.Errors, "Please provide a password.")
}

func TestRestoreSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("abc", "a@b.com", "secret123")

	// with a valid cookie
	rec, c := env.doJSONRequest(http.MethodGet, "/api/session", nil, env.sessionCookie(user))
	require.NoError(t, env.Sess.Restore(env.Sessions.Restore)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp, "user")

	// without a cookie the body is an empty object
	rec, c = env.doJSONRequest(http.MethodGet, "/api/session", nil)
	require.NoError(t, env.Sess.Restore(env.Sessions.Restore)(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{}`, rec.Body.String())
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/session", nil)
	require.NoError(t, env.Sessions.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "success", resp["message"])

	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "token" && ck.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared, "expected token cookie to be cleared")
}

package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kickylau/DOPE/internal/handlers"
	"github.com/kickylau/DOPE/internal/httperr"
	"github.com/kickylau/DOPE/internal/models"
	"github.com/kickylau/DOPE/internal/session"
)

func newTestApp(t *testing.T) *echo.Echo {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Cafe{}, &models.Review{}))

	sess := &session.Service{DB: db, Secret: []byte("test-secret")}

	e := echo.New()
	e.HTTPErrorHandler = httperr.Handler
	Register(e, &Deps{
		DB:             db,
		Session:        sess,
		UserHandler:    &handlers.UserHandler{DB: db, Session: sess},
		SessionHandler: &handlers.SessionHandler{DB: db, Session: sess},
		CafeHandler:    &handlers.CafeHandler{DB: db},
		ReviewHandler:  &handlers.ReviewHandler{DB: db},
		SearchHandler:  &handlers.SearchHandler{},
	})
	return e
}

func doJSON(e *echo.Echo, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// Signup, login, logout, then a miss on a cafe id: the full lifecycle with
// exact response bodies.
func TestSessionLifecycle(t *testing.T) {
	e := newTestApp(t)

	// signup
	rec := doJSON(e, http.MethodPost, "/api/users", map[string]string{
		"username": "abc",
		"email":    "a@b.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var signupResp struct {
		User map[string]interface{} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signupResp))
	require.Equal(t, "abc", signupResp.User["username"])
	require.Equal(t, "a@b.com", signupResp.User["email"])
	require.NotContains(t, rec.Body.String(), "hashedPassword")
	userID := signupResp.User["id"]

	// login with the username as credential
	rec = doJSON(e, http.MethodPost, "/api/session", map[string]string{
		"credential": "abc",
		"password":   "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp struct {
		User map[string]interface{} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	require.Equal(t, userID, loginResp.User["id"])

	var token *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "token" && ck.Value != "" {
			token = ck
		}
	}
	require.NotNil(t, token, "expected token cookie on login")

	// logout
	rec = doJSON(e, http.MethodDelete, "/api/session", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"success"}`, rec.Body.String())

	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "token" && ck.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared, "expected token cookie to be cleared")

	// fetching a cafe that does not exist
	rec = doJSON(e, http.MethodGet, "/api/cafes/999999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t,
		`{"title":"Cafe not found.","errors":["Cafe with id of 999999 could not be found."]}`,
		rec.Body.String())
}

func TestMutationsRequireSession(t *testing.T) {
	e := newTestApp(t)

	rec := doJSON(e, http.MethodPost, "/api/cafes/new", map[string]string{"title": "Blue Bottle"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"title":"Unauthorized","errors":["Unauthorized"]}`, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/api/reviews/new", map[string]interface{}{"businessId": 1, "answer": "hello"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/api/cafes/1", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListingEndpointsAreOpen(t *testing.T) {
	e := newTestApp(t)

	rec := doJSON(e, http.MethodGet, "/api/cafes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"cafe":[]}`, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/api/reviews/cafes/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"answers":[]}`, rec.Body.String())
}

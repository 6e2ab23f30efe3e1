package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestGetSetsCookieAndPasses(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Middleware(DefaultConfig())(okHandler)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var token string
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CookieName {
			token = ck.Value
			require.False(t, ck.HttpOnly, "client must be able to read the CSRF cookie")
		}
	}
	require.NotEmpty(t, token)
	require.Equal(t, token, rec.Header().Get(HeaderName))
}

func TestPostWithoutHeaderRejected(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "sometoken"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware(DefaultConfig())(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestPostWithMismatchedHeaderRejected(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "sometoken"})
	req.Header.Set(HeaderName, "othertoken")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware(DefaultConfig())(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestPostWithMatchingHeaderPasses(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "sometoken"})
	req.Header.Set(HeaderName, "sometoken")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Middleware(DefaultConfig())(okHandler)(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSameOriginEnforcement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnforceSameOrigin = true

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "http://example.com/", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "http://evil.test")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "sometoken"})
	req.Header.Set(HeaderName, "sometoken")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware(cfg)(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}

package handlers

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

	"github.com/kickylau/DOPE/internal/hash"
	"github.com/kickylau/DOPE/internal/models"
	"github.com/kickylau/DOPE/internal/session"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Cafe{}, &models.Review{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

type testEnv struct {
	T    *testing.T
	E    *echo.Echo
	DB   *gorm.DB
	Sess *session.Service

	Users    *UserHandler
	Sessions *SessionHandler
	Cafes    *CafeHandler
	Reviews  *ReviewHandler
}

func newTestEnv(t *testing.T) *testEnv {
	db := initTestDB(t)
	sess := &session.Service{DB: db, Secret: []byte("test-secret")}

	return &testEnv{
		T:        t,
		E:        echo.New(),
		DB:       db,
		Sess:     sess,
		Users:    &UserHandler{DB: db, Session: sess},
		Sessions: &SessionHandler{DB: db, Session: sess},
		Cafes:    &CafeHandler{DB: db},
		Reviews:  &ReviewHandler{DB: db},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// withSession runs a handler behind the real restore/require middleware.
func (env *testEnv) withSession(h echo.HandlerFunc) echo.HandlerFunc {
	return env.Sess.Restore(env.Sess.RequireSession(h))
}

func (env *testEnv) createUser(username, email, password string) *models.User {
	hashed, err := hash.HashPassword(password)
	require.NoError(env.T, err)
	user := &models.User{Username: username, Email: email, HashedPassword: hashed}
	require.NoError(env.T, env.DB.Create(user).Error)
	return user
}

func (env *testEnv) sessionCookie(user *models.User) *http.Cookie {
	token, err := env.Sess.Issue(user)
	require.NoError(env.T, err)
	return &http.Cookie{Name: session.CookieName, Value: token}
}

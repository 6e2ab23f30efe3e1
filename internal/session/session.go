// Package session issues and resolves the signed session cookie. A token is
// either valid or it is not: there is no refresh or rotation, an expired
// cookie forces a new login.
package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kickylau/DOPE/internal/httperr"
	"github.com/kickylau/DOPE/internal/models"
)

const (
	CookieName = "token"
	TTL        = 7 * 24 * time.Hour // 604,800 seconds
)

const userContextKey = "sessionUser"

type Claims struct {
	Data models.SessionUser `json:"data"`
	jwt.RegisteredClaims
}

type Service struct {
	DB     *gorm.DB
	Secret []byte
	// Secure marks the cookie Secure; set in production.
	Secure bool
}

// Issue signs a token carrying the sanitized user identity.
func (s *Service) Issue(u *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Data: u.Session(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

func (s *Service) SetCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Service) ClearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Resolve verifies the session cookie and re-loads the user it names. Any
// failure, from a missing cookie to a vanished user, clears the cookie and
// yields nil. It never returns an error to the caller.
func (s *Service) Resolve(c echo.Context) *models.User {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.Secret, nil
	})
	if err != nil || !token.Valid {
		s.ClearCookie(c)
		return nil
	}

	var user models.User
	if err := s.DB.First(&user, claims.Data.ID).Error; err != nil {
		s.ClearCookie(c)
		return nil
	}
	return &user
}

// Restore resolves the session, stashes the user (possibly nil) in the
// request context and always passes the request on.
func (s *Service) Restore(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if u := s.Resolve(c); u != nil {
			c.Set(userContextKey, u)
		}
		return next(c)
	}
}

// RequireSession rejects the request with a structured 401 when Restore
// found no session user.
func (s *Service) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			return httperr.Unauthorized()
		}
		return next(c)
	}
}

// CurrentUser returns the user stashed by Restore, or nil.
func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}

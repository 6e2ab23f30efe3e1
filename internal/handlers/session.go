package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kickylau/DOPE/internal/events"
	"github.com/kickylau/DOPE/internal/hash"
	"github.com/kickylau/DOPE/internal/httperr"
	"github.com/kickylau/DOPE/internal/models"
	"github.com/kickylau/DOPE/internal/session"
	"github.com/kickylau/DOPE/internal/validate"
)

type SessionHandler struct {
	DB       *gorm.DB
	Session  *session.Service
	Producer *events.Producer
}

type loginRequest struct {
	Credential string `json:"credential" validate:"required" errmsg:"Please provide a valid email or username."`
	Password   string `json:"password"   validate:"required" errmsg:"Please provide a password."`
}

// Login accepts a username or an email as the credential. The 401 body is
// identical for an unknown credential and a wrong password, and a dummy
// bcrypt comparison keeps the timing flat when no user matches.
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation([]string{"Invalid request body."})
	}
	if msgs := validate.Struct(&req); msgs != nil {
		return httperr.Validation(msgs)
	}

	var user models.User
	err := h.DB.Where("username = ? OR email = ?", req.Credential, req.Credential).First(&user).Error
	if err != nil {
		hash.CheckDummy(req.Password)
		return httperr.LoginFailed()
	}
	if !hash.CheckPassword(user.HashedPassword, req.Password) {
		return httperr.LoginFailed()
	}

	token, err := h.Session.Issue(&user)
	if err != nil {
		return err
	}
	h.Session.SetCookie(c, token)

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_logged_in",
		"userId":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{"user": user.Session()})
}

// Restore returns the current session user, or an empty object when the
// cookie is missing or stale.
func (h *SessionHandler) Restore(c echo.Context) error {
	user := session.CurrentUser(c)
	if user == nil {
		return c.JSON(http.StatusOK, echo.Map{})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user.Session()})
}

func (h *SessionHandler) Logout(c echo.Context) error {
	h.Session.ClearCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "success"})
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kickylau/DOPE/internal/events"
	"github.com/kickylau/DOPE/internal/hash"
	"github.com/kickylau/DOPE/internal/httperr"
	"github.com/kickylau/DOPE/internal/models"
	"github.com/kickylau/DOPE/internal/session"
	"github.com/kickylau/DOPE/internal/validate"
)

type UserHandler struct {
	DB       *gorm.DB
	Session  *session.Service
	Producer *events.Producer
}

type signupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,not_email" errmsg:"Please provide a username with at least 3 characters, not an email address."`
	Email    string `json:"email"    validate:"required,email,min=3,max=256"    errmsg:"Please provide a valid email."`
	Password string `json:"password" validate:"required,min=6"                  errmsg:"Please provide a password with at least 6 characters."`
}

// Signup creates the user, logs them in by setting the session cookie and
// returns the sanitized user. Duplicate username or email is a validation
// failure, not a server error.
func (h *UserHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation([]string{"Invalid request body."})
	}
	if msgs := validate.Struct(&req); msgs != nil {
		return httperr.Validation(msgs)
	}

	var count int64
	if err := h.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return httperr.Validation([]string{"User with that username already exists."})
	}
	if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return httperr.Validation([]string{"User with that email already exists."})
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashed,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return err
	}

	token, err := h.Session.Issue(&user)
	if err != nil {
		return err
	}
	h.Session.SetCookie(c, token)

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_registered",
		"userId":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{"user": user.Session()})
}

// publish sends a domain event, logging instead of failing the request when
// the broker is unreachable.
func publish(c echo.Context, p *events.Producer, topic, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

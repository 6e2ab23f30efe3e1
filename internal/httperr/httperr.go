// Package httperr defines the typed errors raised by handlers and the single
// error handler that shapes every failure response as {title, errors}.
package httperr

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kickylau/DOPE/internal/logging"
)

type Error struct {
	Status int      `json:"-"`
	Title  string   `json:"title"`
	Errors []string `json:"errors"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Title)
}

func Validation(msgs []string) *Error {
	return &Error{
		Status: http.StatusUnprocessableEntity,
		Title:  "Validation error",
		Errors: msgs,
	}
}

func NotFound(kind string, id uint) *Error {
	return &Error{
		Status: http.StatusNotFound,
		Title:  fmt.Sprintf("%s not found.", kind),
		Errors: []string{fmt.Sprintf("%s with id of %d could not be found.", kind, id)},
	}
}

func Unauthorized() *Error {
	return &Error{
		Status: http.StatusUnauthorized,
		Title:  "Unauthorized",
		Errors: []string{"Unauthorized"},
	}
}

// LoginFailed deliberately does not say whether the credential or the
// password was wrong.
func LoginFailed() *Error {
	return &Error{
		Status: http.StatusUnauthorized,
		Title:  "Login failed",
		Errors: []string{"The provided credentials were invalid."},
	}
}

// Handler is the centralized echo error handler. Typed errors keep their
// status and body; everything else becomes an opaque 500.
func Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var resp *Error
	switch e := err.(type) {
	case *Error:
		resp = e
	case *echo.HTTPError:
		resp = &Error{
			Status: e.Code,
			Title:  http.StatusText(e.Code),
			Errors: []string{fmt.Sprintf("%v", e.Message)},
		}
	default:
		logging.FromContext(c.Request().Context()).Error("unhandled error", "error", err)
		resp = &Error{
			Status: http.StatusInternalServerError,
			Title:  "Server error",
			Errors: []string{"An unexpected error occurred."},
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(resp.Status)
		return
	}
	_ = c.JSON(resp.Status, resp)
}

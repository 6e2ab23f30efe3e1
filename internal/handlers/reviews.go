package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kickylau/DOPE/internal/events"
	"github.com/kickylau/DOPE/internal/httperr"
	"github.com/kickylau/DOPE/internal/models"
	"github.com/kickylau/DOPE/internal/session"
	"github.com/kickylau/DOPE/internal/validate"
)

type ReviewHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

type reviewRequest struct {
	BusinessID uint   `json:"businessId" validate:"required"       errmsg:"Please provide the cafe being reviewed."`
	Answer     string `json:"answer"     validate:"required,min=5" errmsg:"Please provide the review with at least 5 characters."`
	UserID     uint   `json:"userId"`
}

// ListByCafe returns the reviews of one cafe, newest first.
func (h *ReviewHandler) ListByCafe(c echo.Context) error {
	businessID, err := strconv.ParseUint(c.Param("businessId"), 10, 32)
	if err != nil {
		return echo.ErrNotFound
	}

	reviews := make([]models.Review, 0)
	if err := h.DB.Where("business_id = ?", businessID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"answers": reviews})
}

// Create stores a review authored by the session user against an existing
// cafe. A missing cafe is a 404, not a validation failure.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation([]string{"Invalid request body."})
	}
	if msgs := validate.Struct(&req); msgs != nil {
		return httperr.Validation(msgs)
	}

	var cafe models.Cafe
	if err := h.DB.First(&cafe, req.BusinessID).Error; err != nil {
		return httperr.NotFound("Cafe", req.BusinessID)
	}

	user := session.CurrentUser(c)
	review := models.Review{
		UserID:     user.ID,
		BusinessID: cafe.ID,
		Answer:     req.Answer,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		return err
	}

	publish(c, h.Producer, events.TopicReviewEvents, fmt.Sprint(review.ID), map[string]any{
		"type":       "review_created",
		"reviewId":   review.ID,
		"businessId": review.BusinessID,
		"userId":     review.UserID,
	})

	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		return httperr.NotFound("Review", id)
	}
	return c.JSON(http.StatusOK, echo.Map{"answer": review})
}

// Delete removes a review. Author only.
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		return httperr.NotFound("Review", id)
	}

	user := session.CurrentUser(c)
	if review.UserID != user.ID {
		return httperr.Unauthorized()
	}

	if err := h.DB.Delete(&review).Error; err != nil {
		return err
	}

	publish(c, h.Producer, events.TopicReviewEvents, fmt.Sprint(review.ID), map[string]any{
		"type":     "review_deleted",
		"reviewId": review.ID,
	})

	return c.NoContent(http.StatusNoContent)
}

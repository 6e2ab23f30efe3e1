package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kickylau/DOPE/internal/es"
	"github.com/kickylau/DOPE/internal/events"
	"github.com/kickylau/DOPE/internal/httperr"
	"github.com/kickylau/DOPE/internal/logging"
	"github.com/kickylau/DOPE/internal/models"
	"github.com/kickylau/DOPE/internal/session"
	"github.com/kickylau/DOPE/internal/validate"
)

type CafeHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	Index    *es.CafeIndex
}

type cafeRequest struct {
	Title       string `json:"title"       validate:"required,min=4,max=80"  errmsg:"Please provide a title with at least 4 characters."`
	Description string `json:"description" validate:"required,min=10"        errmsg:"Please provide a description with at least 10 characters."`
	Img         string `json:"img"         validate:"required,lax_url"       errmsg:"Please provide an image URL."`
	Address     string `json:"address"     validate:"required,min=10"        errmsg:"Please provide an address with at least 10 characters."`
	City        string `json:"city"        validate:"required,min=4"         errmsg:"Please provide a city with at least 4 characters."`
	ZipCode     string `json:"zipCode"     validate:"required,numeric,len=5" errmsg:"Please provide a 5 digit zip code."`
	OwnerID     uint   `json:"ownerId"`
}

func paramID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.ErrNotFound
	}
	return uint(id), nil
}

// List returns every cafe, newest first. No pagination.
func (h *CafeHandler) List(c echo.Context) error {
	cafes := make([]models.Cafe, 0)
	if err := h.DB.Order("created_at DESC").Find(&cafes).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"cafe": cafes})
}

func (h *CafeHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var cafe models.Cafe
	if err := h.DB.First(&cafe, id).Error; err != nil {
		return httperr.NotFound("Cafe", id)
	}
	return c.JSON(http.StatusOK, echo.Map{"cafe": cafe})
}

// Create stores a new cafe owned by the session user. Any ownerId in the
// body is ignored.
func (h *CafeHandler) Create(c echo.Context) error {
	var req cafeRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation([]string{"Invalid request body."})
	}
	if msgs := validate.Struct(&req); msgs != nil {
		return httperr.Validation(msgs)
	}

	user := session.CurrentUser(c)
	cafe := models.Cafe{
		OwnerID:     user.ID,
		Title:       req.Title,
		Description: req.Description,
		Img:         req.Img,
		Address:     req.Address,
		City:        req.City,
		ZipCode:     req.ZipCode,
	}
	if err := h.DB.Create(&cafe).Error; err != nil {
		return err
	}

	h.reindex(c, &cafe)
	publish(c, h.Producer, events.TopicCafeEvents, fmt.Sprint(cafe.ID), map[string]any{
		"type":    "cafe_created",
		"cafeId":  cafe.ID,
		"ownerId": cafe.OwnerID,
		"title":   cafe.Title,
	})

	return c.JSON(http.StatusOK, cafe)
}

// Update applies the non-empty fields of the body onto the stored cafe,
// validates the merged record and saves it. Owner only.
func (h *CafeHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var cafe models.Cafe
	if err := h.DB.First(&cafe, id).Error; err != nil {
		return httperr.NotFound("Cafe", id)
	}

	user := session.CurrentUser(c)
	if cafe.OwnerID != user.ID {
		return httperr.Unauthorized()
	}

	var req cafeRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation([]string{"Invalid request body."})
	}

	if req.Title != "" {
		cafe.Title = req.Title
	}
	if req.Description != "" {
		cafe.Description = req.Description
	}
	if req.Img != "" {
		cafe.Img = req.Img
	}
	if req.Address != "" {
		cafe.Address = req.Address
	}
	if req.City != "" {
		cafe.City = req.City
	}
	if req.ZipCode != "" {
		cafe.ZipCode = req.ZipCode
	}

	merged := cafeRequest{
		Title:       cafe.Title,
		Description: cafe.Description,
		Img:         cafe.Img,
		Address:     cafe.Address,
		City:        cafe.City,
		ZipCode:     cafe.ZipCode,
	}
	if msgs := validate.Struct(&merged); msgs != nil {
		return httperr.Validation(msgs)
	}

	if err := h.DB.Save(&cafe).Error; err != nil {
		return err
	}

	h.reindex(c, &cafe)
	publish(c, h.Producer, events.TopicCafeEvents, fmt.Sprint(cafe.ID), map[string]any{
		"type":   "cafe_updated",
		"cafeId": cafe.ID,
		"title":  cafe.Title,
	})

	return c.JSON(http.StatusOK, echo.Map{"cafe": cafe})
}

// Delete removes the cafe and its reviews in one transaction. Owner only.
func (h *CafeHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var cafe models.Cafe
	if err := h.DB.First(&cafe, id).Error; err != nil {
		return httperr.NotFound("Cafe", id)
	}

	user := session.CurrentUser(c)
	if cafe.OwnerID != user.ID {
		return httperr.Unauthorized()
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ?", cafe.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cafe).Error
	})
	if err != nil {
		return err
	}

	if err := h.Index.Delete(c.Request().Context(), cafe.ID); err != nil {
		logging.FromContext(c.Request().Context()).Warn("es delete failed", "cafeId", cafe.ID, "error", err)
	}
	publish(c, h.Producer, events.TopicCafeEvents, fmt.Sprint(cafe.ID), map[string]any{
		"type":   "cafe_deleted",
		"cafeId": cafe.ID,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *CafeHandler) reindex(c echo.Context, cafe *models.Cafe) {
	if err := h.Index.Index(c.Request().Context(), cafe); err != nil {
		logging.FromContext(c.Request().Context()).Warn("es index failed", "cafeId", cafe.ID, "error", err)
	}
}

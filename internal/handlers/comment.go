package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/tajweer/marketplace/internal/events"
	"github.com/tajweer/marketplace/internal/middleware"
	"github.com/tajweer/marketplace/internal/models"
)

type CommentHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

func (h *CommentHandler) productExists(id uint) error {
	var product models.Product
	if err := h.DB.Select("id").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Create stores a comment attributed to the caller with a server-assigned
// timestamp.
func (h *CommentHandler) Create(c echo.Context) error {
	user := middleware.CurrentUser(c)

	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.productExists(id); err != nil {
		return err
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	comment := models.Comment{
		ProductID: id,
		Phone:     user.Phone,
		Message:   req.Message,
		Timestamp: time.Now().UTC(),
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	publish(c, h.Producer, events.TopicProducts, fmt.Sprint(id), map[string]any{
		"type":       "comment_created",
		"product_id": id,
		"phone":      user.Phone,
	})

	return c.JSON(http.StatusOK, comment)
}

// List returns a product's comments in storage order.
func (h *CommentHandler) List(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.productExists(id); err != nil {
		return err
	}

	comments := []models.Comment{}
	if err := h.DB.Where("product_id = ?", id).Order("id ASC").Find(&comments).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return c.JSON(http.StatusOK, comments)
}

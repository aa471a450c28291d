package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/tajweer/marketplace/internal/authz"
	"github.com/tajweer/marketplace/internal/es"
	"github.com/tajweer/marketplace/internal/events"
	"github.com/tajweer/marketplace/internal/logging"
	"github.com/tajweer/marketplace/internal/middleware"
	"github.com/tajweer/marketplace/internal/models"
	"github.com/tajweer/marketplace/internal/storage"
	"github.com/tajweer/marketplace/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Store    *storage.Store
	Producer *events.Producer
	Indexer  *es.Indexer
}

type productForm struct {
	Title       string
	Description string
	Category    string
	Price       float64
}

func bindProductForm(c echo.Context) (*productForm, error) {
	title := c.FormValue("title")
	if title == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	return &productForm{
		Title:       title,
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		Price:       price,
	}, nil
}

func formImages(c echo.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File["images"]
}

// saveImages writes each upload and records it. A failed file write skips
// that image and keeps going; the product stays persisted without it.
func (h *ProductHandler) saveImages(c echo.Context, productID uint, files []*multipart.FileHeader) {
	l := logging.FromContext(c.Request().Context())
	for _, fh := range files {
		url, err := h.Store.SaveImage(productID, fh)
		if err != nil {
			l.Error("image save failed", "product_id", productID, "filename", fh.Filename, "error", err)
			continue
		}
		img := models.ProductImage{ProductID: productID, ImageURL: url}
		if err := h.DB.Create(&img).Error; err != nil {
			l.Error("image record failed", "product_id", productID, "url", url, "error", err)
		}
	}
}

func (h *ProductHandler) reindex(c echo.Context, p *models.Product) {
	if err := h.Indexer.IndexProduct(c.Request().Context(), p); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index failed", "product_id", p.ID, "error", err)
	}
}

func (h *ProductHandler) loadProduct(id uint) (*models.Product, error) {
	var p models.Product
	if err := h.DB.Preload("Images").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	return uint(id), nil
}

// Create persists a product owned by the caller, then saves each uploaded
// image under the product's directory with a matching image record.
func (h *ProductHandler) Create(c echo.Context) error {
	user := middleware.CurrentUser(c)

	form, err := bindProductForm(c)
	if err != nil {
		return err
	}

	product := models.Product{
		UserPhone:   user.Phone,
		Title:       form.Title,
		Description: form.Description,
		Category:    form.Category,
		Price:       form.Price,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	h.saveImages(c, product.ID, formImages(c))

	fresh, err := h.loadProduct(product.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	publish(c, h.Producer, events.TopicProducts, fmt.Sprint(fresh.ID), map[string]any{
		"type":       "product_created",
		"product_id": fresh.ID,
		"title":      fresh.Title,
		"user_phone": fresh.UserPhone,
	})
	h.reindex(c, fresh)

	return c.JSON(http.StatusOK, fresh)
}

// List returns products with skip/limit pagination, an optional exact
// category filter and an optional case-insensitive substring search over
// title and description.
func (h *ProductHandler) List(c echo.Context) error {
	skip, limit := util.Pagination(c.QueryParam("skip"), c.QueryParam("limit"))

	q := h.DB.Model(&models.Product{}).Preload("Images").Order("id ASC")
	if category := c.QueryParam("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("lower(title) LIKE lower(?) OR lower(description) LIKE lower(?)", pattern, pattern)
	}

	products := []models.Product{}
	if err := q.Offset(skip).Limit(limit).Find(&products).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return c.JSON(http.StatusOK, products)
}

// Mine lists only the caller's products.
func (h *ProductHandler) Mine(c echo.Context) error {
	user := middleware.CurrentUser(c)

	products := []models.Product{}
	if err := h.DB.Preload("Images").
		Where("user_phone = ?", user.Phone).
		Order("id ASC").
		Find(&products).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	product, err := h.loadProduct(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return fmt.Errorf("db error: %w", err)
	}
	return c.JSON(http.StatusOK, product)
}

// Update overwrites the product fields and, when new images are uploaded,
// replaces every existing image record with the new set. Files written for
// the replaced records stay on disk; retention is an open product decision.
func (h *ProductHandler) Update(c echo.Context) error {
	user := middleware.CurrentUser(c)

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	if err := authz.RequireOwner(user, product.UserPhone, "update"); err != nil {
		return err
	}

	form, err := bindProductForm(c)
	if err != nil {
		return err
	}

	product.Title = form.Title
	product.Description = form.Description
	product.Category = form.Category
	product.Price = form.Price
	product.UpdatedAt = time.Now().UTC()
	if err := h.DB.Save(&product).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if files := formImages(c); len(files) > 0 {
		if err := h.DB.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error; err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		h.saveImages(c, product.ID, files)
	}

	fresh, err := h.loadProduct(product.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	publish(c, h.Producer, events.TopicProducts, fmt.Sprint(fresh.ID), map[string]any{
		"type":       "product_updated",
		"product_id": fresh.ID,
		"title":      fresh.Title,
	})
	h.reindex(c, fresh)

	return c.JSON(http.StatusOK, fresh)
}

// Delete removes the product with its image records and comments, then the
// image directory on disk. The directory removal runs after the rows are
// gone, so a crash can orphan files but never leave records behind.
func (h *ProductHandler) Delete(c echo.Context) error {
	user := middleware.CurrentUser(c)

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	if err := authz.RequireOwner(user, product.UserPhone, "delete"); err != nil {
		return err
	}

	if err := h.DB.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := h.DB.Where("product_id = ?", product.ID).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := h.DB.Delete(&product).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if err := h.Store.RemoveProduct(product.ID); err != nil {
		logging.FromContext(c.Request().Context()).Error("image directory removal failed", "product_id", product.ID, "error", err)
	}

	publish(c, h.Producer, events.TopicProducts, fmt.Sprint(product.ID), map[string]any{
		"type":       "product_deleted",
		"product_id": product.ID,
	})
	if err := h.Indexer.DeleteProduct(c.Request().Context(), product.ID); err != nil {
		logging.FromContext(c.Request().Context()).Error("es delete failed", "product_id", product.ID, "error", err)
	}

	return c.NoContent(http.StatusNoContent)
}

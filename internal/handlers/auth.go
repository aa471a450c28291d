package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/tajweer/marketplace/internal/events"
	"github.com/tajweer/marketplace/internal/hash"
	"github.com/tajweer/marketplace/internal/logging"
	"github.com/tajweer/marketplace/internal/middleware"
	"github.com/tajweer/marketplace/internal/models"
	"github.com/tajweer/marketplace/internal/token"
)

// Registration without a password hashes this fixed fallback instead.
// Known weakness carried from the product requirements, pending owner
// clarification.
const fallbackPassword = "default-password"

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *events.Producer
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func publish(c echo.Context, p *events.Producer, topic, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("event publish failed", "topic", topic, "error", err)
	}
}

// Register creates a user. The phone number is the unique login handle;
// a taken phone is a conflict.
func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Phone == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and phone are required")
	}

	var existing models.User
	err := h.DB.Where("phone = ?", req.Phone).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Phone number already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db error: %w", err)
	}

	password := req.Password
	if password == "" {
		password = fallbackPassword
	}
	hashed, err := hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash error: %w", err)
	}

	user := models.User{
		Name:     req.Name,
		Phone:    req.Phone,
		Password: hashed,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		// The pre-check races with concurrent registration; the unique
		// index on phone is the authority.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "Phone number already registered")
		}
		return fmt.Errorf("db error: %w", err)
	}

	publish(c, h.Producer, events.TopicUsers, user.Phone, map[string]any{
		"type":  "user_registered",
		"phone": user.Phone,
		"name":  user.Name,
	})

	return c.JSON(http.StatusOK, user)
}

// Token is the OAuth2-style form login: username carries the phone number.
func (h *AuthHandler) Token(c echo.Context) error {
	phone := c.FormValue("username")
	password := c.FormValue("password")

	user, ok := h.authenticate(phone, password)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect username or password")
	}

	return h.issueToken(c, user)
}

// Login authenticates by phone with an optional password. A user with no
// password supplied logs in unchecked; this weak-auth policy is intentional.
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.Where("phone = ?", req.Phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	if req.Password != "" && !hash.CheckPassword(user.Password, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect username or password")
	}

	return h.issueToken(c, &user)
}

// Me returns the caller's own record.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

func (h *AuthHandler) authenticate(phone, password string) (*models.User, bool) {
	var user models.User
	if err := h.DB.Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, false
	}
	if password != "" && !hash.CheckPassword(user.Password, password) {
		return nil, false
	}
	return &user, true
}

func (h *AuthHandler) issueToken(c echo.Context, user *models.User) error {
	access, err := h.Tokens.Issue(user.Phone, token.DefaultTTL)
	if err != nil {
		return fmt.Errorf("could not create access token: %w", err)
	}

	publish(c, h.Producer, events.TopicUsers, user.Phone, map[string]any{
		"type":  "user_logged_in",
		"phone": user.Phone,
	})

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
	})
}

// Package authz holds the ownership check gating every product mutation.
// Ownership is phone equality: the session identity must match the phone
// recorded on the product row.
package authz

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tajweer/marketplace/internal/models"
)

func RequireOwner(actor *models.User, ownerPhone, action string) error {
	if actor == nil || actor.Phone != ownerPhone {
		return echo.NewHTTPError(http.StatusForbidden, "not authorized to "+action+" this product")
	}
	return nil
}

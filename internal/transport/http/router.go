package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/tajweer/marketplace/internal/handlers"
	"github.com/tajweer/marketplace/internal/middleware"
	"github.com/tajweer/marketplace/internal/token"
)

type Deps struct {
	DB             *gorm.DB
	Tokens         *token.Service
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	CommentHandler *handlers.CommentHandler
	SearchHandler  *handlers.SearchHandler
	UploadDir      string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	auth := middleware.RequireUser(d.Tokens)

	e.POST("/token", d.AuthHandler.Token)

	users := e.Group("/users")
	users.POST("", d.AuthHandler.Register)
	users.POST("/login", d.AuthHandler.Login)
	users.GET("/me", d.AuthHandler.Me, auth)

	products := e.Group("/products")
	products.GET("", d.ProductHandler.List)
	products.POST("", d.ProductHandler.Create, auth)
	products.GET("/my", d.ProductHandler.Mine, auth)
	if d.SearchHandler != nil {
		products.GET("/search", d.SearchHandler.Search)
	}
	products.GET("/:id", d.ProductHandler.Get)
	products.PUT("/:id", d.ProductHandler.Update, auth)
	products.DELETE("/:id", d.ProductHandler.Delete, auth)
	products.POST("/:id/comments", d.CommentHandler.Create, auth)
	products.GET("/:id/comments", d.CommentHandler.List)

	e.Static("/images", d.UploadDir)
}

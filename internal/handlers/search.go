package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tajweer/marketplace/internal/es"
	"github.com/tajweer/marketplace/internal/util"
)

// SearchHandler serves fuzzy full-text product search from the
// Elasticsearch index. It is only routed when Elasticsearch is configured.
type SearchHandler struct {
	Indexer *es.Indexer
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	skip, limit := util.Pagination(c.QueryParam("skip"), c.QueryParam("limit"))

	total, products, err := h.Indexer.Search(c.Request().Context(), q, skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "products": products})
}

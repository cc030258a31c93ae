package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	productsvc "storefront/internal/service/product"
	"storefront/internal/variant"
)

type priceRange struct {
	MinVariantPrice domain.Money `json:"minVariantPrice"`
	MaxVariantPrice domain.Money `json:"maxVariantPrice"`
}

// productView is the storefront rendering of a product.
type productView struct {
	domain.Product
	AvailableForSale bool        `json:"availableForSale"`
	PriceRange       *priceRange `json:"priceRange,omitempty"`
}

type productPageView struct {
	Product     productView            `json:"product"`
	Selection   variant.Selection      `json:"selection"`
	Variant     *domain.ProductVariant `json:"selectedVariant"`
	Options     []variant.OptionState  `json:"options"`
	Purchasable bool                   `json:"purchasable"`
	// Query is the selection rendered as URL parameters for shareable links.
	Query string `json:"query"`
}

type listView[T any] struct {
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
	Count   int `json:"count"`
	Total   int `json:"total"`
	Results []T `json:"results"`
}

type errorView struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func toProductView(p domain.Product) productView {
	view := productView{Product: p, AvailableForSale: p.AvailableForSale()}
	if minPrice, maxPrice, ok := p.PriceRange(); ok {
		view.PriceRange = &priceRange{MinVariantPrice: minPrice, MaxVariantPrice: maxPrice}
	}
	return view
}

func toProductViews(products []domain.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	return out
}

func toProductPageView(page *productsvc.Page) productPageView {
	return productPageView{
		Product:     toProductView(page.Product),
		Selection:   page.Selection,
		Variant:     page.Variant,
		Options:     page.Options,
		Purchasable: page.Purchasable,
		Query:       page.Selection.Query().Encode(),
	}
}

// paginate slices items by limit and offset. limit <= 0 means 20.
func paginate[T any](items []T, limit, offset int) listView[T] {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	sliced := []T{}
	if offset < len(items) {
		sliced = items[offset:end]
	}
	return listView[T]{
		Limit:   limit,
		Offset:  offset,
		Count:   len(sliced),
		Total:   len(items),
		Results: sliced,
	}
}

// writeError maps service errors to status codes.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status, code, message := http.StatusInternalServerError, "InternalError", "internal error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, code, message = http.StatusNotFound, "ResourceNotFound", err.Error()
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, productsvc.ErrUnknownTopic):
		status, code, message = http.StatusBadRequest, "InvalidInput", err.Error()
	case errors.Is(err, domain.ErrConflict):
		status, code, message = http.StatusConflict, "ConcurrentModification", "cart was modified concurrently; reload and retry"
	case errors.Is(err, variant.ErrAmbiguousVariant):
		status, code, message = http.StatusConflict, "CatalogIntegrity", "product has several variants with the same options"
	case errors.Is(err, domain.ErrVariantUnavailable):
		status, code, message = http.StatusUnprocessableEntity, "VariantUnavailable", err.Error()
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorView{Message: message, Code: code})
}

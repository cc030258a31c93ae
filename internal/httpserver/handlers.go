package httpserver

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	productsvc "storefront/internal/service/product"
)

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Page(ctx context.Context, handle string, query url.Values) (*productsvc.Page, error)
	ResolveVariant(ctx context.Context, handle string, query url.Values) (*domain.ProductVariant, error)
	Revalidate(ctx context.Context, topic, handle string) ([]string, error)
}

type CollectionService interface {
	List(ctx context.Context) ([]domain.Collection, error)
	Products(ctx context.Context, handle string) ([]domain.Product, error)
}

type CartService interface {
	Create(ctx context.Context, in cartsvc.CreateInput) (*domain.Cart, error)
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Update(ctx context.Context, id string, in cartsvc.UpdateInput) (*domain.Cart, error)
	AddLine(ctx context.Context, cartID, merchandiseID string) (*domain.Cart, error)
	IncrementLine(ctx context.Context, cartID, merchandiseID string) (*domain.Cart, error)
	DecrementLine(ctx context.Context, cartID, merchandiseID string) (*domain.Cart, error)
	RemoveLine(ctx context.Context, cartID, merchandiseID string) (*domain.Cart, error)
}

type handlers struct {
	products    ProductService
	collections CollectionService
	carts       CartService
	secret      string
	logger      *zap.Logger
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, paginate(toProductViews(products), queryInt(c, "limit"), queryInt(c, "offset")))
}

func (h *handlers) productPage(c *gin.Context) {
	page, err := h.products.Page(c.Request.Context(), c.Param("handle"), c.Request.URL.Query())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductPageView(page))
}

func (h *handlers) resolveVariant(c *gin.Context) {
	v, err := h.products.ResolveVariant(c.Request.Context(), c.Param("handle"), c.Request.URL.Query())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handlers) listCollections(c *gin.Context) {
	collections, err := h.collections.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, paginate(collections, queryInt(c, "limit"), queryInt(c, "offset")))
}

func (h *handlers) collectionProducts(c *gin.Context) {
	products, err := h.collections.Products(c.Request.Context(), c.Param("handle"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, paginate(toProductViews(products), queryInt(c, "limit"), queryInt(c, "offset")))
}

func (h *handlers) createCart(c *gin.Context) {
	var in cartsvc.CreateInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			writeError(c, h.logger, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
			return
		}
	}
	cart, err := h.carts.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cart)
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) updateCart(c *gin.Context) {
	var in cartsvc.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.logger, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	cart, err := h.carts.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type addLineRequest struct {
	MerchandiseID string `json:"merchandiseId"`
}

func (h *handlers) addLine(c *gin.Context) {
	var in addLineRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.logger, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	if in.MerchandiseID == "" {
		writeError(c, h.logger, fmt.Errorf("%w: merchandiseId required", domain.ErrInvalidInput))
		return
	}
	cart, err := h.carts.AddLine(c.Request.Context(), c.Param("id"), in.MerchandiseID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// lineHandler adapts a single-line cart operation to a route with :id and :merchandiseId.
func (h *handlers) lineHandler(op func(ctx context.Context, cartID, merchandiseID string) (*domain.Cart, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := op(c.Request.Context(), c.Param("id"), c.Param("merchandiseId"))
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

type revalidateRequest struct {
	Topic  string `json:"topic"`
	Handle string `json:"handle"`
}

// revalidate is the catalog webhook. Topic may come from the body or the
// X-Topic header.
func (h *handlers) revalidate(c *gin.Context) {
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(c.Query("secret")), []byte(h.secret)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorView{Message: "invalid revalidation secret", Code: "Unauthorized"})
		return
	}
	var in revalidateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			writeError(c, h.logger, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
			return
		}
	}
	if in.Topic == "" {
		in.Topic = c.GetHeader("X-Topic")
	}
	tags, err := h.products.Revalidate(c.Request.Context(), in.Topic, in.Handle)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revalidated": true, "tags": tags})
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

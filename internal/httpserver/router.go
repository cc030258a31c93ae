package httpserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/logging"
)

// Deps are the services behind the routes.
type Deps struct {
	Products         ProductService
	Collections      CollectionService
	Carts            CartService
	Limiter          *cache.Limiter
	RevalidateSecret string
	CORSOrigins      []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	logger = logging.OrNop(logger)
	router := gin.New()
	router.Use(logging.GinMiddleware(logger), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  deps.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"X-RateLimit-Remaining", "X-RateLimit-Reset"},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{
		products:    deps.Products,
		collections: deps.Collections,
		carts:       deps.Carts,
		secret:      deps.RevalidateSecret,
		logger:      logger,
	}

	if deps.Products != nil {
		router.GET("/products", h.listProducts)
		router.GET("/products/:handle", h.productPage)
		router.GET("/products/:handle/variant", h.resolveVariant)
		router.POST("/revalidate", h.revalidate)
	}
	if deps.Collections != nil {
		router.GET("/collections", h.listCollections)
		router.GET("/collections/:handle/products", h.collectionProducts)
	}
	if deps.Carts != nil {
		carts := router.Group("/carts")
		carts.GET("/:id", h.getCart)

		limited := carts.Group("", rateLimit(deps.Limiter, logger))
		limited.POST("", h.createCart)
		limited.POST("/:id", h.updateCart)
		limited.POST("/:id/lines", h.addLine)
		limited.POST("/:id/lines/:merchandiseId/increment", h.lineHandler(deps.Carts.IncrementLine))
		limited.POST("/:id/lines/:merchandiseId/decrement", h.lineHandler(deps.Carts.DecrementLine))
		limited.DELETE("/:id/lines/:merchandiseId", h.lineHandler(deps.Carts.RemoveLine))
	}

	return router
}

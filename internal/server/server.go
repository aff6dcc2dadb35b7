// Package server is a development backend for WebTray. It keeps everything in
// memory and answers with the same response envelope as the production API.
package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/loggo/v2"

	"github.com/webtray/webtray/internal/database"
	"github.com/webtray/webtray/internal/metrics"
)

var logger = loggo.GetLogger("webtray.server")

type Options struct {
	// JWTSecret enables route guarding. When empty, tokens are still issued
	// but requests without one are let through.
	JWTSecret string
	TokenTTL  time.Duration
	Clock     clock.Clock
	// DB is optional; when set, /api/health reports its status.
	DB *database.DB
}

type Server struct {
	router   *gin.Engine
	repo     *Repository
	db       *database.DB
	clock    clock.Clock
	tokens   *tokenIssuer
	guarded  bool
	validate *validator.Validate
}

// NewServer creates a new server instance
func NewServer(repo *Repository, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	key := opts.JWTSecret
	if key == "" {
		key = uuid.NewString()
	}

	router := gin.New()
	server := &Server{
		router:   router,
		repo:     repo,
		db:       opts.DB,
		clock:    opts.Clock,
		tokens:   &tokenIssuer{key: []byte(key), clock: opts.Clock, ttl: opts.TokenTTL},
		guarded:  opts.JWTSecret != "",
		validate: validator.New(),
	}
	router.Use(gin.Recovery(), server.observe)

	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/health", s.healthCheck)
	}

	v1 := api.Group("/v1")
	v1.POST("/auth/login", s.login)

	storefront := v1.Group("/storefront")
	{
		storefront.GET("/:id", s.storefrontStore)
		storefront.GET("/:id/products", s.storefrontProducts)
	}

	admin := v1.Group("", s.authenticate)
	{
		admin.GET("/auth/me", s.me)

		admin.GET("/stores", s.listStores)
		admin.POST("/stores", s.createStore)
		admin.GET("/stores/:id", s.getStore)
		admin.PUT("/stores/:id", s.updateStore)

		admin.GET("/products", s.listProducts)
		admin.POST("/products", s.createProduct)
		admin.GET("/products/:id", s.getProduct)
		admin.PUT("/products/:id", s.updateProduct)
		admin.DELETE("/products/:id", s.deleteProduct)

		admin.GET("/categories", s.listCategories)
		admin.POST("/categories", s.createCategory)
		admin.GET("/categories/:id", s.getCategory)
		admin.PUT("/categories/:id", s.updateCategory)
		admin.DELETE("/categories/:id", s.deleteCategory)

		admin.GET("/orders", s.listOrders)
		admin.POST("/orders", s.createOrder)
		admin.GET("/orders/:id", s.getOrder)
		admin.PUT("/orders/:id", s.updateOrder)
		admin.DELETE("/orders/:id", s.deleteOrder)

		admin.GET("/customers", s.listCustomers)
		admin.POST("/customers", s.createCustomer)
		admin.GET("/customers/:id", s.getCustomer)
		admin.PUT("/customers/:id", s.updateCustomer)
		admin.DELETE("/customers/:id", s.deleteCustomer)

		admin.GET("/summaries/inventory", s.inventorySummary)
		admin.GET("/summaries/orders", s.orderSummary)
		admin.GET("/summaries/customers", s.customerSummary)
	}
}

// healthCheck endpoint for monitoring
func (s *Server) healthCheck(c *gin.Context) {
	if s.db != nil {
		if err := s.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"error":  "database connection failed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "webtray",
		"version": "0.1.0",
	})
}

// observe records request metrics and logs each request.
func (s *Server) observe(c *gin.Context) {
	start := s.clock.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	elapsed := s.clock.Now().Sub(start)
	status := c.Writer.Status()
	metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
	metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())
	logger.Debugf("%s %s -> %d in %v (request %s)", c.Request.Method, c.Request.URL.Path, status, elapsed, c.GetHeader("X-Request-ID"))
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	logger.Infof("dev backend listening on %s (route guarding %s)", addr, onOff(s.guarded))
	return s.router.Run(addr)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

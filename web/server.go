// Package web serves the browsing UI and the JSON API over the display layer.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sjsage522/pricetracker/internal/display"
	"sjsage522/pricetracker/internal/store"
	"sjsage522/pricetracker/logger"
)

//go:embed templates/*.html
var templatesFS embed.FS

// HealthFunc reports whether the server's dependencies are reachable
type HealthFunc func(ctx context.Context) error

// Server is the HTTP display layer
type Server struct {
	display *display.Service
	sites   []string
	health  HealthFunc
	engine  *gin.Engine
}

// NewServer creates the server and registers its routes
func NewServer(svc *display.Service, sites []string, health HealthFunc) *Server {
	s := &Server{
		display: svc,
		sites:   sites,
		health:  health,
		engine:  gin.New(),
	}

	s.engine.Use(requestLogger(), gin.Recovery())
	s.engine.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/", s.index)
	r.POST("/", s.chooseSite)
	r.GET("/:site/cities", s.cities)
	r.GET("/products", s.allProducts)
	r.GET("/products/:city", s.cityProducts)
	r.GET("/price_history/:product_id/:city_id", s.priceHistory)
	r.GET("/healthz", s.healthz)

	api := r.Group("/api")
	{
		api.GET("/cities", s.apiCities)
		api.GET("/cities/:id/products", s.apiCityProducts)
		api.GET("/products/:id/history/:city_id", s.apiPriceHistory)
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.ForComponent("server").Info().Str("addr", addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.ForComponent("server").Info().Msg("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs every request through the structured logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := logger.ForComponent("server")
		event := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request")
	}
}

func (s *Server) renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error.html", gin.H{"Status": status, "Message": message})
}

// storeError maps a display error to a 404 or a logged 500
func (s *Server) storeError(c *gin.Context, err error, what string, api bool) {
	status := http.StatusInternalServerError
	message := "failed to fetch " + what
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
		message = what + " not found"
	} else {
		logger.LogError("server", err, "%s %s", c.Request.Method, c.Request.URL.Path)
	}

	if api {
		c.JSON(status, gin.H{"error": message})
		return
	}
	s.renderError(c, status, message)
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Sites": s.sites})
}

func (s *Server) chooseSite(c *gin.Context) {
	site := c.PostForm("site")
	if !slices.Contains(s.sites, site) {
		c.HTML(http.StatusBadRequest, "index.html", gin.H{"Sites": s.sites, "Error": "unknown site"})
		return
	}
	c.Redirect(http.StatusSeeOther, "/"+site+"/cities")
}

func (s *Server) cities(c *gin.Context) {
	site := c.Param("site")
	if !slices.Contains(s.sites, site) {
		s.renderError(c, http.StatusNotFound, "unknown site")
		return
	}

	cities, err := s.display.Cities(c.Request.Context())
	if err != nil {
		s.storeError(c, err, "cities", false)
		return
	}
	c.HTML(http.StatusOK, "cities.html", gin.H{"Site": site, "Cities": cities})
}

func (s *Server) allProducts(c *gin.Context) {
	products, err := s.display.Products(c.Request.Context())
	if err != nil {
		s.storeError(c, err, "products", false)
		return
	}
	c.HTML(http.StatusOK, "products.html", gin.H{"AllProducts": products})
}

func (s *Server) cityProducts(c *gin.Context) {
	ctx := c.Request.Context()
	city, err := s.display.CityByName(ctx, c.Param("city"))
	if err != nil {
		s.storeError(c, err, "city", false)
		return
	}

	products, err := s.display.ProductsForCity(ctx, city.ID, display.ParseSort(c.Query("sort_order")))
	if err != nil {
		s.storeError(c, err, "products", false)
		return
	}
	c.HTML(http.StatusOK, "products.html", gin.H{"City": city, "Products": products})
}

func (s *Server) priceHistory(c *gin.Context) {
	productID, ok := parseID(c, "product_id")
	if !ok {
		s.renderError(c, http.StatusBadRequest, "invalid product id")
		return
	}
	cityID, ok := parseID(c, "city_id")
	if !ok {
		s.renderError(c, http.StatusBadRequest, "invalid city id")
		return
	}

	history, err := s.display.PriceHistory(c.Request.Context(), productID, cityID)
	if err != nil {
		s.storeError(c, err, "product", false)
		return
	}
	c.HTML(http.StatusOK, "price_history.html", gin.H{"History": history})
}

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			logger.LogError("server", err, "health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) apiCities(c *gin.Context) {
	cities, err := s.display.Cities(c.Request.Context())
	if err != nil {
		s.storeError(c, err, "cities", true)
		return
	}
	if cities == nil {
		cities = []store.City{}
	}
	c.JSON(http.StatusOK, cities)
}

func (s *Server) apiCityProducts(c *gin.Context) {
	cityID, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.display.CityByID(ctx, cityID); err != nil {
		s.storeError(c, err, "city", true)
		return
	}

	products, err := s.display.ProductsForCity(ctx, cityID, display.ParseSort(c.Query("sort")))
	if err != nil {
		s.storeError(c, err, "products", true)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) apiPriceHistory(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	cityID, ok := parseID(c, "city_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid city id"})
		return
	}

	history, err := s.display.PriceHistory(c.Request.Context(), productID, cityID)
	if err != nil {
		s.storeError(c, err, "product", true)
		return
	}
	c.JSON(http.StatusOK, history)
}

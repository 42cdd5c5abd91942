// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"taxifare/internal/http/handlers"
	"taxifare/internal/http/middleware"
	"taxifare/internal/maps"
)

type RouterDeps struct {
	Quote    handlers.QuoteService
	Pricer   handlers.Pricer
	Geocoder maps.Geocoder
	// Location reads pickup times sent without an offset.
	Location *time.Location
	Logger   *zap.Logger
	NewRelic *newrelic.Application
}

func NewRouter(d RouterDeps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.Logging(logger), middleware.Recovery(logger))
	if d.NewRelic != nil {
		r.Use(nrgin.Middleware(d.NewRelic))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	fareHandler := handlers.NewFareHandler(d.Pricer, d.Location)
	api.POST("/fares", fareHandler.Price)
	api.GET("/vehicles", fareHandler.Vehicle)

	quoteHandler := handlers.NewQuoteHandler(d.Quote, d.Location)
	api.POST("/quotes", quoteHandler.Create)
	api.GET("/quotes/:id", quoteHandler.Get)
	api.POST("/predictions", quoteHandler.Predict)

	geocodeHandler := handlers.NewGeocodeHandler(d.Geocoder)
	api.GET("/geocode", geocodeHandler.Geocode)

	return r
}

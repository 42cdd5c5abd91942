// README: Base handler utilities (JSON helpers, error mapping, request parsing).
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taxifare/internal/modules/pricing"
	"taxifare/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Layouts accepted for pickup times without an offset; they are read in the configured zone.
var localTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps the error taxonomy to a status. The error is attached to the context for the request log.
func writeServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrUpstreamUnavailable):
		writeError(c, http.StatusBadGateway, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeBindError(c *gin.Context, err error) {
	_ = c.Error(err)
	writeError(c, http.StatusBadRequest, "invalid request: "+err.Error())
}

// parsePickupTime accepts RFC 3339 (kept in its own offset) or a local layout read in loc.
func parsePickupTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: pickup_datetime is required", types.ErrInvalidInput)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range localTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: pickup_datetime %q is not a recognised date-time", types.ErrInvalidInput, s)
}

// parseCurrency defaults to EUR when the field is omitted.
func parseCurrency(s string) (pricing.Currency, error) {
	if strings.TrimSpace(s) == "" {
		return pricing.CurrencyEUR, nil
	}
	return pricing.ParseCurrency(s)
}

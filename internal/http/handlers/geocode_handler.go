package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taxifare/internal/maps"
	"taxifare/internal/types"
)

type GeocodeHandler struct {
	geocoder maps.Geocoder
}

func NewGeocodeHandler(geocoder maps.Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// Geocode resolves ?q= or the street/locality/country triple.
func (h *GeocodeHandler) Geocode(c *gin.Context) {
	address := strings.TrimSpace(c.Query("q"))
	if address == "" {
		address = maps.FormatAddress(c.Query("street"), c.Query("locality"), c.Query("country"))
	}
	if address == "" {
		writeServiceError(c, fmt.Errorf("%w: q is required", types.ErrInvalidInput))
		return
	}

	p, err := h.geocoder.Geocode(c.Request.Context(), address)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"query": address,
		"lat":   p.Lat,
		"lng":   p.Lng,
	})
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/greenloop/ecopost/backend/internal/geocode"
	"github.com/greenloop/ecopost/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// GeocodeHandler exposes the forward and reverse lookup flows over HTTP.
// Debouncing belongs to the typing surface, so the search endpoint itself
// answers every call; clients throttle keystrokes with a Resolver.
type GeocodeHandler struct {
	geocoder geocode.Geocoder
}

// NewGeocodeHandler creates a new GeocodeHandler
func NewGeocodeHandler(geocoder geocode.Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// RegisterGeocodeRoutes registers geocoding routes
func (h *GeocodeHandler) RegisterGeocodeRoutes(g *echo.Group) {
	g.GET("/geocode/search", h.ForwardSearch)
	g.GET("/geocode/reverse", h.Reverse)
}

// ForwardSearch resolves free text to location candidates. Queries under
// three trimmed characters return no candidates without a lookup; lookup
// failure is fail-soft and also returns an empty list.
func (h *GeocodeHandler) ForwardSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if len(query) < 3 {
		return c.JSON(http.StatusOK, echo.Map{"candidates": []models.LocationCandidate{}})
	}

	candidates, err := h.geocoder.ForwardSearch(c.Request().Context(), query)
	if err != nil {
		candidates = []models.LocationCandidate{}
	}
	if candidates == nil {
		candidates = []models.LocationCandidate{}
	}
	return c.JSON(http.StatusOK, echo.Map{"candidates": candidates})
}

// Reverse resolves a map-click point to its nearest place name. Unlike the
// forward flow, failure here is user-visible.
func (h *GeocodeHandler) Reverse(c echo.Context) error {
	lng, lngErr := strconv.ParseFloat(c.QueryParam("lng"), 64)
	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if lngErr != nil || latErr != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "lng and lat query parameters are required")
	}

	place, err := h.geocoder.Reverse(c.Request().Context(), lng, lat)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Could not determine location at this point")
	}

	return c.JSON(http.StatusOK, models.SelectedLocation{
		Address:   place,
		Latitude:  lat,
		Longitude: lng,
	})
}

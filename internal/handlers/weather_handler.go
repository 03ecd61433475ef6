// File: internal/handlers/weather_handler.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/agrisaarthi/agrisaarthi/internal/services"
)

type WeatherHandler struct {
	Weather *services.WeatherService
}

func NewWeatherHandler(weather *services.WeatherService) *WeatherHandler {
	return &WeatherHandler{Weather: weather}
}

// GetAdvisory fetches and parses the advisory for ?location=.
func (h *WeatherHandler) GetAdvisory(w http.ResponseWriter, r *http.Request) {
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		writeError(w, "location is required", http.StatusBadRequest)
		return
	}

	advisory, err := h.Weather.FetchAdvisory(r.Context(), location)
	if err != nil {
		writeError(w, "Could not fetch weather advisory", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, advisory)
}

// RecentLocations returns the remembered advisory locations, newest first.
func (h *WeatherHandler) RecentLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"locations": h.Weather.RecentLocations(r.Context()),
	})
}

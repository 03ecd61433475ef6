// File: internal/services/weather_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agrisaarthi/agrisaarthi/internal/repository/clientstate"
)

const recentLocationLimit = 5

// Advisory parse patterns. The advisory text is free-form English; fields
// that fail to match keep their zero / "Unknown" defaults.
var (
	temperaturePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)°C`)
	windPattern        = regexp.MustCompile(`(\d+(?:\.\d+)?) km/h`)
	humidityPattern    = regexp.MustCompile(`(\d+)%`)
	conditionPattern   = regexp.MustCompile(`with ([^.]+)\.`)
)

// Advisory is a parsed weather advisory for one location.
type Advisory struct {
	Location    string    `json:"location"`
	Message     string    `json:"message"`
	Temperature float64   `json:"temperature_c"`
	WindSpeed   float64   `json:"wind_kmh"`
	Humidity    int       `json:"humidity_percent"`
	Condition   string    `json:"condition"`
	FetchedAt   time.Time `json:"fetched_at"`
}

type advisoryResponse struct {
	Message string `json:"message"`
}

// WeatherService fetches localized weather advisories and remembers the
// most recently requested locations across restarts.
type WeatherService struct {
	baseURL    string
	httpClient *http.Client
	stateRepo  clientstate.StateRepository
	logger     Logger

	mu     sync.Mutex
	recent []string
	loaded bool
}

func NewWeatherService(baseURL string, stateRepo clientstate.StateRepository, logger Logger) *WeatherService {
	return &WeatherService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		stateRepo:  stateRepo,
		logger:     logger,
	}
}

// FetchAdvisory retrieves and parses the advisory for location, then records
// the location in the recent list.
func (s *WeatherService) FetchAdvisory(ctx context.Context, location string) (*Advisory, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("location is required")
	}

	endpoint := fmt.Sprintf("%s/data/weather_advisory?location=%s", s.baseURL, url.QueryEscape(location))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building advisory request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Weather advisory fetch failed", "location", location, "error", err)
		return nil, fmt.Errorf("fetching advisory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading advisory response: %w", err)
	}

	var parsed advisoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding advisory response: %w", err)
	}

	advisory := parseAdvisory(location, parsed.Message)
	s.recordLocation(ctx, location)
	return advisory, nil
}

// parseAdvisory extracts the structured fields from the advisory text.
func parseAdvisory(location, message string) *Advisory {
	advisory := &Advisory{
		Location:  location,
		Message:   message,
		Condition: "Unknown",
		FetchedAt: time.Now().UTC(),
	}
	if m := temperaturePattern.FindStringSubmatch(message); m != nil {
		advisory.Temperature, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := windPattern.FindStringSubmatch(message); m != nil {
		advisory.WindSpeed, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := humidityPattern.FindStringSubmatch(message); m != nil {
		advisory.Humidity, _ = strconv.Atoi(m[1])
	}
	if m := conditionPattern.FindStringSubmatch(message); m != nil {
		advisory.Condition = strings.TrimSpace(m[1])
	}
	return advisory
}

// RecentLocations returns the most recently requested locations, newest
// first, at most recentLocationLimit entries.
func (s *WeatherService) RecentLocations(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	return append([]string(nil), s.recent...)
}

// recordLocation moves location to the front of the recent list,
// deduplicated case-insensitively, and persists the list.
func (s *WeatherService) recordLocation(ctx context.Context, location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	updated := []string{location}
	for _, existing := range s.recent {
		if strings.EqualFold(existing, location) {
			continue
		}
		updated = append(updated, existing)
		if len(updated) == recentLocationLimit {
			break
		}
	}
	s.recent = updated

	payload, err := json.Marshal(s.recent)
	if err != nil {
		s.logger.Warn("Failed to encode recent locations", "error", err)
		return
	}
	if err := s.stateRepo.Put(ctx, clientstate.KeyRecentLocations, payload); err != nil {
		s.logger.Warn("Failed to persist recent locations", "error", err)
	}
}

// ensureLoaded lazily restores the persisted recent list. Callers hold s.mu.
func (s *WeatherService) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true

	payload, err := s.stateRepo.Get(ctx, clientstate.KeyRecentLocations)
	if err != nil {
		if !errors.Is(err, clientstate.ErrStateNotFound) {
			s.logger.Warn("Failed to load recent locations", "error", err)
		}
		return
	}
	var recent []string
	if err := json.Unmarshal(payload, &recent); err != nil {
		s.logger.Warn("Discarding corrupt recent locations blob", "error", err)
		return
	}
	if len(recent) > recentLocationLimit {
		recent = recent[:recentLocationLimit]
	}
	s.recent = recent
}

package facades

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/zsefvlol/timezonemapper"

	"github.com/mpetrashov/user-geo-service/internal/logger"
	"github.com/mpetrashov/user-geo-service/internal/models"
)

// Error variables covering the fixed upstream failure taxonomy.
var (
	ErrGeocodeTimeout          = errors.New("geocoding request timed out")
	ErrGeocodeInvalidInput     = errors.New("invalid zip or country")
	ErrGeocodeAuth             = errors.New("upstream authentication error")
	ErrGeocodeRateLimited      = errors.New("upstream rate limit exceeded")
	ErrGeocodeUnavailable      = errors.New("upstream geocoding service unavailable")
	ErrUnresolvableCoordinates = errors.New("failed to resolve coordinates")
	ErrMissingAPIKey           = errors.New("geocoding API key is not configured")
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	requestTimeout = 8 * time.Second
)

// OpenWeatherFacade resolves a zip+country pair into coordinates and an IANA
// timezone using the OpenWeather API. Calls are one-shot: no retries, no
// caching.
type OpenWeatherFacade struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

// NewOpenWeatherFacade creates a facade with the default endpoint and timeout.
func NewOpenWeatherFacade(apiKey string) *OpenWeatherFacade {
	return &OpenWeatherFacade{
		client:  &http.Client{Timeout: requestTimeout},
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
	}
}

// Resolve fetches coordinates for zipCode in country and derives the IANA
// timezone from them. Upstream failures are mapped onto the package error
// variables and never leak transport details to the caller.
func (f *OpenWeatherFacade) Resolve(ctx context.Context, zipCode, country string) (*models.GeoPoint, error) {
	if f.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("zip", fmt.Sprintf("%s,%s", zipCode, country))
	q.Set("appid", f.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		logger.Log.Errorw("failed to build geocoding request", "zip", zipCode, "country", country, "error", err)
		return nil, ErrGeocodeUnavailable
	}

	resp, err := f.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			logger.Log.Errorw("geocoding request timed out", "zip", zipCode, "country", country)
			return nil, ErrGeocodeTimeout
		}
		logger.Log.Errorw("geocoding request failed", "zip", zipCode, "country", country, "error", err)
		return nil, ErrGeocodeUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrGeocodeInvalidInput
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrGeocodeAuth
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrGeocodeRateLimited
	case resp.StatusCode != http.StatusOK:
		logger.Log.Errorw("unexpected geocoding response", "zip", zipCode, "country", country, "status", resp.StatusCode)
		return nil, ErrGeocodeUnavailable
	}

	var body struct {
		Coord struct {
			Lat *float64 `json:"lat"`
			Lon *float64 `json:"lon"`
		} `json:"coord"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.Log.Errorw("failed to decode geocoding response", "zip", zipCode, "country", country, "error", err)
		return nil, ErrGeocodeUnavailable
	}

	if body.Coord.Lat == nil || body.Coord.Lon == nil {
		return nil, ErrUnresolvableCoordinates
	}

	zone := timezonemapper.LatLngToTimezoneString(*body.Coord.Lat, *body.Coord.Lon)
	if zone == "" {
		return nil, ErrUnresolvableCoordinates
	}

	return &models.GeoPoint{
		Latitude:  *body.Coord.Lat,
		Longitude: *body.Coord.Lon,
		Timezone:  zone,
	}, nil
}

// Package weather provides a current-conditions client for the OpenWeatherMap API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrNotConfigured indicates no API key is available for lookups.
	ErrNotConfigured = errors.New("weather api key not configured")
	// ErrEmptyLocation indicates a lookup was requested without a location.
	ErrEmptyLocation = errors.New("weather location must not be empty")
	// ErrMalformedResponse indicates the provider payload is missing required fields.
	ErrMalformedResponse = errors.New("malformed weather response")
)

// Snapshot is the current weather at a location.
// Temperature is in degrees Celsius and Humidity in percent.
type Snapshot struct {
	Temperature float64 `json:"temperature"`
	Humidity    int     `json:"humidity"`
	Condition   string  `json:"condition"`
	Location    string  `json:"location"`
}

// Summary renders the snapshot as a compact prompt fragment.
func (s *Snapshot) Summary() string {
	return fmt.Sprintf("%.1f°C, %d%% humidity, %s", s.Temperature, s.Humidity, s.Condition)
}

// Client queries current conditions by free-text location (e.g. "London,UK").
type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
	units   string
	logger  *slog.Logger
}

// New creates a Client from a finalized Config.
func New(cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.TimeoutDuration()},
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		units:   cfg.Units,
		logger:  logger.With("system", "weather"),
	}
}

type currentResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Current fetches the current conditions for location.
// Every failure is returned as an error; callers decide whether weather is optional.
func (c *Client) Current(ctx context.Context, location string) (*Snapshot, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptyLocation
	}

	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", c.apiKey)
	params.Set("units", c.units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return payload.snapshot(location)
}

func (p currentResponse) snapshot(requested string) (*Snapshot, error) {
	if p.Main == nil || p.Main.Temp == nil || p.Main.Humidity == nil {
		return nil, fmt.Errorf("%w: missing main conditions", ErrMalformedResponse)
	}
	if len(p.Weather) == 0 {
		return nil, fmt.Errorf("%w: missing weather description", ErrMalformedResponse)
	}

	name := p.Name
	if name == "" {
		name = requested
	}

	return &Snapshot{
		Temperature: *p.Main.Temp,
		Humidity:    int(*p.Main.Humidity),
		Condition:   p.Weather[0].Description,
		Location:    name,
	}, nil
}

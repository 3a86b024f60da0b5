// Package remote queries an external facility service and normalizes its
// responses into the canonical Facility shape.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vso023/smartpark-project/internal/geo"
	"github.com/vso023/smartpark-project/internal/parking"
)

// ErrUnavailable covers network failures, malformed payloads and any
// unexpected status from the remote facility service. The orchestrator
// recovers from it by falling back to the local catalog.
var ErrUnavailable = errors.New("remote facility service unavailable")

// RateLimitedError carries the server-provided message from a 429 response.
type RateLimitedError struct {
	Message string
}

func (e *RateLimitedError) Error() string {
	if e.Message == "" {
		return "remote facility service rate limited"
	}
	return "remote facility service rate limited: " + e.Message
}

// Client implements parking.Repository against the remote search endpoint.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a client for the given endpoint URL. The timeout bounds
// the whole request; callers may tighten it further via context.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type queryRequest struct {
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Filters   parking.Filters `json:"filters"`
}

// QueryCandidates POSTs the origin and filters to the remote service.
// Outcomes: a 2xx body yields zero or more facilities, 404 yields an empty
// set without error, 429 yields a RateLimitedError with the server message,
// and everything else wraps ErrUnavailable.
func (c *Client) QueryCandidates(ctx context.Context, origin geo.Location, filters parking.Filters) ([]parking.Facility, error) {
	body, err := json.Marshal(queryRequest{
		Latitude:  origin.Lat,
		Longitude: origin.Lng,
		Filters:   filters,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitedError{Message: serverMessage(payload)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	facilities, err := decodeFacilities(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return facilities, nil
}

// serverMessage extracts the human-readable message from an error body,
// tolerating both {"error": ...} and {"message": ...}.
func serverMessage(payload []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}

// decodeFacilities accepts either a list of facility objects or a single
// object, the two shapes the existing backend is known to produce.
func decodeFacilities(payload []byte) ([]parking.Facility, error) {
	var list []facilityPayload
	if err := json.Unmarshal(payload, &list); err == nil {
		out := make([]parking.Facility, 0, len(list))
		for _, p := range list {
			out = append(out, p.normalize())
		}
		return out, nil
	}

	var single facilityPayload
	if err := json.Unmarshal(payload, &single); err != nil {
		return nil, fmt.Errorf("malformed payload: %v", err)
	}
	if single.ID == 0 && single.Name == "" {
		return nil, fmt.Errorf("malformed payload: not a facility object")
	}
	return []parking.Facility{single.normalize()}, nil
}

// facilityPayload mirrors the remote wire shape, tolerating the field-name
// variants the backend has emitted over time (lat/latitude, lng/longitude,
// available/is_available, price/price_per_hour). normalize is the single
// place the variants collapse into the canonical Facility.
type facilityPayload struct {
	ID              int64         `json:"id"`
	Name            string        `json:"name"`
	Lat             *float64      `json:"lat"`
	Latitude        *float64      `json:"latitude"`
	Lng             *float64      `json:"lng"`
	Longitude       *float64      `json:"longitude"`
	Location        *geo.Location `json:"location"`
	Available       *bool         `json:"available"`
	IsAvailable     *bool         `json:"is_available"`
	Price           *float64      `json:"price"`
	PricePerHour    *float64      `json:"price_per_hour"`
	Capacity        int           `json:"capacity"`
	AvailableSpaces *int          `json:"available_spaces"`
	Features        []string      `json:"features"`
	Rating          float64       `json:"rating"`
	Type            string        `json:"type"`
	OpenHours       string        `json:"open_hours"`
}

func (p facilityPayload) normalize() parking.Facility {
	f := parking.Facility{
		ID:        p.ID,
		Name:      p.Name,
		Capacity:  p.Capacity,
		Features:  p.Features,
		Rating:    p.Rating,
		Type:      parking.FacilityType(p.Type),
		OpenHours: p.OpenHours,
	}

	switch {
	case p.Location != nil:
		f.Location = *p.Location
	default:
		f.Location = geo.Location{Lat: coalesce(p.Lat, p.Latitude), Lng: coalesce(p.Lng, p.Longitude)}
	}

	switch {
	case p.Available != nil:
		f.Available = *p.Available
	case p.IsAvailable != nil:
		f.Available = *p.IsAvailable
	}

	f.PricePerHour = coalesce(p.Price, p.PricePerHour)

	if p.AvailableSpaces != nil {
		f.AvailableSpaces = *p.AvailableSpaces
	} else if f.Available {
		// Legacy payloads omit the count; assume half capacity like the
		// existing frontend does.
		f.AvailableSpaces = f.Capacity / 2
	}
	if f.AvailableSpaces > f.Capacity {
		f.AvailableSpaces = f.Capacity
	}
	return f
}

func coalesce(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

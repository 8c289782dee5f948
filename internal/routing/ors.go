// Package routing wraps the OpenRouteService directions API.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Route is one alternative with its geometry as [lat, lon] pairs.
// Distance is kilometers, Duration seconds.
type Route struct {
	Geometry [][2]float64 `json:"geometry"`
	Distance float64      `json:"distance"`
	Duration float64      `json:"duration"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	logger     *zap.Logger
}

func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxRetries: 3,
		logger:     logger,
	}
}

type orsRequest struct {
	Coordinates  [][2]float64      `json:"coordinates"`
	Preference   string            `json:"preference"`
	Units        string            `json:"units"`
	Language     string            `json:"language"`
	Geometry     bool              `json:"geometry"`
	Instructions bool              `json:"instructions"`
	Alternatives *orsAlternatives  `json:"alternative_routes,omitempty"`
}

type orsAlternatives struct {
	TargetCount  int     `json:"target_count"`
	ShareFactor  float64 `json:"share_factor"`
	WeightFactor float64 `json:"weight_factor"`
}

type orsSummary struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

type orsRoute struct {
	Geometry json.RawMessage `json:"geometry"`
	Summary  orsSummary      `json:"summary"`
}

type orsFeature struct {
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		Summary orsSummary `json:"summary"`
	} `json:"properties"`
}

type orsResponse struct {
	Routes   []orsRoute   `json:"routes"`
	Features []orsFeature `json:"features"`
}

// statusError marks HTTP failures so the retry loop can tell rate
// limits and server errors from plain client errors.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openrouteservice: status %d: %s", e.status, e.body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status == http.StatusTooManyRequests || se.status >= 500
	}
	// network-level failures are worth retrying too
	return true
}

// FetchRoutes requests driving/walking/cycling directions between two
// points, asking for alternatives on short trips, and retries with
// exponential backoff on 429 and 5xx responses.
func (c *Client) FetchRoutes(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64, profile string) ([]Route, error) {
	body := orsRequest{
		Coordinates:  [][2]float64{{srcLon, srcLat}, {dstLon, dstLat}},
		Preference:   "recommended",
		Units:        "km",
		Language:     "en",
		Geometry:     true,
		Instructions: false,
	}
	// ORS rejects alternative requests on long routes
	if haversineKm(srcLat, srcLon, dstLat, dstLon) <= 120 {
		body.Alternatives = &orsAlternatives{TargetCount: 2, ShareFactor: 0.6, WeightFactor: 1.4}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := 500 * time.Millisecond << (attempt - 1)
			c.logger.Warn("routing retry",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		routes, err := c.fetch(ctx, profile, payload)
		if err == nil {
			return routes, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) fetch(ctx context.Context, profile string, payload []byte) ([]Route, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+profile, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &statusError{status: resp.StatusCode, body: string(msg)}
	}

	var parsed orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("openrouteservice: decode response: %w", err)
	}

	routes := parseRoutes(parsed)
	if len(routes) == 0 {
		return nil, errors.New("openrouteservice: no routes in response")
	}
	return routes, nil
}

// parseRoutes handles both response shapes: a routes array (geometry as
// [lon,lat] pairs or an encoded polyline string) and a GeoJSON
// FeatureCollection.
func parseRoutes(parsed orsResponse) []Route {
	var out []Route
	for _, r := range parsed.Routes {
		route := Route{Distance: r.Summary.Distance, Duration: r.Summary.Duration}

		switch firstByte(r.Geometry) {
		case '"':
			var encoded string
			if json.Unmarshal(r.Geometry, &encoded) == nil {
				route.Geometry = DecodePolyline(encoded, 5)
			}
		case '{':
			var g struct {
				Coordinates [][]float64 `json:"coordinates"`
			}
			if json.Unmarshal(r.Geometry, &g) == nil {
				route.Geometry = lonLatToLatLon(g.Coordinates)
			}
		case '[':
			var coords [][]float64
			if json.Unmarshal(r.Geometry, &coords) == nil {
				route.Geometry = lonLatToLatLon(coords)
			}
		}
		out = append(out, route)
	}
	for _, f := range parsed.Features {
		out = append(out, Route{
			Geometry: lonLatToLatLon(f.Geometry.Coordinates),
			Distance: f.Properties.Summary.Distance,
			Duration: f.Properties.Summary.Duration,
		})
	}
	return out
}

func firstByte(raw json.RawMessage) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

func lonLatToLatLon(coords [][]float64) [][2]float64 {
	out := make([][2]float64, 0, len(coords))
	for _, c := range coords {
		if len(c) >= 2 {
			out = append(out, [2]float64{c[1], c[0]})
		}
	}
	return out
}

// DecodePolyline decodes a Google/ORS encoded polyline into [lat, lon]
// pairs. ORS uses precision 5.
func DecodePolyline(encoded string, precision int) [][2]float64 {
	factor := math.Pow10(precision)
	var coords [][2]float64
	var lat, lon int64

	index := 0
	readDelta := func() (int64, bool) {
		var result int64
		var shift uint
		for {
			if index >= len(encoded) {
				return 0, false
			}
			b := int64(encoded[index]) - 63
			index++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}
		if result&1 != 0 {
			return ^(result >> 1), true
		}
		return result >> 1, true
	}

	for index < len(encoded) {
		dlat, ok := readDelta()
		if !ok {
			break
		}
		dlon, ok := readDelta()
		if !ok {
			break
		}
		lat += dlat
		lon += dlon
		coords = append(coords, [2]float64{float64(lat) / factor, float64(lon) / factor})
	}
	return coords
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

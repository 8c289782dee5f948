// Package geocode resolves free-text place names through Nominatim,
// trying a sequence of increasingly specific query rewrites until one
// matches.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound means every rewrite attempt came back empty.
var ErrNotFound = errors.New("geocode: no match found")

type Result struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
	// pause between attempts, kept short so Nominatim is not hammered
	attemptDelay time.Duration
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		baseURL:      baseURL,
		logger:       logger,
		attemptDelay: 250 * time.Millisecond,
	}
}

// Rough bounding box around Gwalior city for viewbox-restricted searches.
const gwaliorViewbox = "78.05,26.30,78.30,26.15"

var (
	parenNoise   = regexp.MustCompile(`\([^)]*\)`)
	multiSpace   = regexp.MustCompile(`\s+`)
	gwaliorHints = regexp.MustCompile(`(?i)fort|phool bagh|thatipur|moti jheel|lashkar|hazira|morar|city centre|db city mall|jai vilas|scindia`)
	hasIndia     = regexp.MustCompile(`(?i)\bindia\b`)
	hasGwalior   = regexp.MustCompile(`(?i)\bgwalior\b`)
	hasAmity     = regexp.MustCompile(`(?i)\bamity\b`)
)

// Geocode tries the cleaned query as-is, then with country, city, and
// alias rewrites, returning the first match. ErrNotFound when all
// attempts are exhausted.
func (c *Client) Geocode(ctx context.Context, query string) (*Result, error) {
	cleaned := strings.TrimSpace(multiSpace.ReplaceAllString(parenNoise.ReplaceAllString(query, ""), " "))
	if cleaned == "" {
		return nil, ErrNotFound
	}

	type attempt struct {
		query   string
		bounded bool
	}
	attempts := []attempt{{query: cleaned}}

	if !hasIndia.MatchString(cleaned) {
		attempts = append(attempts, attempt{query: cleaned + ", India"})
	}

	looksGwalior := hasGwalior.MatchString(cleaned) || gwaliorHints.MatchString(cleaned)
	if looksGwalior && !hasGwalior.MatchString(cleaned) {
		attempts = append(attempts, attempt{query: cleaned + ", Gwalior, Madhya Pradesh, India"})
	}
	if hasGwalior.MatchString(cleaned) {
		attempts = append(attempts, attempt{query: cleaned + ", Madhya Pradesh, India"})
	}
	if hasAmity.MatchString(cleaned) {
		const alias = "Amity University Madhya Pradesh, Gwalior, Madhya Pradesh, India"
		attempts = append(attempts,
			attempt{query: alias},
			attempt{query: alias, bounded: true})
	}
	if looksGwalior {
		attempts = append(attempts, attempt{query: cleaned, bounded: true})
	}

	for i, a := range attempts {
		if i > 0 {
			select {
			case <-time.After(c.attemptDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		res, err := c.search(ctx, a.query, a.bounded)
		if err != nil {
			c.logger.Warn("geocode attempt failed", zap.String("query", a.query), zap.Error(err))
			continue
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, ErrNotFound
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (c *Client) search(ctx context.Context, query string, bounded bool) (*Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("countrycodes", "in")
	if bounded {
		params.Set("viewbox", gwaliorViewbox)
		params.Set("bounded", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad latitude %q", places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad longitude %q", places[0].Lon)
	}
	return &Result{Name: places[0].DisplayName, Lat: lat, Lon: lon}, nil
}

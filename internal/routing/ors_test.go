package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "test-key", zap.NewNop())
	return c, srv
}

const routesBody = `{
	"routes": [
		{
			"geometry": {"coordinates": [[78.16, 26.23], [78.17, 26.22]]},
			"summary": {"distance": 3.2, "duration": 540}
		},
		{
			"geometry": {"coordinates": [[78.16, 26.23], [78.18, 26.21]]},
			"summary": {"distance": 4.1, "duration": 660}
		}
	]
}`

func TestFetchRoutes_SwapsToLatLon(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/driving-car", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// short trip: alternatives requested
		assert.Contains(t, req, "alternative_routes")

		_, _ = w.Write([]byte(routesBody))
	})

	routes, err := c.FetchRoutes(context.Background(), 26.23, 78.16, 26.22, 78.17, "driving-car")
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, [2]float64{26.23, 78.16}, routes[0].Geometry[0])
	assert.Equal(t, 3.2, routes[0].Distance)
	assert.Equal(t, 540.0, routes[0].Duration)
}

func TestFetchRoutes_NoAlternativesOnLongTrips(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotContains(t, req, "alternative_routes")
		_, _ = w.Write([]byte(routesBody))
	})

	// Delhi to Mumbai is far beyond the 120km alternatives cutoff
	_, err := c.FetchRoutes(context.Background(), 28.61, 77.21, 19.08, 72.88, "driving-car")
	require.NoError(t, err)
}

func TestFetchRoutes_DecodesPolylineGeometry(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"routes": [{"geometry": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@", "summary": {"distance": 10, "duration": 60}}]
		}`))
	})

	routes, err := c.FetchRoutes(context.Background(), 38.5, -120.2, 40.7, -120.95, "driving-car")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Len(t, routes[0].Geometry, 3)
	assert.InDelta(t, 38.5, routes[0].Geometry[0][0], 0.0001)
	assert.InDelta(t, -120.2, routes[0].Geometry[0][1], 0.0001)
	assert.InDelta(t, 43.252, routes[0].Geometry[2][0], 0.0001)
	assert.InDelta(t, -126.453, routes[0].Geometry[2][1], 0.0001)
}

func TestFetchRoutes_ParsesGeoJSONFeatures(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"features": [{
				"geometry": {"coordinates": [[78.16, 26.23], [78.17, 26.22]]},
				"properties": {"summary": {"distance": 2.5, "duration": 300}}
			}]
		}`))
	})

	routes, err := c.FetchRoutes(context.Background(), 26.23, 78.16, 26.22, 78.17, "foot-walking")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, [2]float64{26.23, 78.16}, routes[0].Geometry[0])
	assert.Equal(t, 2.5, routes[0].Distance)
}

func TestFetchRoutes_RetriesOnRateLimit(t *testing.T) {
	attempts := 0
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(routesBody))
	})

	routes, err := c.FetchRoutes(context.Background(), 26.23, 78.16, 26.22, 78.17, "driving-car")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, routes, 2)
}

func TestFetchRoutes_NoRetryOnClientError(t *testing.T) {
	attempts := 0
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, `{"error":"invalid coordinates"}`, http.StatusBadRequest)
	})

	_, err := c.FetchRoutes(context.Background(), 26.23, 78.16, 26.22, 78.17, "driving-car")
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Contains(t, err.Error(), "400")
}

func TestFetchRoutes_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c.maxRetries = 2

	_, err := c.FetchRoutes(context.Background(), 26.23, 78.16, 26.22, 78.17, "driving-car")
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDecodePolyline_Empty(t *testing.T) {
	assert.Empty(t, DecodePolyline("", 5))
}

func TestHaversineKm(t *testing.T) {
	// Mumbai to Pune is roughly 120km as the crow flies
	d := haversineKm(19.076, 72.8777, 18.5204, 73.8567)
	assert.InDelta(t, 120, d, 10)
	assert.Zero(t, haversineKm(26.2, 78.1, 26.2, 78.1))
}

package handlers

import (
	"context"
	"database/sql"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func crimeColumns() []string {
	return []string{"id", "city", "state", "crime_rate", "women_safety", "night_safety", "size", "population"}
}

func reportColumns() []string {
	return []string{"id", "user_id", "latitude", "longitude", "incident_type", "severity", "description", "is_anonymous", "created_at"}
}

func TestScore_Daytime(t *testing.T) {
	db, _ := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	rr := httptest.NewRecorder()
	h.Score(rr, httptest.NewRequest(http.MethodGet,
		"/api/safety/score?lat=26.21&lon=78.17&time=2025-03-15T14:00:00Z", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeBody(t, rr)["data"].(map[string]any)
	assert.Equal(t, float64(75), data["score"])
	assert.Equal(t, "moderate", data["level"])
}

func TestScore_LateNight(t *testing.T) {
	db, _ := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	rr := httptest.NewRecorder()
	h.Score(rr, httptest.NewRequest(http.MethodGet,
		"/api/safety/score?lat=26.21&lon=78.17&time=2025-03-15T23:30:00Z", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeBody(t, rr)["data"].(map[string]any)
	assert.Equal(t, float64(45), data["score"])
	assert.Equal(t, "risky", data["level"])
}

func TestScore_MissingCoordinates(t *testing.T) {
	db, _ := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	rr := httptest.NewRecorder()
	h.Score(rr, httptest.NewRequest(http.MethodGet, "/api/safety/score?lon=78.17", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "lat is required", decodeBody(t, rr)["error"])
}

func TestScore_BadTime(t *testing.T) {
	db, _ := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	rr := httptest.NewRecorder()
	h.Score(rr, httptest.NewRequest(http.MethodGet,
		"/api/safety/score?lat=1&lon=2&time=yesterday", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouteScore(t *testing.T) {
	db, _ := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	rr := httptest.NewRecorder()
	h.RouteScore(rr, httptest.NewRequest(http.MethodGet,
		"/api/safety/route-score?source=Gwalior+Fort&dest=Phool+Bagh&time=2025-03-15T14:00:00Z", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeBody(t, rr)["data"].(map[string]any)
	score := data["score"].(float64)
	assert.GreaterOrEqual(t, score, float64(0))
	assert.LessOrEqual(t, score, float64(100))
	assert.Contains(t, data, "factors")
}

func TestRouteScore_MissingDest(t *testing.T) {
	db, _ := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	rr := httptest.NewRecorder()
	h.RouteScore(rr, httptest.NewRequest(http.MethodGet, "/api/safety/route-score?source=Lashkar", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "source and dest are required", decodeBody(t, rr)["error"])
}

func TestCrimeData(t *testing.T) {
	db, mock := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	mock.ExpectQuery(`FROM crime_data ORDER BY crime_rate ASC`).
		WillReturnRows(sqlmock.NewRows(crimeColumns()).
			AddRow(1, "Kolkata", "West Bengal", 18.4, 7.2, 6.8, "metro", 14850000).
			AddRow(2, "Gwalior", "Madhya Pradesh", 26.2, 6.7, 5.4, "tier2", 1200000))

	rr := httptest.NewRecorder()
	h.CrimeData(rr, httptest.NewRequest(http.MethodGet, "/api/safety/crime-data", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, float64(2), body["count"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCrimeDataByCity_NotFound(t *testing.T) {
	db, mock := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	mock.ExpectQuery(`FROM crime_data WHERE city=`).
		WithArgs("Atlantis").
		WillReturnError(sql.ErrNoRows)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("city", "Atlantis")
	r := httptest.NewRequest(http.MethodGet, "/api/safety/crime-data/Atlantis", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	h.CrimeDataByCity(rr, r)

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Crime data not found for this city", decodeBody(t, rr)["error"])
}

func TestSubmitReport(t *testing.T) {
	db, mock := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	mock.ExpectQuery(`INSERT INTO safety_reports`).
		WithArgs(sqlmock.AnyArg(), 26.21, 78.17, "harassment", 3, sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows(reportColumns()).
			AddRow(1, 1, 26.21, 78.17, "harassment", 3, "near the bus stand", false, time.Now()))

	body := `{"latitude":26.21,"longitude":78.17,"incidentType":"harassment","severity":3,"description":"near the bus stand"}`
	rr := httptest.NewRecorder()
	h.SubmitReport(rr, authedRequest(http.MethodPost, "/api/safety/report", body, 1))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Safety report submitted successfully", decodeBody(t, rr)["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReport_Anonymous(t *testing.T) {
	db, mock := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	mock.ExpectQuery(`INSERT INTO safety_reports`).
		WithArgs(nil, 26.21, 78.17, "stalking", 4, nil, true).
		WillReturnRows(sqlmock.NewRows(reportColumns()).
			AddRow(2, nil, 26.21, 78.17, "stalking", 4, nil, true, time.Now()))

	body := `{"latitude":26.21,"longitude":78.17,"incidentType":"stalking","severity":4,"isAnonymous":true}`
	rr := httptest.NewRecorder()
	h.SubmitReport(rr, authedRequest(http.MethodPost, "/api/safety/report", body, 1))

	require.Equal(t, http.StatusCreated, rr.Code)
	report := decodeBody(t, rr)["data"].(map[string]any)
	assert.Nil(t, report["userId"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReport_SeverityOutOfRange(t *testing.T) {
	db, mock := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	body := `{"latitude":26.21,"longitude":78.17,"incidentType":"theft","severity":9}`
	rr := httptest.NewRecorder()
	h.SubmitReport(rr, authedRequest(http.MethodPost, "/api/safety/report", body, 1))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNearbyReports(t *testing.T) {
	db, mock := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	lat, lon, radius := 26.21, 78.17, 2.0
	latDelta := radius / 111.0
	lonDelta := radius / (111.0 * math.Cos(lat*math.Pi/180))

	mock.ExpectQuery(`FROM safety_reports`).
		WithArgs(lat-latDelta, lat+latDelta, lon-lonDelta, lon+lonDelta, sqlmock.AnyArg(), 50).
		WillReturnRows(sqlmock.NewRows(reportColumns()).
			AddRow(1, 1, 26.211, 78.171, "harassment", 3, nil, false, time.Now()))

	rr := httptest.NewRecorder()
	h.NearbyReports(rr, httptest.NewRequest(http.MethodGet,
		"/api/safety/reports?lat=26.21&lon=78.17&radius=2", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), decodeBody(t, rr)["count"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNearbyReports_RadiusBounds(t *testing.T) {
	db, _ := setupMock(t)
	h := NewSafetyHandler(db, zap.NewNop())

	for _, radius := range []string{"0.05", "51"} {
		rr := httptest.NewRecorder()
		h.NearbyReports(rr, httptest.NewRequest(http.MethodGet,
			"/api/safety/reports?lat=26.21&lon=78.17&radius="+radius, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "radius must be between 0.1 and 50", decodeBody(t, rr)["error"])
	}
}

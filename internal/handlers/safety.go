package handlers

import (
	"database/sql"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"safeway/internal/models"
	"safeway/internal/safety"
)

const (
	reportWindow    = 30 * 24 * time.Hour
	maxReportRows   = 50
	kmPerDegreeLat  = 111.0
	defaultRadiusKm = 5.0
)

type SafetyHandler struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewSafetyHandler(db *sqlx.DB, logger *zap.Logger) *SafetyHandler {
	return &SafetyHandler{db: db, logger: logger}
}

// parseTime accepts an optional RFC3339 time query param, defaulting to
// now.
func parseTime(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("time")
	if raw == "" {
		return time.Now(), true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Score returns the time-of-day location score for a coordinate.
func (h *SafetyHandler) Score(w http.ResponseWriter, r *http.Request) {
	if _, err := queryFloat(r, "lat"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := queryFloat(r, "lon"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	at, ok := parseTime(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "time must be RFC3339")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"data": safety.ScoreLocation(at)})
}

// RouteScore runs the full crime/time/area/density blend over two place
// names.
func (h *SafetyHandler) RouteScore(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	dest := r.URL.Query().Get("dest")
	if source == "" || dest == "" {
		respondError(w, http.StatusBadRequest, "source and dest are required")
		return
	}
	at, ok := parseTime(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "time must be RFC3339")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"data": safety.CalculateRouteSafety(source, dest, at)})
}

// CrimeData lists every city row, safest first.
func (h *SafetyHandler) CrimeData(w http.ResponseWriter, r *http.Request) {
	rows := []models.CrimeData{}
	err := h.db.Select(&rows,
		`SELECT id, city, state, crime_rate, women_safety, night_safety, size, population FROM crime_data ORDER BY crime_rate ASC`)
	if err != nil {
		h.logger.Error("crime data list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch crime data")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"data": rows, "count": len(rows)})
}

// CrimeDataByCity looks up a single city row.
func (h *SafetyHandler) CrimeDataByCity(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if city == "" {
		respondError(w, http.StatusBadRequest, "City name is required")
		return
	}

	var row models.CrimeData
	err := h.db.Get(&row,
		`SELECT id, city, state, crime_rate, women_safety, night_safety, size, population FROM crime_data WHERE city=$1`,
		city)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "Crime data not found for this city")
			return
		}
		h.logger.Error("crime data lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch crime data")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"data": row})
}

type reportRequest struct {
	Latitude     *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude    *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	IncidentType string   `json:"incidentType" validate:"required"`
	Severity     int      `json:"severity" validate:"required,min=1,max=5"`
	Description  string   `json:"description" validate:"omitempty,max=500"`
	IsAnonymous  bool     `json:"isAnonymous"`
}

// SubmitReport records an incident report, anonymously when requested.
func (h *SafetyHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	var reporterID *int
	if !req.IsAnonymous {
		id := userIDFrom(r)
		reporterID = &id
	}
	var description *string
	if req.Description != "" {
		description = &req.Description
	}

	var report models.SafetyReport
	err := h.db.QueryRowx(
		`INSERT INTO safety_reports (user_id, latitude, longitude, incident_type, severity, description, is_anonymous)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, user_id, latitude, longitude, incident_type, severity, description, is_anonymous, created_at`,
		reporterID, *req.Latitude, *req.Longitude, req.IncidentType, req.Severity, description, req.IsAnonymous).StructScan(&report)
	if err != nil {
		h.logger.Error("report insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to submit report")
		return
	}

	respondSuccess(w, http.StatusCreated, envelope{"data": report, "message": "Safety report submitted successfully"})
}

// NearbyReports returns recent reports inside the bounding box that
// approximates the requested radius.
func (h *SafetyHandler) NearbyReports(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	radius := defaultRadiusKm
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "radius must be a number")
			return
		}
		if radius < 0.1 || radius > 50 {
			respondError(w, http.StatusBadRequest, "radius must be between 0.1 and 50")
			return
		}
	}

	// degrees-per-km approximation; longitude shrinks with latitude
	latDelta := radius / kmPerDegreeLat
	lonDelta := radius / (kmPerDegreeLat * math.Cos(lat*math.Pi/180))

	reports := []models.SafetyReport{}
	err = h.db.Select(&reports,
		`SELECT id, user_id, latitude, longitude, incident_type, severity, description, is_anonymous, created_at
		 FROM safety_reports
		 WHERE latitude BETWEEN $1 AND $2
		   AND longitude BETWEEN $3 AND $4
		   AND created_at >= $5
		 ORDER BY created_at DESC
		 LIMIT $6`,
		lat-latDelta, lat+latDelta, lon-lonDelta, lon+lonDelta,
		time.Now().Add(-reportWindow), maxReportRows)
	if err != nil {
		h.logger.Error("reports query failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch reports")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"data": reports, "count": len(reports)})
}

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"safeway/internal/cache"
	"safeway/internal/geocode"
	"safeway/internal/models"
	"safeway/internal/routing"
)

const routeCacheTTL = time.Hour

// RouteFetcher is the slice of the routing client the handler needs.
type RouteFetcher interface {
	FetchRoutes(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64, profile string) ([]routing.Route, error)
}

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*geocode.Result, error)
}

type RoutesHandler struct {
	db       *sqlx.DB
	fetcher  RouteFetcher
	geocoder Geocoder
	cache    *cache.Store
	logger   *zap.Logger
}

func NewRoutesHandler(db *sqlx.DB, fetcher RouteFetcher, geocoder Geocoder, store *cache.Store, logger *zap.Logger) *RoutesHandler {
	return &RoutesHandler{db: db, fetcher: fetcher, geocoder: geocoder, cache: store, logger: logger}
}

var validProfiles = map[string]bool{
	"driving-car":     true,
	"foot-walking":    true,
	"cycling-regular": true,
}

func queryFloat(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

// Search fetches route alternatives between two coordinate pairs,
// memoized by coordinates and profile.
func (h *RoutesHandler) Search(w http.ResponseWriter, r *http.Request) {
	srcLat, err := queryFloat(r, "sourceLat")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	srcLon, err := queryFloat(r, "sourceLon")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	dstLat, err := queryFloat(r, "destLat")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	dstLon, err := queryFloat(r, "destLon")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile := r.URL.Query().Get("profile")
	if profile == "" {
		profile = "driving-car"
	}
	if !validProfiles[profile] {
		respondError(w, http.StatusBadRequest, "profile must be one of: driving-car foot-walking cycling-regular")
		return
	}

	cacheKey := fmt.Sprintf("route:%v,%v:%v,%v:%s", srcLat, srcLon, dstLat, dstLon, profile)
	if body, ok := h.cache.Get(r.Context(), cacheKey); ok {
		var routes []routing.Route
		if json.Unmarshal(body, &routes) == nil {
			respondSuccess(w, http.StatusOK, envelope{
				"data":    routes,
				"message": fmt.Sprintf("Found %d route(s)", len(routes)),
			})
			return
		}
	}

	routes, err := h.fetcher.FetchRoutes(r.Context(), srcLat, srcLon, dstLat, dstLon, profile)
	if err != nil {
		h.logger.Error("route fetch failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch routes. Please try again.")
		return
	}

	if body, err := json.Marshal(routes); err == nil {
		h.cache.Set(r.Context(), cacheKey, body, routeCacheTTL)
	}

	respondSuccess(w, http.StatusOK, envelope{
		"data":    routes,
		"message": fmt.Sprintf("Found %d route(s)", len(routes)),
	})
}

// GeocodePlace resolves a free-text place name to coordinates.
func (h *RoutesHandler) GeocodePlace(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "q is required")
		return
	}

	result, err := h.geocoder.Geocode(r.Context(), query)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Place not found")
			return
		}
		h.logger.Error("geocode failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to geocode place. Please try again.")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"data": result})
}

type saveRouteRequest struct {
	Name        string  `json:"name" validate:"omitempty,max=100"`
	SourceName  string  `json:"sourceName" validate:"required"`
	SourceLat   float64 `json:"sourceLat" validate:"min=-90,max=90"`
	SourceLon   float64 `json:"sourceLon" validate:"min=-180,max=180"`
	DestName    string  `json:"destName" validate:"required"`
	DestLat     float64 `json:"destLat" validate:"min=-90,max=90"`
	DestLon     float64 `json:"destLon" validate:"min=-180,max=180"`
	SafetyScore float64 `json:"safetyScore" validate:"min=0,max=100"`
	Distance    float64 `json:"distance" validate:"min=0"`
	Profile     string  `json:"profile" validate:"required,oneof=driving-car foot-walking cycling-regular"`
}

// Save stores a route for the authenticated user.
func (h *RoutesHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req saveRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	var name *string
	if req.Name != "" {
		name = &req.Name
	}

	var route models.SavedRoute
	err := h.db.QueryRowx(
		`INSERT INTO saved_routes (user_id, name, source_name, source_lat, source_lon, dest_name, dest_lat, dest_lon, safety_score, distance, profile)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, user_id, name, source_name, source_lat, source_lon, dest_name, dest_lat, dest_lon, safety_score, distance, profile, is_favorite, last_used, created_at`,
		userID, name, req.SourceName, req.SourceLat, req.SourceLon,
		req.DestName, req.DestLat, req.DestLon, req.SafetyScore, req.Distance, req.Profile).StructScan(&route)
	if err != nil {
		h.logger.Error("route insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to save route")
		return
	}

	respondSuccess(w, http.StatusCreated, envelope{"data": route, "message": "Route saved successfully"})
}

// Favorites lists the caller's saved routes, most recently used first.
func (h *RoutesHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	routes := []models.SavedRoute{}
	err := h.db.Select(&routes,
		`SELECT id, user_id, name, source_name, source_lat, source_lon, dest_name, dest_lat, dest_lon, safety_score, distance, profile, is_favorite, last_used, created_at
		 FROM saved_routes WHERE user_id=$1 ORDER BY last_used DESC`,
		userID)
	if err != nil {
		h.logger.Error("route list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch routes")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"data": routes, "count": len(routes)})
}

// ownedRoute loads a route and enforces ownership; it writes the error
// response itself and reports success via the bool.
func (h *RoutesHandler) ownedRoute(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid route id")
		return 0, false
	}

	var ownerID int
	if err := h.db.Get(&ownerID, `SELECT user_id FROM saved_routes WHERE id=$1`, id); err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "Route not found")
			return 0, false
		}
		h.logger.Error("route lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch route")
		return 0, false
	}
	if ownerID != userIDFrom(r) {
		respondError(w, http.StatusForbidden, "Not authorized")
		return 0, false
	}
	return id, true
}

// Delete removes a route owned by the caller.
func (h *RoutesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedRoute(w, r)
	if !ok {
		return
	}

	if _, err := h.db.Exec(`DELETE FROM saved_routes WHERE id=$1`, id); err != nil {
		h.logger.Error("route delete failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete route")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"message": "Route deleted successfully"})
}

// ToggleFavorite flips the favorite flag and bumps lastUsed.
func (h *RoutesHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedRoute(w, r)
	if !ok {
		return
	}

	var route models.SavedRoute
	err := h.db.QueryRowx(
		`UPDATE saved_routes SET is_favorite = NOT is_favorite, last_used = NOW() WHERE id=$1
		 RETURNING id, user_id, name, source_name, source_lat, source_lon, dest_name, dest_lat, dest_lon, safety_score, distance, profile, is_favorite, last_used, created_at`,
		id).StructScan(&route)
	if err != nil {
		h.logger.Error("favorite toggle failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update route")
		return
	}

	message := "Removed from favorites"
	if route.IsFavorite {
		message = "Added to favorites"
	}
	respondSuccess(w, http.StatusOK, envelope{"data": route, "message": message})
}

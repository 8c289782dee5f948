package models

import "time"

type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type SavedRoute struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"userId"`
	Name        *string   `db:"name" json:"name,omitempty"`
	SourceName  string    `db:"source_name" json:"sourceName"`
	SourceLat   float64   `db:"source_lat" json:"sourceLat"`
	SourceLon   float64   `db:"source_lon" json:"sourceLon"`
	DestName    string    `db:"dest_name" json:"destName"`
	DestLat     float64   `db:"dest_lat" json:"destLat"`
	DestLon     float64   `db:"dest_lon" json:"destLon"`
	SafetyScore float64   `db:"safety_score" json:"safetyScore"`
	Distance    float64   `db:"distance" json:"distance"`
	Profile     string    `db:"profile" json:"profile"`
	IsFavorite  bool      `db:"is_favorite" json:"isFavorite"`
	LastUsed    time.Time `db:"last_used" json:"lastUsed"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// CrimeData is a per-city reference row seeded at startup and read-only
// at runtime.
type CrimeData struct {
	ID          int     `db:"id" json:"id"`
	City        string  `db:"city" json:"city"`
	State       string  `db:"state" json:"state"`
	CrimeRate   float64 `db:"crime_rate" json:"crimeRate"`
	WomenSafety float64 `db:"women_safety" json:"womenSafety"`
	NightSafety float64 `db:"night_safety" json:"nightSafety"`
	Size        string  `db:"size" json:"size"`
	Population  int64   `db:"population" json:"population"`
}

type SafetyReport struct {
	ID           int       `db:"id" json:"id"`
	UserID       *int      `db:"user_id" json:"userId,omitempty"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	IncidentType string    `db:"incident_type" json:"incidentType"`
	Severity     int       `db:"severity" json:"severity"`
	Description  *string   `db:"description" json:"description,omitempty"`
	IsAnonymous  bool      `db:"is_anonymous" json:"isAnonymous"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type EmergencyContact struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"userId"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	Relation  *string   `db:"relation" json:"relation,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// SOSAlert is append-only history. SentTo holds the numbers that were
// successfully notified, comma-joined.
type SOSAlert struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"userId"`
	Latitude  float64   `db:"latitude" json:"latitude"`
	Longitude float64   `db:"longitude" json:"longitude"`
	Message   string    `db:"message" json:"message"`
	SentTo    string    `db:"sent_to" json:"sentTo"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

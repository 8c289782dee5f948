package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Config holds everything the server needs from the environment. It is
// loaded once in main and handed to the pieces that need it; nothing in
// this package keeps global state.
type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret  string
	JWTExpires time.Duration

	RedisURL string

	ORSBaseURL string
	ORSAPIKey  string

	NominatimBaseURL string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	AllowedOrigins []string
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// Load reads configuration from the environment. JWT_SECRET is the only
// hard requirement; everything else has a default or degrades gracefully.
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	expires := 168 * time.Hour
	if raw := os.Getenv("JWT_EXPIRES"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.New("JWT_EXPIRES must be a valid duration, e.g. 168h")
		}
		expires = d
	}

	origins := []string{"*"}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins = origins[:0]
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		Port:             getenv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        secret,
		JWTExpires:       expires,
		RedisURL:         os.Getenv("REDIS_URL"),
		ORSBaseURL:       getenv("ORS_BASE_URL", "https://api.openrouteservice.org/v2/directions"),
		ORSAPIKey:        os.Getenv("ORS_API_KEY"),
		NominatimBaseURL: getenv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: getenv("TWILIO_FROM_NUMBER", os.Getenv("TWILIO_PHONE_NUMBER")),
		AllowedOrigins:   origins,
	}, nil
}

package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type cityRow struct {
	city        string
	state       string
	crimeRate   float64
	womenSafety float64
	nightSafety float64
	size        string
	population  int64
}

// Reference figures per city. crimeRate is incidents per 100k, the two
// indices are 0-10 (higher is safer), size buckets feed the density score.
var crimeSeed = []cityRow{
	{"Delhi", "Delhi", 45.0, 6.3, 4.2, "metro", 32000000},
	{"Mumbai", "Maharashtra", 38.7, 7.1, 5.8, "metro", 20400000},
	{"Bengaluru", "Karnataka", 32.4, 7.8, 6.5, "metro", 13200000},
	{"Kolkata", "West Bengal", 29.8, 7.6, 6.3, "metro", 15000000},
	{"Chennai", "Tamil Nadu", 31.2, 7.9, 6.7, "metro", 11000000},
	{"Hyderabad", "Telangana", 30.5, 7.7, 6.4, "metro", 10500000},
	{"Pune", "Maharashtra", 27.9, 7.4, 6.2, "tier2", 7400000},
	{"Ahmedabad", "Gujarat", 26.5, 7.3, 6.1, "tier2", 8400000},
	{"Jaipur", "Rajasthan", 28.7, 7.0, 5.7, "tier2", 3900000},
	{"Lucknow", "Uttar Pradesh", 33.1, 6.6, 5.2, "tier2", 3400000},
	{"Kanpur", "Uttar Pradesh", 31.5, 6.4, 5.0, "tier2", 3200000},
	{"Nagpur", "Maharashtra", 25.8, 7.2, 6.0, "tier2", 2700000},
	{"Indore", "Madhya Pradesh", 24.1, 7.0, 5.8, "tier2", 3200000},
	{"Surat", "Gujarat", 22.7, 7.6, 6.3, "tier2", 6100000},
	{"Bhopal", "Madhya Pradesh", 27.3, 6.8, 5.6, "tier2", 2400000},
	{"Gwalior", "Madhya Pradesh", 26.2, 6.7, 5.4, "tier2", 1200000},
	{"Patna", "Bihar", 34.9, 6.0, 4.8, "tier2", 2300000},
	{"Chandigarh", "Chandigarh", 21.4, 8.0, 6.8, "tier2", 1200000},
	{"Coimbatore", "Tamil Nadu", 20.3, 8.2, 7.0, "small", 2200000},
	{"Kochi", "Kerala", 19.8, 8.4, 7.2, "small", 2100000},
	{"Thiruvananthapuram", "Kerala", 18.6, 8.1, 7.1, "small", 1700000},
}

// SeedCrimeData loads the static city table. Existing rows are left
// untouched so a manually corrected row survives restarts.
func SeedCrimeData(db *sqlx.DB) error {
	const stmt = `INSERT INTO crime_data (city, state, crime_rate, women_safety, night_safety, size, population)
	              VALUES ($1, $2, $3, $4, $5, $6, $7)
	              ON CONFLICT (city) DO NOTHING`
	for _, c := range crimeSeed {
		if _, err := db.ExecContext(context.Background(), stmt,
			c.city, c.state, c.crimeRate, c.womenSafety, c.nightSafety, c.size, c.population); err != nil {
			return err
		}
	}
	return nil
}

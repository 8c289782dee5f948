package safety

import "sort"

// CityStats mirrors the seeded crime_data table so route scoring stays a
// pure function with no database dependency.
type CityStats struct {
	CrimeRate   float64
	WomenSafety float64
	NightSafety float64
	Size        string
}

var cityStats = map[string]CityStats{
	"Delhi":              {45.0, 6.3, 4.2, "metro"},
	"Mumbai":             {38.7, 7.1, 5.8, "metro"},
	"Bengaluru":          {32.4, 7.8, 6.5, "metro"},
	"Kolkata":            {29.8, 7.6, 6.3, "metro"},
	"Chennai":            {31.2, 7.9, 6.7, "metro"},
	"Hyderabad":          {30.5, 7.7, 6.4, "metro"},
	"Pune":               {27.9, 7.4, 6.2, "tier2"},
	"Ahmedabad":          {26.5, 7.3, 6.1, "tier2"},
	"Jaipur":             {28.7, 7.0, 5.7, "tier2"},
	"Lucknow":            {33.1, 6.6, 5.2, "tier2"},
	"Kanpur":             {31.5, 6.4, 5.0, "tier2"},
	"Nagpur":             {25.8, 7.2, 6.0, "tier2"},
	"Indore":             {24.1, 7.0, 5.8, "tier2"},
	"Surat":              {22.7, 7.6, 6.3, "tier2"},
	"Bhopal":             {27.3, 6.8, 5.6, "tier2"},
	"Gwalior":            {26.2, 6.7, 5.4, "tier2"},
	"Patna":              {34.9, 6.0, 4.8, "tier2"},
	"Chandigarh":         {21.4, 8.0, 6.8, "tier2"},
	"Coimbatore":         {20.3, 8.2, 7.0, "small"},
	"Kochi":              {19.8, 8.4, 7.2, "small"},
	"Thiruvananthapuram": {18.6, 8.1, 7.1, "small"},
}

// cityNames is sorted so substring matching visits cities in a fixed
// order and scoring stays deterministic.
var cityNames = sortedKeys(cityStats)

func sortedKeys(m map[string]CityStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Named Gwalior localities with hand-tuned area scores. These override
// the keyword heuristic when the location text mentions one of them.
var gwaliorAreas = map[string]float64{
	"City Centre":      65,
	"DB City Mall":     64,
	"Phool Bagh":       62,
	"Jai Vilas":        60,
	"Railway Station":  58,
	"Lashkar":          58,
	"Amity University": 57,
	"Gwalior Fort":     55,
	"Morar":            52,
	"Thatipur":         48,
	"Hazira":           45,
	"Moti Jheel":       42,
}

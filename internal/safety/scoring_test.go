package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour int) time.Time {
	return time.Date(2024, 2, 1, hour, 0, 0, 0, time.UTC)
}

func TestScoreLocation_TimeBuckets(t *testing.T) {
	day := ScoreLocation(at(10))
	assert.Equal(t, 75, day.Score)
	assert.Equal(t, LevelModerate, day.Level)
	assert.Equal(t, 1.0, day.Factors.TimeMultiplier)

	evening := ScoreLocation(at(19))
	assert.Equal(t, 64, evening.Score)
	assert.Equal(t, LevelModerate, evening.Level)

	night := ScoreLocation(at(23))
	assert.Equal(t, 45, night.Score)
	assert.Equal(t, LevelRisky, night.Level)
	assert.Equal(t, ColorRisky, night.Color)

	earlyMorning := ScoreLocation(at(3))
	assert.Equal(t, 45, earlyMorning.Score)
}

func TestCalculateRouteSafety_Deterministic(t *testing.T) {
	when := at(10)
	first := CalculateRouteSafety("Gwalior Fort", "Phool Bagh, Gwalior", when)
	for i := 0; i < 5; i++ {
		again := CalculateRouteSafety("Gwalior Fort", "Phool Bagh, Gwalior", when)
		assert.Equal(t, first, again)
	}
}

func TestCalculateRouteSafety_ScoreInRange(t *testing.T) {
	inputs := [][2]string{
		{"Gwalior Fort", "Phool Bagh, Gwalior"},
		{"Delhi", "Mumbai"},
		{"isolated remote stretch", "deserted bypass"},
		{"Chandigarh market", "Kochi central station"},
		{"", ""},
		{"Nowhere Special", "Also Nowhere"},
	}
	for _, in := range inputs {
		for _, hour := range []int{3, 10, 19, 23} {
			res := CalculateRouteSafety(in[0], in[1], at(hour))
			assert.GreaterOrEqual(t, res.Score, 0, "inputs %v hour %d", in, hour)
			assert.LessOrEqual(t, res.Score, 100, "inputs %v hour %d", in, hour)
		}
	}
}

func TestCalculateRouteSafety_LevelBuckets(t *testing.T) {
	inputs := [][2]string{
		{"Gwalior Fort", "Phool Bagh, Gwalior"},
		{"Delhi", "Patna"},
		{"Kochi", "Thiruvananthapuram"},
		{"isolated lonely outpost", "remote deserted place"},
	}
	for _, in := range inputs {
		for _, hour := range []int{10, 23} {
			res := CalculateRouteSafety(in[0], in[1], at(hour))
			switch {
			case res.Score >= 80:
				assert.Equal(t, LevelSafe, res.Level)
				assert.Equal(t, ColorSafe, res.Color)
			case res.Score < 50:
				assert.Equal(t, LevelRisky, res.Level)
				assert.Equal(t, ColorRisky, res.Color)
			default:
				assert.Equal(t, LevelModerate, res.Level)
				assert.Equal(t, ColorModerate, res.Color)
			}
		}
	}
}

func TestCalculateRouteSafety_DaytimeBeatsNight(t *testing.T) {
	day := CalculateRouteSafety("Gwalior Fort", "Phool Bagh, Gwalior", time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC))
	night := CalculateRouteSafety("Gwalior Fort", "Phool Bagh, Gwalior", time.Date(2024, 2, 1, 23, 0, 0, 0, time.UTC))

	require.Greater(t, day.Score, night.Score)
	assert.Equal(t, 100, day.Factors.Time)
	assert.Equal(t, 60, night.Factors.Time)
	// every other component is time-independent
	assert.Equal(t, day.Factors.Crime, night.Factors.Crime)
	assert.Equal(t, day.Factors.Area, night.Factors.Area)
	assert.Equal(t, day.Factors.Density, night.Factors.Density)
}

func TestCalculateRouteSafety_CityExtraction(t *testing.T) {
	res := CalculateRouteSafety("Gwalior Fort", "Phool Bagh, Gwalior", at(10))
	assert.Equal(t, "Gwalior", res.Factors.SourceCity)
	assert.Equal(t, "Gwalior", res.Factors.DestCity)

	res = CalculateRouteSafety("Connaught Place, Delhi", "Marine Drive, Mumbai", at(10))
	assert.Equal(t, "Delhi", res.Factors.SourceCity)
	assert.Equal(t, "Mumbai", res.Factors.DestCity)
}

func TestAreaScore_Keywords(t *testing.T) {
	assert.Equal(t, 40.0, areaScore("isolated farm track"))
	assert.Equal(t, 60.0, areaScore("sarojini market"))
	assert.Equal(t, 55.0, areaScore("nh44 highway stretch"))
	assert.Equal(t, 50.0, areaScore("somewhere else"))
}

func TestAreaScoreCityAware_GwaliorOverride(t *testing.T) {
	// the named-area table wins over the keyword heuristic
	assert.Equal(t, gwaliorAreas["Phool Bagh"], areaScoreCityAware("Phool Bagh, Gwalior", "Gwalior"))
	// highest-scoring matching area wins
	assert.Equal(t, gwaliorAreas["City Centre"], areaScoreCityAware("Thatipur near City Centre", "Gwalior"))
	// unmatched Gwalior text falls back to the keyword heuristic
	assert.Equal(t, 50.0, areaScoreCityAware("some colony", "Gwalior"))
	// other cities never consult the table
	assert.Equal(t, 50.0, areaScoreCityAware("Phool Bagh", "Delhi"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 100.0, normalize(10, 15, 45))
	assert.Equal(t, 0.0, normalize(50, 15, 45))
	assert.InDelta(t, 50.0, normalize(30, 15, 45), 0.001)
}

func TestDensityScore(t *testing.T) {
	assert.Equal(t, 60.0, densityScore("metro"))
	assert.Equal(t, 80.0, densityScore("small"))
	assert.Equal(t, 70.0, densityScore("tier2"))
	assert.Equal(t, 70.0, densityScore(""))
}

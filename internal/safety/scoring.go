// Package safety implements the two SafeWay scoring formulas.
//
// ScoreLocation is the coarse server-side score: a fixed base adjusted by
// hour of day. CalculateRouteSafety is the richer blend of crime, time,
// area and density factors over the static city table. The two are
// intentionally independent and do not share a formula.
package safety

import (
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	LevelSafe     = "safe"
	LevelModerate = "moderate"
	LevelRisky    = "risky"

	ColorSafe     = "#10B981"
	ColorModerate = "#F59E0B"
	ColorRisky    = "#EF4444"
)

// levelFor buckets a 0-100 score: safe at 80 and above, risky below 50.
func levelFor(score int) (string, string) {
	switch {
	case score >= 80:
		return LevelSafe, ColorSafe
	case score < 50:
		return LevelRisky, ColorRisky
	default:
		return LevelModerate, ColorModerate
	}
}

// LocationFactors is the breakdown returned by ScoreLocation.
type LocationFactors struct {
	BaseScore      int     `json:"baseScore"`
	TimeMultiplier float64 `json:"timeMultiplier"`
	CurrentHour    int     `json:"currentHour"`
}

// LocationSafety is the result of the time-only location score.
type LocationSafety struct {
	Score   int             `json:"score"`
	Level   string          `json:"level"`
	Color   string          `json:"color"`
	Factors LocationFactors `json:"factors"`
}

const locationBaseScore = 75

// ScoreLocation applies the hour-of-day multiplier to the base score.
// Day (06-18) is 1.0, evening (18-22) is 0.85, night is 0.6.
func ScoreLocation(at time.Time) LocationSafety {
	hour := at.Hour()

	multiplier := 0.6
	switch {
	case hour >= 6 && hour < 18:
		multiplier = 1.0
	case hour >= 18 && hour < 22:
		multiplier = 0.85
	}

	score := int(math.Round(locationBaseScore * multiplier))
	level, color := levelFor(score)

	return LocationSafety{
		Score: score,
		Level: level,
		Color: color,
		Factors: LocationFactors{
			BaseScore:      locationBaseScore,
			TimeMultiplier: multiplier,
			CurrentHour:    hour,
		},
	}
}

// RouteFactors is the per-component breakdown of a route score.
type RouteFactors struct {
	Crime      int    `json:"crime"`
	Time       int    `json:"time"`
	Area       int    `json:"area"`
	Density    int    `json:"density"`
	SourceCity string `json:"sourceCity"`
	DestCity   string `json:"destCity"`
}

// RouteSafety is the result of CalculateRouteSafety.
type RouteSafety struct {
	Score   int          `json:"score"`
	Level   string       `json:"level"`
	Color   string       `json:"color"`
	Factors RouteFactors `json:"factors"`
}

// Weights for the final blend.
const (
	weightCrime   = 0.4
	weightTime    = 0.25
	weightArea    = 0.2
	weightDensity = 0.15
)

// Realistic band for per-100k crime rates; rates at or below the floor
// normalize to 100, at or above the ceiling to 0.
const (
	crimeRateMin = 15.0
	crimeRateMax = 45.0
)

// Defaults applied when a location does not match a known city.
const (
	defaultCrimeScore  = 55.0
	defaultWomenSafety = 7.0
	defaultNightSafety = 6.0
)

var (
	isolatedTerms = regexp.MustCompile(`isolated|remote|deserted|lonely`)
	crowdedTerms  = regexp.MustCompile(`market|mall|station|junction|bus stand|metro|downtown|central`)
	highwayTerms  = regexp.MustCompile(`highway|expressway|road|bypass`)
)

// normalize maps value onto 0-100 inverted over [min,max]: lower input is
// a higher (safer) score.
func normalize(value, min, max float64) float64 {
	if value <= min {
		return 100
	}
	if value >= max {
		return 0
	}
	return (max - value) / (max - min) * 100
}

// extractCity guesses a city name from free text by substring match
// against the known city table, falling back to the capitalized first
// word of the text.
func extractCity(location string) string {
	name := strings.ToLower(location)
	for _, city := range cityNames {
		if strings.Contains(name, strings.ToLower(city)) {
			return city
		}
	}
	first := strings.TrimSpace(strings.SplitN(name, ",", 2)[0])
	first = strings.SplitN(first, " ", 2)[0]
	if first == "" {
		return ""
	}
	for _, city := range cityNames {
		if strings.HasPrefix(strings.ToLower(city), first) {
			return city
		}
	}
	return strings.ToUpper(first[:1]) + first[1:]
}

func areaScore(location string) float64 {
	s := strings.ToLower(location)
	switch {
	case isolatedTerms.MatchString(s):
		return 40
	case crowdedTerms.MatchString(s):
		return 60
	case highwayTerms.MatchString(s):
		return 55
	default:
		return 50
	}
}

// areaScoreCityAware checks the named-area table for Gwalior before the
// generic keyword heuristic. The highest-scoring matching area wins.
func areaScoreCityAware(location, city string) float64 {
	if strings.EqualFold(city, "Gwalior") {
		s := strings.ToLower(location)
		best := -1.0
		for name, score := range gwaliorAreas {
			if strings.Contains(s, strings.ToLower(name)) && score > best {
				best = score
			}
		}
		if best >= 0 {
			return best
		}
	}
	return areaScore(location)
}

// timeScore maps the hour-of-day multipliers onto a 0-100 component so
// the weighted blend has uniform units.
func timeScore(at time.Time) float64 {
	h := at.Hour()
	switch {
	case h >= 6 && h < 18:
		return 100
	case h >= 18 && h < 22:
		return 85
	default:
		return 60
	}
}

// densityScore favors mid-size settlements: metros are crowded but
// anonymous, small cities quieter but with more public presence.
func densityScore(size string) float64 {
	switch size {
	case "metro":
		return 60
	case "small":
		return 80
	default:
		return 70
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// CalculateRouteSafety scores the route between two free-text place
// names at the given time. It is deterministic and side-effect free:
// identical inputs always produce the identical result, and the score is
// an integer in [0,100].
func CalculateRouteSafety(source, dest string, at time.Time) RouteSafety {
	srcCity := extractCity(source)
	dstCity := extractCity(dest)
	srcData, srcKnown := cityStats[srcCity]
	dstData, dstKnown := cityStats[dstCity]

	srcCrime := defaultCrimeScore
	womenSrc, nightSrc := defaultWomenSafety, defaultNightSafety
	if srcKnown {
		srcCrime = normalize(srcData.CrimeRate, crimeRateMin, crimeRateMax)
		womenSrc, nightSrc = srcData.WomenSafety, srcData.NightSafety
	}
	dstCrime := defaultCrimeScore
	womenDst, nightDst := defaultWomenSafety, defaultNightSafety
	if dstKnown {
		dstCrime = normalize(dstData.CrimeRate, crimeRateMin, crimeRateMax)
		womenDst, nightDst = dstData.WomenSafety, dstData.NightSafety
	}

	baseCrime := (srcCrime + dstCrime) / 2
	womenIdx := (womenSrc + womenDst) / 2
	nightIdx := (nightSrc + nightDst) / 2
	crime := clamp(baseCrime*0.85+womenIdx*0.1+nightIdx*0.05, 0, 100)

	tScore := timeScore(at)

	area := (areaScoreCityAware(source, srcCity) + areaScoreCityAware(dest, dstCity)) / 2

	srcSize, dstSize := "tier2", "tier2"
	if srcKnown {
		srcSize = srcData.Size
	}
	if dstKnown {
		dstSize = dstData.Size
	}
	density := (densityScore(srcSize) + densityScore(dstSize)) / 2

	score := int(math.Round(crime*weightCrime + tScore*weightTime + area*weightArea + density*weightDensity))
	level, color := levelFor(score)

	return RouteSafety{
		Score: score,
		Level: level,
		Color: color,
		Factors: RouteFactors{
			Crime:      int(math.Round(crime)),
			Time:       int(math.Round(tScore)),
			Area:       int(math.Round(area)),
			Density:    int(math.Round(density)),
			SourceCity: srcCity,
			DestCity:   dstCity,
		},
	}
}

package airquality

import "math"

// AQI category names, ordered from cleanest to worst.
const (
	CategoryGood          = "Good"
	CategoryModerate      = "Moderate"
	CategoryUSG           = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy     = "Unhealthy"
	CategoryVeryUnhealthy = "Very Unhealthy"
	CategoryHazardous     = "Hazardous"
	CategoryUnknown       = "Unknown"
)

// maxAQI is the scale ceiling; concentrations above the top breakpoint clamp here.
const maxAQI = 500

// AQIResult is a standardized 0-500 index with its category band.
type AQIResult struct {
	AQI      int    `json:"aqi"`
	Category string `json:"category"`
}

type aqiBreakpoint struct {
	cLow, cHigh float64
	iLow, iHigh float64
}

// EPA AQI breakpoints, concentrations in µg/m³.
var aqiBreakpoints = map[Pollutant][]aqiBreakpoint{
	PM25: {
		{0, 12.0, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 500.4, 301, 500},
	},
	PM10: {
		{0, 54, 0, 50},
		{55, 154, 51, 100},
		{155, 254, 101, 150},
		{255, 354, 151, 200},
		{355, 424, 201, 300},
		{425, 604, 301, 500},
	},
	O3: {
		{0, 54, 0, 50},
		{55, 70, 51, 100},
		{71, 85, 101, 150},
		{86, 105, 151, 200},
		{106, 200, 201, 300},
	},
	NO2: {
		{0, 53, 0, 50},
		{54, 100, 51, 100},
		{101, 360, 101, 150},
		{361, 649, 151, 200},
		{650, 1249, 201, 300},
		{1250, 2049, 301, 500},
	},
}

// CalculateAQI converts a µg/m³ concentration to the standardized index via
// piecewise-linear interpolation over the pollutant's breakpoint table.
// Pollutants without a breakpoint table yield ok=false and an "Unknown"
// category. Concentrations above the top breakpoint clamp to 500/Hazardous.
// Pure and idempotent.
func CalculateAQI(p Pollutant, concentration float64) (AQIResult, bool) {
	bps, known := aqiBreakpoints[p]
	if !known {
		return AQIResult{Category: CategoryUnknown}, false
	}

	if concentration < 0 {
		concentration = 0
	}

	for _, bp := range bps {
		if concentration <= bp.cHigh {
			aqi := (bp.iHigh-bp.iLow)/(bp.cHigh-bp.cLow)*(concentration-bp.cLow) + bp.iLow
			rounded := int(math.Round(aqi))
			return AQIResult{AQI: rounded, Category: categoryForIndex(rounded)}, true
		}
	}

	return AQIResult{AQI: maxAQI, Category: CategoryHazardous}, true
}

// categoryForIndex maps a rounded index onto the six fixed category bands.
func categoryForIndex(aqi int) string {
	switch {
	case aqi <= 50:
		return CategoryGood
	case aqi <= 100:
		return CategoryModerate
	case aqi <= 150:
		return CategoryUSG
	case aqi <= 200:
		return CategoryUnhealthy
	case aqi <= 300:
		return CategoryVeryUnhealthy
	default:
		return CategoryHazardous
	}
}

package airquality

import (
	"log"
	"math"
)

// UnitUgM3 is the canonical concentration unit every harmonized value is
// expressed in.
const UnitUgM3 = "µg/m³"

// conversionFactors maps (pollutant, source unit) to the multiplier that
// yields µg/m³. Gas factors assume EPA reference conditions (25°C, 1 atm).
var conversionFactors = map[Pollutant]map[string]float64{
	NO2: {
		"ppb":    1.88,
		"ppm":    1880,
		UnitUgM3: 1.0,
	},
	O3: {
		"ppb":    1.96,
		"ppm":    1960,
		UnitUgM3: 1.0,
	},
	PM25: {
		UnitUgM3: 1.0,
		"mg/m³":  1000,
	},
	PM10: {
		UnitUgM3: 1.0,
		"mg/m³":  1000,
	},
	CO: {
		"ppb":    1.145,
		"ppm":    1145,
		"mg/m³":  1000,
		UnitUgM3: 1.0,
	},
	SO2: {
		"ppb":    2.62,
		"ppm":    2620,
		UnitUgM3: 1.0,
	},
	HCHO: {
		"ppb":    1.23,
		"ppm":    1230,
		UnitUgM3: 1.0,
	},
}

// NormalizeValue converts a raw concentration to µg/m³.
//
// A NaN value means the source reported nothing; ok is false and the caller
// decides how to handle the gap. An unknown pollutant or unit falls back to
// an identity conversion rather than corrupting the value; the fallback is
// logged because it is an approximation, not an exact conversion.
func NormalizeValue(p Pollutant, value float64, unit string) (converted float64, ok bool) {
	if math.IsNaN(value) {
		return math.NaN(), false
	}

	units, known := conversionFactors[p]
	if !known {
		log.Printf("units: no conversion table for pollutant %q; passing value through", p)
		return value, true
	}

	factor, known := units[unit]
	if !known {
		log.Printf("units: unknown unit %q for %s; assuming µg/m³", unit, p)
		factor = 1.0
	}
	return value * factor, true
}

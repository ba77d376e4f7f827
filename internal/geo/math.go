package geo

import "math"

// XAxisFromAzimuth derives the projected grid X axis direction from a true north
// azimuth given in degrees clockwise from the model north axis (+Y).
//
// The grid X axis is taken 90 degrees from true north:
// (cos(az+90°), sin(az+90°)).
func XAxisFromAzimuth(azimuthDeg float64) (abscissa, ordinate float64) {
	az := azimuthDeg * (math.Pi / 180.0)
	return math.Cos(az + math.Pi*0.5), math.Sin(az + math.Pi*0.5)
}

// ResolveXAxis picks the X axis direction of a map conversion.
//
// Explicit components win, even when only one of them is given. The azimuth is
// used only when both components are missing. Anything still unresolved falls
// back to the identity direction (1, 0).
func ResolveXAxis(abscissa, ordinate, azimuthDeg *float64) (float64, float64) {
	if abscissa == nil && ordinate == nil && azimuthDeg != nil {
		return XAxisFromAzimuth(*azimuthDeg)
	}

	x, y := 1.0, 0.0
	if abscissa != nil {
		x = *abscissa
	}
	if ordinate != nil {
		y = *ordinate
	}

	return x, y
}

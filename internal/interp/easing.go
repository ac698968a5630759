package interp

import "math"

// easeInOutCubic maps linear progress in [0,1] onto a cubic S-curve:
// slow start, near-linear middle, slow stop. Used so marker motion
// between two samples reads as natural rather than mechanical.
func easeInOutCubic(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	if p < 0.5 {
		return 4 * p * p * p
	}
	q := -2*p + 2
	return 1 - q*q*q/2
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// bearingDegrees computes the initial great-circle bearing from one
// coordinate to another, normalized to [0, 360). Identical endpoints
// yield 0; callers that need heading continuity for a stationary
// vehicle must carry the previous value themselves.
func bearingDegrees(fromLat, fromLng, toLat, toLng float64) float64 {
	la1 := fromLat * math.Pi / 180
	la2 := toLat * math.Pi / 180
	dLng := (toLng - fromLng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(la2)
	x := math.Cos(la1)*math.Sin(la2) - math.Sin(la1)*math.Cos(la2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

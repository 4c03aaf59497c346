package particles

import "math"

// hslToRGB converts hue, saturation and lightness, each in [0,1], to RGB.
// Hue wraps.
func hslToRGB(h, s, l float64) (r, g, b float64) {
	h = h - math.Floor(h)
	s = clamp01(s)
	l = clamp01(l)
	if s == 0 {
		return l, l, l
	}
	var q float64
	if l <= 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*6*(2.0/3-t)
	}
	return p
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Package units provides distinct types for the measurement units the
// dispersion formulas mix. The empirical growth formulas work in feet and
// mph; polygon construction and the wire format work in meters; the
// operational cone takes km/h. Keeping the units in the type system prevents
// silent conversion mistakes without changing any numeric behavior.
package units

const (
	metersPerFoot = 0.3048
	kmhPerMph     = 1.609344
	mpsPerMph     = 0.44704
)

// Feet is a distance in feet.
type Feet float64

// Meters is a distance in meters.
type Meters float64

// Mph is a speed in miles per hour.
type Mph float64

// Kmh is a speed in kilometers per hour.
type Kmh float64

// Mps is a speed in meters per second.
type Mps float64

// Meters converts feet to meters.
func (f Feet) Meters() Meters {
	return Meters(float64(f) * metersPerFoot)
}

// Feet converts meters to feet.
func (m Meters) Feet() Feet {
	return Feet(float64(m) / metersPerFoot)
}

// Kmh converts mph to km/h.
func (s Mph) Kmh() Kmh {
	return Kmh(float64(s) * kmhPerMph)
}

// Mps converts mph to m/s.
func (s Mph) Mps() Mps {
	return Mps(float64(s) * mpsPerMph)
}

// Mph converts km/h to mph.
func (s Kmh) Mph() Mph {
	return Mph(float64(s) / kmhPerMph)
}

// Mps converts km/h to m/s.
func (s Kmh) Mps() Mps {
	return Mps(float64(s) / 3.6)
}

// Package calibration converts raw oscillator frequencies into pressure and
// temperature using the polynomial transfer functions stored in the device
// configuration.
package calibration

import "math"

const (
	PCoeffsCount = 16
	TCoeffsCount = 5
)

// P16Coeffs are the temperature-compensated pressure coefficients.
type P16Coeffs struct {
	Fp0 float32               `json:"Fp0"`
	Ft0 float32               `json:"Ft0"`
	A   [PCoeffsCount]float32 `json:"A"`
}

// T5Coeffs are the temperature coefficients. Only C[0..2] take part in the
// polynomial; C[3] and C[4] are carried by the firmware but never evaluated.
type T5Coeffs struct {
	F0 float32               `json:"F0"`
	T0 float32               `json:"T0"`
	C  [TCoeffsCount]float32 `json:"C"`
}

// Pressure computes calibrated pressure in the given unit.
//
// With dp = fp - Fp0 and dt = ft - Ft0 the result is the cubic
//
//	p = k0 + dp*(k1 + dp*(k2 + dp*k3))
//
// whose coefficients are cubics in dt:
//
//	k0 = A0 + dt*(A1 + dt*(A2  + dt*A12))
//	k1 = A3 + dt*(A5 + dt*(A7  + dt*A13))
//	k2 = A4 + dt*(A6 + dt*(A8  + dt*A14))
//	k3 = A9 + dt*(A10 + dt*(A11 + dt*A15))
//
// dt is forced to zero when the temperature channel is disabled or ft is
// NaN. All arithmetic runs in float64. A disabled pressure channel yields NaN.
// Pressure panics on an invalid unit; ParseProfile never produces one.
func Pressure(fp, ft float32, c P16Coeffs, unit PressureUnit, pEnabled, tEnabled bool) float32 {
	if !pEnabled {
		return float32(math.NaN())
	}
	if !unit.Valid() {
		panic("calibration: pressure requested in invalid unit")
	}

	dp := float64(fp) - float64(c.Fp0)
	dt := 0.0
	if tEnabled && !math.IsNaN(float64(ft)) {
		dt = float64(ft) - float64(c.Ft0)
	}

	a := func(i int) float64 { return float64(c.A[i]) }
	k0 := a(0) + dt*(a(1)+dt*(a(2)+dt*a(12)))
	k1 := a(3) + dt*(a(5)+dt*(a(7)+dt*a(13)))
	k2 := a(4) + dt*(a(6)+dt*(a(8)+dt*a(14)))
	k3 := a(9) + dt*(a(10)+dt*(a(11)+dt*a(15)))

	p := k0 + dp*(k1+dp*(k2+dp*k3))
	return float32(p * unit.multiplier)
}

// Temperature computes calibrated temperature in degrees Celsius:
// T0 + C0*d + C1*d^2 + C2*d^3 with d = ft - F0. A disabled channel yields NaN.
func Temperature(ft float32, c T5Coeffs, tEnabled bool) float32 {
	if !tEnabled {
		return float32(math.NaN())
	}
	d := float64(ft) - float64(c.F0)
	result := float64(c.T0)
	mu := d
	for i := 0; i < 3; i++ {
		result += mu * float64(c.C[i])
		mu *= d
	}
	return float32(result)
}

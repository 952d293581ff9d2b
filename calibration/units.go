package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidUnit is returned when a profile selects the reserved zero unit
// or a unit the device does not define.
var ErrInvalidUnit = errors.New("invalid pressure measure unit")

// PressureUnit is a display unit for calibrated pressure. The calibration
// polynomial yields bar; each unit carries the multiplier from bar. The zero
// value is invalid and is rejected when a profile is parsed.
type PressureUnit struct {
	name       string
	code       uint32
	multiplier float64
}

// Units defined by the device firmware. Codes match the firmware enum.
var (
	Pa    = PressureUnit{name: "Pa", code: 0x00220000, multiplier: 100000.0}
	Bar   = PressureUnit{name: "Bar", code: 0x004E0000, multiplier: 1.0}
	At    = PressureUnit{name: "At", code: 0x00A10000, multiplier: 1.0197162}
	MmH2O = PressureUnit{name: "mmH20", code: 0x00A20000, multiplier: 10197.162}
	MHg   = PressureUnit{name: "mHg", code: 0x00A30000, multiplier: 750.06158 / 1000.0}
	Atm   = PressureUnit{name: "Atm", code: 0x00A40000, multiplier: 0.98692327}
	PSI   = PressureUnit{name: "PSI", code: 0x00AB0000, multiplier: 14.5}
)

var pressureUnits = []PressureUnit{Pa, Bar, At, MmH2O, MHg, Atm, PSI}

// String returns the unit label used in report headers.
func (u PressureUnit) String() string {
	if !u.Valid() {
		return "INVALID_ZERO"
	}
	return u.name
}

// Code returns the firmware code of the unit.
func (u PressureUnit) Code() uint32 { return u.code }

// Multiplier returns the factor converting bar into this unit.
func (u PressureUnit) Multiplier() float64 { return u.multiplier }

// Valid reports whether u is one of the defined units.
func (u PressureUnit) Valid() bool { return u.multiplier != 0 }

// ParsePressureUnit resolves a unit by name (case-insensitive) or by its
// firmware code written in decimal or 0x-prefixed hex.
func ParsePressureUnit(s string) (PressureUnit, error) {
	s = strings.TrimSpace(s)
	for _, u := range pressureUnits {
		if strings.EqualFold(s, u.name) {
			return u, nil
		}
	}
	// Device reports spell the water column unit with a zero; accept the
	// letter spelling as well.
	if strings.EqualFold(s, "mmH2O") {
		return MmH2O, nil
	}
	if code, err := strconv.ParseUint(s, 0, 32); err == nil {
		return PressureUnitByCode(uint32(code))
	}
	return PressureUnit{}, fmt.Errorf("%w: %q", ErrInvalidUnit, s)
}

// PressureUnitByCode resolves a unit from its firmware code.
func PressureUnitByCode(code uint32) (PressureUnit, error) {
	for _, u := range pressureUnits {
		if u.code == code {
			return u, nil
		}
	}
	return PressureUnit{}, fmt.Errorf("%w: code 0x%08X", ErrInvalidUnit, code)
}

// MarshalJSON writes the unit label.
func (u PressureUnit) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts either the unit name or its numeric firmware code.
func (u *PressureUnit) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParsePressureUnit(name)
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	}
	var code uint32
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUnit, string(data))
	}
	parsed, err := PressureUnitByCode(code)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxProfileSize = 1 * 1024 * 1024

// WorkRange is the declared operating range of a channel.
type WorkRange struct {
	Minimum         float32  `json:"minimum"`
	Maximum         float32  `json:"maximum"`
	AbsoluteMaximum *float32 `json:"absolute_maximum,omitempty"`
}

// Contains reports whether v lies within [Minimum, Maximum]. NaN is never contained.
func (r WorkRange) Contains(v float32) bool {
	return v >= r.Minimum && v <= r.Maximum
}

// CalibrationDate is the date the coefficients were produced.
type CalibrationDate struct {
	Day   uint32 `json:"Day"`
	Month uint32 `json:"Month"`
	Year  uint32 `json:"Year"`
}

func (d CalibrationDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// WriteConfig is the sampling schedule the logger was programmed with.
type WriteConfig struct {
	BaseIntervalMs uint32 `json:"BaseInterval_ms"`
	PWriteDevider  uint32 `json:"PWriteDevider"`
	TWriteDevider  uint32 `json:"TWriteDevider"`
}

// Monitoring holds the alarm flags latched by the firmware.
type Monitoring struct {
	Ovarpress   bool `json:"Ovarpress"`
	Ovarheat    bool `json:"Ovarheat"`
	CPUOvarheat bool `json:"CPUOvarheat"`
	OverPower   bool `json:"OverPower"`
}

// IsSet reports whether any alarm was raised.
func (m Monitoring) IsSet() bool {
	return m.Ovarpress || m.Ovarheat || m.CPUOvarheat || m.OverPower
}

// Alarms lists the names of the raised flags.
func (m Monitoring) Alarms() []string {
	var out []string
	if m.Ovarpress {
		out = append(out, "overpressure")
	}
	if m.Ovarheat {
		out = append(out, "overheat")
	}
	if m.CPUOvarheat {
		out = append(out, "cpu overheat")
	}
	if m.OverPower {
		out = append(out, "over power")
	}
	return out
}

// Profile is the device configuration needed to calibrate a dump. It is
// loaded once and shared read-only by every page worker.
type Profile struct {
	Serial        uint32 `json:"Serial"`
	PMesureTimeMs uint32 `json:"PMesureTime_ms"`
	TMesureTimeMs uint32 `json:"TMesureTime_ms"`
	Fref          uint32 `json:"Fref"`
	PEnabled      bool   `json:"P_enabled"`
	TEnabled      bool   `json:"T_enabled"`
	TCPUEnabled   bool   `json:"TCPUEnabled"`
	VBatEnabled   bool   `json:"VBatEnabled"`

	PCoefficients P16Coeffs `json:"P_Coefficients"`
	TCoefficients T5Coeffs  `json:"T_Coefficients"`

	PWorkRange    WorkRange `json:"PWorkRange"`
	TWorkRange    WorkRange `json:"TWorkRange"`
	TCPUWorkRange WorkRange `json:"TCPUWorkRange"`
	VbatWorkRange WorkRange `json:"VbatWorkRange"`

	PZeroCorrection float32 `json:"PZeroCorrection"`
	TZeroCorrection float32 `json:"TZeroCorrection"`

	CalibrationDate CalibrationDate `json:"calibration_date"`
	WriteConfig     WriteConfig     `json:"writeConfig"`
	StartDelay      uint32          `json:"startDelay"`

	PressureUnit PressureUnit `json:"pressureMeassureUnits"`
	Monitoring   Monitoring   `json:"monitoring"`
}

// PressureAt calibrates one pressure sample with the profile settings.
func (p *Profile) PressureAt(fp, ft float32) float32 {
	return Pressure(fp, ft, p.PCoefficients, p.PressureUnit, p.PEnabled, p.TEnabled)
}

// TemperatureAt calibrates one temperature sample with the profile settings.
func (p *Profile) TemperatureAt(ft float32) float32 {
	return Temperature(ft, p.TCoefficients, p.TEnabled)
}

// ParseProfile decodes a JSON device configuration and validates it.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse calibration profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the invariants the calibration engine relies on.
func (p *Profile) Validate() error {
	if !p.PressureUnit.Valid() {
		return fmt.Errorf("calibration profile: %w: pressureMeassureUnits missing or zero", ErrInvalidUnit)
	}
	return nil
}

// LoadProfile reads and validates a device configuration file.
func LoadProfile(path string) (*Profile, error) {
	cleanPath := filepath.Clean(path)
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("calibration profile path is required")
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("stat calibration profile: %w", err)
	}
	if info.Size() > maxProfileSize {
		return nil, fmt.Errorf("calibration profile too large: %d bytes (max %d)", info.Size(), maxProfileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read calibration profile: %w", err)
	}
	return ParseProfile(data)
}

package engine

import (
	"errors"
	"time"

	"github.com/MJE43/redsettings-go/internal/device"
)

// Version is stamped into every generated profile.
var Version = "1.4.0"

// ErrInvalidOption reports an option value the game schema does not accept.
var ErrInvalidOption = errors.New("invalid option")

// GyroMode controls the gyroscope sub-profile.
type GyroMode string

const (
	GyroOn       GyroMode = "on"
	GyroOff      GyroMode = "off"
	GyroEnhanced GyroMode = "enhanced"
)

// enhancedGyroIntensity scales gyro fields in enhanced mode.
const enhancedGyroIntensity = 1.15

// EmulatorOptions describes a desktop emulator with pointer input.
type EmulatorOptions struct {
	// DPI is the emulator's configured display density; 0 means unset.
	DPI int `json:"dpi,omitempty"`
	// PointerDPI is the mouse DPI; 0 means unset.
	PointerDPI int `json:"pointerDpi,omitempty"`
	// XSensitivity is the emulator's own horizontal multiplier; 0 means unset.
	XSensitivity float64 `json:"xSensitivity,omitempty"`
	Precision    bool    `json:"precision,omitempty"`
}

// Options are the per-request generation knobs.
type Options struct {
	Emulator     *EmulatorOptions `json:"emulator,omitempty"`
	Gyro         GyroMode         `json:"gyro,omitempty"`
	FireSize     string           `json:"fireButtonSize,omitempty"`
	RotationMode string           `json:"rotationMode,omitempty"`
	Vehicle      *int             `json:"vehicle,omitempty"`
}

// Profile is one generated settings profile.
type Profile struct {
	Game          string             `json:"game"`
	GameName      string             `json:"gameName"`
	Style         string             `json:"style"`
	Base          int                `json:"base"`
	Values        map[string]int     `json:"values"`
	Jitter        map[string]float64 `json:"jitter"`
	GyroMode      GyroMode           `json:"gyroMode,omitempty"`
	FireSize      string             `json:"fireButtonSize,omitempty"`
	RotationMode  string             `json:"rotationMode,omitempty"`
	Emulator      bool               `json:"emulator"`
	Device        device.Profile     `json:"device"`
	RefreshRate   int                `json:"refreshRate"`
	GeneratedAt   time.Time          `json:"generatedAt"`
	EngineVersion string             `json:"engineVersion"`
	Description   string             `json:"description,omitempty"`
	Tips          []string           `json:"tips,omitempty"`
}

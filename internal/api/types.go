package api

import (
	"github.com/MJE43/redsettings-go/internal/device"
	"github.com/MJE43/redsettings-go/internal/games"
)

// EngineError is the body of every error response.
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types
const (
	// Input validation errors
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeInvalidOption = "invalid_option"
	ErrTypeValidation    = "validation_error"

	// Lookup errors
	ErrTypeGameNotFound    = "game_not_found"
	ErrTypeStyleNotFound   = "style_not_found"
	ErrTypeDeviceNotFound  = "device_not_found"
	ErrTypeProfileNotFound = "profile_not_found"

	// System errors
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory groups error types for logging.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidParams, ErrTypeInvalidOption, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeGameNotFound, ErrTypeStyleNotFound, ErrTypeDeviceNotFound, ErrTypeProfileNotFound:
		return CategoryNotFound
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// GamesResponse lists the supported games.
type GamesResponse struct {
	Games         []games.Summary `json:"games"`
	EngineVersion string          `json:"engine_version"`
}

// DeviceResponse carries a session device profile.
type DeviceResponse struct {
	Device        device.Profile `json:"device"`
	EngineVersion string         `json:"engine_version"`
}

// ValidateRequest asks for a validation report on raw values.
type ValidateRequest struct {
	Game   string         `json:"game"`
	Values map[string]int `json:"values"`
}

package enums

import "fmt"

// CaptureMode controls whether the gateway captures funds immediately or
// waits for an explicit confirmation.
type CaptureMode string

const (
	CaptureModeAutomatic CaptureMode = "automatic"
	CaptureModeManual    CaptureMode = "manual"
)

// String implements fmt.Stringer.
func (c CaptureMode) String() string {
	return string(c)
}

// IsValid reports whether the capture mode is recognized.
func (c CaptureMode) IsValid() bool {
	return c == CaptureModeAutomatic || c == CaptureModeManual
}

// ParseCaptureMode converts a raw string into a CaptureMode.
func ParseCaptureMode(value string) (CaptureMode, error) {
	switch CaptureMode(value) {
	case CaptureModeAutomatic:
		return CaptureModeAutomatic, nil
	case CaptureModeManual:
		return CaptureModeManual, nil
	default:
		return "", fmt.Errorf("invalid capture mode %q", value)
	}
}

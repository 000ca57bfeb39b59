package analysis

import (
	"errors"
	"fmt"
)

// Analysis errors
var (
	// ErrInputTooShort is returned when the payload cannot cover the feature windows
	ErrInputTooShort = errors.New("image payload too short")
	// ErrInvalidPayload is returned for strings that are not base64 image data
	ErrInvalidPayload = errors.New("invalid image payload")
	// ErrInsufficientData is returned by trend analysis with fewer than MinTrendSamples samples.
	// It is an expected condition, callers should ask for more samples.
	ErrInsufficientData = errors.New("insufficient data for trend analysis")
)

// InputTooShortError carries the size details of a rejected payload
type InputTooShortError struct {
	Length   int
	Required int
}

// Error returns the error message
func (e *InputTooShortError) Error() string {
	return fmt.Sprintf("%s: got %d characters, need at least %d", ErrInputTooShort, e.Length, e.Required)
}

// Is makes errors.Is(err, ErrInputTooShort) match
func (e *InputTooShortError) Is(target error) bool {
	return target == ErrInputTooShort
}

// InsufficientDataError carries the number of samples that were supplied
type InsufficientDataError struct {
	Have int
	Need int
}

// Error returns the error message
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: have %d samples, need at least %d", ErrInsufficientData, e.Have, e.Need)
}

// Is makes errors.Is(err, ErrInsufficientData) match
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

package speechtotext

import "fmt"

// Well-known stream error codes. Backends map their own identifiers onto
// these; any other code is treated as fatal by default.
const (
	CodeNoSpeech = "no-speech"
	CodeCanceled = "canceled"
)

// StreamError is a transcription stream failure tagged with a
// backend-agnostic code so callers can allow-list benign conditions.
type StreamError struct {
	Code    string
	Message string
}

func (e *StreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("transcription stream error (%s)", e.Code)
	}
	return fmt.Sprintf("transcription stream error (%s): %s", e.Code, e.Message)
}

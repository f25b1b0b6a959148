package turntaking

import "fmt"

// DeviceUnavailableError reports that the audio capture device could not
// be acquired after the bounded retry loop was exhausted. Fatal to the
// current turn; the engine falls back to idle so the user can type
// instead.
type DeviceUnavailableError struct {
	Attempts int
	Err      error
}

func (e *DeviceUnavailableError) Error() string {
	return fmt.Sprintf("audio capture device unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DeviceUnavailableError) Unwrap() error { return e.Err }

// RecognitionError reports a non-benign transcription backend failure.
// The session is torn down and the engine falls back to idle.
type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition failed: %v", e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// CompletionError reports a failed assistant call. The turn is lost but
// the conversation is not; the engine resumes listening.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("assistant completion failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

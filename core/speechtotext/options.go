package speechtotext

import "github.com/tandemvoice/tandem-core/core/audio"

type TranscriptionOptions struct {
	PartialTranscriptCallback func(transcript string)
	FinalTranscriptCallback   func(transcript string)

	// ErrorCallback receives backend stream errors. Benign conditions
	// (e.g. no speech yet, deliberate cancellation) are reported with a
	// code so the caller can decide to swallow them.
	ErrorCallback func(err error)

	LanguageCode string
	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithPartialTranscriptCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.PartialTranscriptCallback = callback
	}
}

func WithFinalTranscriptCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.FinalTranscriptCallback = callback
	}
}

func WithErrorCallback(callback func(err error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ErrorCallback = callback
	}
}

func WithLanguageCode(languageCode string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.LanguageCode = languageCode
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}

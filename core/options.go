package turntaking

import (
	"context"

	"github.com/tandemvoice/tandem-core/core/audio"
	"github.com/tandemvoice/tandem-core/core/llms"
	"github.com/tandemvoice/tandem-core/core/speechtotext"
	"github.com/tandemvoice/tandem-core/core/texttospeech"
)

type EngineOption func(*Engine)

type Recognizer interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

func WithRecognizer(client Recognizer) EngineOption {
	return func(e *Engine) { e.recognition.set(client) }
}

type AudioInput interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

func WithAudioInput(client AudioInput) EngineOption {
	return func(e *Engine) { e.audioIn.Set(client) }
}

type CompletionClient interface {
	Complete(ctx context.Context, userText string, opts ...llms.PromptOption) (string, error)
}

func WithCompletionClient(client CompletionClient) EngineOption {
	return func(e *Engine) { e.completion.set(client) }
}

type SpeechPlayer interface {
	Speak(ctx context.Context, text string, opts ...texttospeech.SpeakOption) error
	Stop() error
}

func WithSpeechPlayer(client SpeechPlayer) EngineOption {
	return func(e *Engine) { e.player.set(client) }
}

func WithVADConfig(config VADConfig) EngineOption {
	return func(e *Engine) { e.vad.setConfig(config) }
}

// WithBenignRecognitionCodes replaces the set of backend error codes
// treated as expected noise instead of recognition failures.
func WithBenignRecognitionCodes(codes ...string) EngineOption {
	return func(e *Engine) { e.recognition.setBenignCodes(codes...) }
}

type RunOption func(*runOptions)

type runOptions struct {
	partialTranscriptCallback func(text string)
	modeChangedCallback       func(mode Mode)
	assistantResponseCallback func(text string)
	errorCallback             func(err error)
	voiceActivityCallback     func(active bool)
}

// WithPartialTranscriptCallback is called with the accumulating pending
// text every time recognition produces a transcript update.
func WithPartialTranscriptCallback(callback func(text string)) RunOption {
	return func(o *runOptions) { o.partialTranscriptCallback = callback }
}

func WithModeChangedCallback(callback func(mode Mode)) RunOption {
	return func(o *runOptions) { o.modeChangedCallback = callback }
}

func WithAssistantResponseCallback(callback func(text string)) RunOption {
	return func(o *runOptions) { o.assistantResponseCallback = callback }
}

func WithErrorCallback(callback func(err error)) RunOption {
	return func(o *runOptions) { o.errorCallback = callback }
}

// WithVoiceActivityCallback reports voice phase edges, true when voice
// starts and false when silence starts.
func WithVoiceActivityCallback(callback func(active bool)) RunOption {
	return func(o *runOptions) { o.voiceActivityCallback = callback }
}

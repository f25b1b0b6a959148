package turntaking

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tandemvoice/tandem-core/core/audio"
	"github.com/tandemvoice/tandem-core/core/llms"
	"github.com/tandemvoice/tandem-core/core/speechtotext"
	"github.com/tandemvoice/tandem-core/core/texttospeech"
)

type recognizerStub struct {
	mu           sync.Mutex
	transcribe   func(opts speechtotext.TranscriptionOptions) error
	lastOpts     speechtotext.TranscriptionOptions
	startCalls   atomic.Int32
	audioBuffers atomic.Int32
}

func (s *recognizerStub) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	s.startCalls.Add(1)

	options := speechtotext.TranscriptionOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	s.lastOpts = options
	s.mu.Unlock()

	if s.transcribe != nil {
		return s.transcribe(options)
	}
	return nil
}

func (s *recognizerStub) SendAudio(audio []byte) error {
	s.audioBuffers.Add(1)
	return nil
}

func (s *recognizerStub) options() speechtotext.TranscriptionOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOpts
}

type audioInputStub struct {
	startCalls atomic.Int32
	stopCalls  atomic.Int32
	closeCalls atomic.Int32

	// failStarts rejects this many StartCapture calls before succeeding.
	failStarts atomic.Int32

	mu      sync.Mutex
	onAudio func(audio []byte)
}

type errDeviceBusy struct{}

func (errDeviceBusy) Error() string { return "device busy" }

func (s *audioInputStub) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	s.startCalls.Add(1)

	if s.failStarts.Load() > 0 {
		s.failStarts.Add(-1)
		return errDeviceBusy{}
	}

	s.mu.Lock()
	s.onAudio = onAudio
	s.mu.Unlock()
	return nil
}

func (s *audioInputStub) StopCapture() error {
	s.stopCalls.Add(1)
	return nil
}

func (s *audioInputStub) Close() error {
	s.closeCalls.Add(1)
	return nil
}

func (s *audioInputStub) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

type completionStub struct {
	mu       sync.Mutex
	response string
	err      error
	complete func(ctx context.Context) (string, error)
	prompts  []string
	options  []llms.PromptOptions
}

func (s *completionStub) Complete(ctx context.Context, userText string, opts ...llms.PromptOption) (string, error) {
	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, userText)
	s.options = append(s.options, options)
	complete := s.complete
	s.mu.Unlock()

	if complete != nil {
		return complete(ctx)
	}
	return s.response, s.err
}

func (s *completionStub) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	prompts := make([]string, len(s.prompts))
	copy(prompts, s.prompts)
	return prompts
}

type speechPlayerStub struct {
	mu        sync.Mutex
	spoken    []string
	languages []string
	err       error
	stopCalls atomic.Int32
}

func (s *speechPlayerStub) Speak(ctx context.Context, text string, opts ...texttospeech.SpeakOption) error {
	options := texttospeech.SpeakOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.languages = append(s.languages, options.LanguageCode)
	s.mu.Unlock()

	return s.err
}

func (s *speechPlayerStub) Stop() error {
	s.stopCalls.Add(1)
	return nil
}

func (s *speechPlayerStub) spokenTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := make([]string, len(s.spoken))
	copy(texts, s.spoken)
	return texts
}

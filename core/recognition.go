package turntaking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tandemvoice/tandem-core/core/events"
	"github.com/tandemvoice/tandem-core/core/speechtotext"
)

type RecognitionPhase string

const (
	RecognitionStarting  RecognitionPhase = "starting"
	RecognitionListening RecognitionPhase = "listening"
	RecognitionStopped   RecognitionPhase = "stopped"
	RecognitionFailed    RecognitionPhase = "failed"
)

// RecognitionState is a point-in-time snapshot of the recognition
// session, readable from outside the engine.
type RecognitionState struct {
	SessionID       string
	LanguageCode    string
	Phase           RecognitionPhase
	FailureReason   string
	LastPartialText string
	IsFinal         bool
}

const (
	recognitionStartAttempts = 3
	recognitionStartBackoff  = 500 * time.Millisecond
)

// recognitionSession bridges to the streaming transcription backend with
// bounded retry on startup. It republishes partial and final transcripts
// as events and swallows allow-listed benign backend errors. It never
// decides when to stop on semantic grounds; that belongs to the engine.
type recognitionSession struct {
	// client stores the configured transcription implementation.
	client Recognizer
	// audioIn owns the capture device the stream is fed from.
	audioIn *audioInput

	emit eventEmitter

	// benignCodes identify backend errors that are expected noise rather
	// than failures.
	benignCodes map[string]struct{}

	// backoff pauses between start attempts; replaced in tests.
	backoff func(ctx context.Context, d time.Duration) error

	mu            sync.Mutex
	sessionID     string
	languageCode  string
	phase         RecognitionPhase
	failureReason string
	lastPartial   string
	isFinal       bool
	cancel        context.CancelFunc
}

func defaultBenignCodes() []string {
	return []string{speechtotext.CodeNoSpeech, speechtotext.CodeCanceled}
}

func newRecognitionSession(client Recognizer, audioIn *audioInput) *recognitionSession {
	session := &recognitionSession{
		client:      client,
		audioIn:     audioIn,
		emit:        noopEventEmitter,
		benignCodes: map[string]struct{}{},
		backoff:     sleepBackoff,
		phase:       RecognitionStopped,
	}
	session.setBenignCodes(defaultBenignCodes()...)
	return session
}

func sleepBackoff(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *recognitionSession) set(client Recognizer) {
	if s != nil {
		s.client = client
	}
}

func (s *recognitionSession) setBenignCodes(codes ...string) {
	if s == nil {
		return
	}

	s.benignCodes = make(map[string]struct{}, len(codes))
	for _, code := range codes {
		s.benignCodes[code] = struct{}{}
	}
}

func (s *recognitionSession) setEventEmitter(emit eventEmitter) {
	if s != nil {
		if emit != nil {
			s.emit = emit
		} else {
			s.emit = noopEventEmitter
		}
	}
}

func (s *recognitionSession) isConfigured() bool {
	return s != nil && s.client != nil
}

// start acquires the capture device and binds it to a fresh transcription
// stream, retrying a bounded number of times with a fixed backoff.
// Rebuilds capture resources on every attempt. Blocks for the duration of
// the retry loop; cancelling ctx aborts remaining attempts.
func (s *recognitionSession) start(ctx context.Context, languageCode string) error {
	if !s.isConfigured() {
		return nil
	}

	sessionCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.sessionID = uuid.NewString()
	s.languageCode = languageCode
	s.phase = RecognitionStarting
	s.failureReason = ""
	s.lastPartial = ""
	s.isFinal = false
	s.cancel = cancel
	s.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= recognitionStartAttempts; attempt++ {
		if err := sessionCtx.Err(); err != nil {
			s.setPhase(RecognitionStopped, "")
			return err
		}

		if lastErr = s.bind(sessionCtx, languageCode); lastErr == nil {
			s.setPhase(RecognitionListening, "")
			return nil
		}

		if attempt < recognitionStartAttempts {
			if err := s.backoff(sessionCtx, recognitionStartBackoff); err != nil {
				s.setPhase(RecognitionStopped, "")
				return err
			}
		}
	}

	startErr := &DeviceUnavailableError{Attempts: recognitionStartAttempts, Err: lastErr}
	s.setPhase(RecognitionFailed, startErr.Error())
	return startErr
}

func (s *recognitionSession) bind(ctx context.Context, languageCode string) error {
	if err := s.audioIn.Capture(ctx); err != nil {
		return err
	}

	if err := s.client.Transcribe(ctx,
		speechtotext.WithLanguageCode(languageCode),
		speechtotext.WithEncodingInfo(s.audioIn.EncodingInfo()),
		speechtotext.WithPartialTranscriptCallback(s.onPartialTranscript),
		speechtotext.WithFinalTranscriptCallback(s.onFinalTranscript),
		speechtotext.WithErrorCallback(s.onStreamError),
	); err != nil {
		// Release the device so the next attempt acquires it fresh.
		_ = s.audioIn.StopCapture()
		return err
	}

	return nil
}

// stop is idempotent and safe from any phase. It cancels in-flight work
// (including a start retry loop), releases the audio device and clears
// internal state.
func (s *recognitionSession) stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.phase = RecognitionStopped
	s.failureReason = ""
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	s.closeClient()
	if s.audioIn != nil {
		_ = s.audioIn.StopCapture()
	}
}

func (s *recognitionSession) closeClient() {
	if !s.isConfigured() {
		return
	}

	switch c := s.client.(type) {
	case interface{ StopStream() error }:
		if err := c.StopStream(); err != nil {
			logger.Warn("failed to stop transcription stream", "error", err)
		}
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			logger.Warn("failed to close transcription client", "error", err)
		}
	case interface{ Close() }:
		c.Close()
	}
}

func (s *recognitionSession) sendAudio(audio []byte) {
	if !s.isConfigured() {
		return
	}

	s.mu.Lock()
	listening := s.phase == RecognitionListening
	s.mu.Unlock()
	if !listening {
		return
	}

	if err := s.client.SendAudio(audio); err != nil {
		logger.Warn("failed to forward audio to transcription backend", "error", err)
	}
}

func (s *recognitionSession) setPhase(phase RecognitionPhase, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
	s.failureReason = reason
}

func (s *recognitionSession) snapshot() RecognitionState {
	if s == nil {
		return RecognitionState{Phase: RecognitionStopped}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return RecognitionState{
		SessionID:       s.sessionID,
		LanguageCode:    s.languageCode,
		Phase:           s.phase,
		FailureReason:   s.failureReason,
		LastPartialText: s.lastPartial,
		IsFinal:         s.isFinal,
	}
}

func (s *recognitionSession) onPartialTranscript(transcript string) {
	s.mu.Lock()
	s.lastPartial = transcript
	s.isFinal = false
	s.mu.Unlock()

	s.emit(events.NewTranscriptPartial(transcript))
}

func (s *recognitionSession) onFinalTranscript(transcript string) {
	s.mu.Lock()
	s.lastPartial = transcript
	s.isFinal = true
	s.mu.Unlock()

	s.emit(events.NewTranscriptFinal(transcript))
}

// onStreamError swallows allow-listed benign codes; anything else fails
// the session and is surfaced for teardown.
func (s *recognitionSession) onStreamError(err error) {
	if s.isBenign(err) {
		return
	}

	s.mu.Lock()
	alreadyStopped := s.phase == RecognitionStopped
	if !alreadyStopped {
		s.phase = RecognitionFailed
		s.failureReason = err.Error()
	}
	s.mu.Unlock()

	if alreadyStopped {
		// Errors racing a deliberate stop are expected noise.
		return
	}

	s.emit(events.NewRecognitionFailed(&RecognitionError{Err: err}))
}

func (s *recognitionSession) isBenign(err error) bool {
	var streamErr *speechtotext.StreamError
	if !errors.As(err, &streamErr) {
		return false
	}

	_, benign := s.benignCodes[streamErr.Code]
	return benign
}

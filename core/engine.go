package turntaking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log"

	"github.com/tandemvoice/tandem-core/core/audio"
	"github.com/tandemvoice/tandem-core/core/events"
	"github.com/tandemvoice/tandem-core/core/llms"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine drives the turn-taking loop between the user and the assistant.
// Audio flows in continuously; everything that changes turn state goes
// through the serialized event queue.
type Engine struct {
	runtime *engineRuntime
	state   turnState

	// recognition owns the transcription session and its startup retries.
	recognition *recognitionSession
	// audioIn is the input facade used to normalize capture behavior.
	audioIn *audioInput
	// completion is the facade over the assistant backend.
	completion *completion
	// player is the facade over speech synthesis playback.
	player *speechPlayer

	vad      *detector
	loudness *loudnessCell

	turnsMu    sync.Mutex
	turns      []llms.Turn
	activeTurn *llms.Turn

	sessionMu     sync.Mutex
	sessionCtx    context.Context
	sessionCancel context.CancelFunc

	runOpts     runOptions
	baseContext context.Context
	closeOnce   sync.Once
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		runtime:     newEngineRuntime(),
		loudness:    &loudnessCell{},
		completion:  newCompletion(nil),
		player:      newSpeechPlayer(nil),
		baseContext: context.Background(),
	}
	e.state.mode = ModeIdle

	e.audioIn = newAudioInput(nil, e.onInputAudio)
	e.recognition = newRecognitionSession(nil, e.audioIn)
	e.recognition.setEventEmitter(e.emit)
	e.vad = newDetector(defaultVADConfig(), e.loudness, e.emit)

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// onInputAudio fans each captured buffer out to the loudness monitor and
// the recognition stream. It runs on the capture callback goroutine and
// must not block.
func (e *Engine) onInputAudio(buf []byte) {
	samples := audio.DecodeS16LE(buf)
	if level, ok := observeLoudness(samples); ok {
		e.loudness.Store(LoudnessSample{At: time.Now(), Level: level})
	}

	e.recognition.sendAudio(buf)
}

func (e *Engine) emit(event events.Event) {
	e.enqueue(event)
}

func (e *Engine) enqueue(event events.Event) bool {
	return e.runtime.enqueue(event)
}

// Run starts the engine's event loop. ctx is the base context for all
// session work; cancelling it closes the engine.
//
// Contract: call Run at most once per engine instance.
func (e *Engine) Run(ctx context.Context, opts ...RunOption) {
	if e.runtime.isClosed() {
		log.Println("Warning: engine already closed, skipping Run")
		return
	}

	e.runOpts = runOptions{}
	for _, opt := range opts {
		opt(&e.runOpts)
	}

	e.baseContext = ctx

	if started := e.runtime.start(e.handleEvent); started {
		go func() {
			<-ctx.Done()
			e.Close()
		}()
	}
}

// StartTurn begins a conversation session in the given practice language.
// It blocks through recognition startup, including its bounded retries, so
// the caller learns synchronously whether the microphone and transcription
// stream came up. On failure the engine stays idle.
func (e *Engine) StartTurn(languageCode string) error {
	if state := e.state.snapshot(); state.Mode != ModeIdle {
		return fmt.Errorf("cannot start a turn while %s", state.Mode)
	}

	sessionCtx := e.newSession()

	if err := e.recognition.start(sessionCtx, languageCode); err != nil {
		e.vad.stop()
		e.cancelSession()
		return err
	}

	e.vad.start(sessionCtx)
	e.enqueue(events.NewSessionStarted(languageCode))
	return nil
}

// Stop ends the current session. Safe to call in any mode; an in-flight
// recognition startup is aborted.
func (e *Engine) Stop() {
	e.cancelSession()
	e.enqueue(events.NewSessionStopped())
}

// EditPendingText replaces the pending user text. An edit permanently
// disarms any pending auto-send; the edited text waits for an explicit
// send.
func (e *Engine) EditPendingText(text string) {
	e.enqueue(events.NewPendingTextEdited(text))
}

// SendText submits text to the assistant. An empty string submits the
// current pending text.
func (e *Engine) SendText(text string) {
	e.enqueue(events.NewManualSend(text))
}

// State returns a point-in-time snapshot of the turn-taking loop.
func (e *Engine) State() TurnState {
	return e.state.snapshot()
}

// RecognitionState returns a point-in-time snapshot of the recognition
// session.
func (e *Engine) RecognitionState() RecognitionState {
	return e.recognition.snapshot()
}

// History returns the completed turns so far, oldest first.
func (e *Engine) History() []llms.Turn {
	e.turnsMu.Lock()
	defer e.turnsMu.Unlock()

	turns := make([]llms.Turn, len(e.turns))
	copy(turns, e.turns)
	return turns
}

func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.cancelSession()
		e.runtime.end()

		e.recognition.stop()
		e.vad.stop()
		e.player.Stop()

		if err := e.audioIn.Close(); err != nil {
			recordedErr := fmt.Errorf("failed to close audio input: %w", err)
			span := trace.SpanFromContext(e.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		e.runtime.awaitCompletion()
	})
}

func (e *Engine) newSession() context.Context {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()

	if e.sessionCancel != nil {
		e.sessionCancel()
	}

	ctx, cancel := context.WithCancel(e.baseContext)
	e.sessionCtx = ctx
	e.sessionCancel = cancel
	return ctx
}

func (e *Engine) sessionContext() context.Context {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()

	if e.sessionCtx != nil {
		return e.sessionCtx
	}
	return e.baseContext
}

func (e *Engine) cancelSession() {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()

	if e.sessionCancel != nil {
		e.sessionCancel()
		e.sessionCancel = nil
		e.sessionCtx = nil
	}
}

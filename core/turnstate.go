package turntaking

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tandemvoice/tandem-core/core/events"
	"github.com/tandemvoice/tandem-core/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Mode is the engine's position in the turn-taking loop.
type Mode string

const (
	ModeIdle           Mode = "idle"
	ModeListening      Mode = "listening"
	ModeSilencePending Mode = "silence-pending"
	ModeProcessing     Mode = "processing"
	ModeSpeaking       Mode = "speaking"
)

// TurnState is a point-in-time snapshot of the turn-taking loop.
type TurnState struct {
	Mode                      Mode
	LanguageCode              string
	PendingText               string
	HasPendingAutoSend        bool
	WasEditedAfterRecognition bool
}

// turnState holds the loop's mutable state. The event loop is the only
// writer; the lock exists so snapshots can be read from other goroutines.
type turnState struct {
	mu sync.RWMutex

	mode         Mode
	languageCode string

	pendingText string
	// hasPendingAutoSend and wasEditedAfterRecognition are mutually
	// exclusive: arming auto-send clears the edit flag and an edit disarms
	// auto-send in the same critical section.
	hasPendingAutoSend        bool
	wasEditedAfterRecognition bool

	conversationActive bool
}

func (s *turnState) snapshot() TurnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TurnState{
		Mode:                      s.mode,
		LanguageCode:              s.languageCode,
		PendingText:               s.pendingText,
		HasPendingAutoSend:        s.hasPendingAutoSend,
		WasEditedAfterRecognition: s.wasEditedAfterRecognition,
	}
}

func (s *turnState) update(mutate func(*turnState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(s)
}

// handleEvent applies one event to the turn state. It runs exclusively on
// the runtime goroutine, so transitions observe a consistent state and
// arbitration between queued events (an edit racing an armed auto-send)
// falls out of arrival order.
func (e *Engine) handleEvent(event events.Event, queuedAt time.Time) {
	switch event := event.(type) {
	case events.SessionStarted:
		e.onSessionStarted(event)
	case events.SessionStopped:
		e.onSessionStopped()
	case events.VoiceStarted:
		e.notifyVoiceActivity(true)
	case events.SilenceStarted:
		e.notifyVoiceActivity(false)
	case events.SilenceConfirmed:
		e.onSilenceConfirmed()
	case events.TranscriptPartial:
		e.onTranscript(event.Text, false)
	case events.TranscriptFinal:
		e.onTranscript(event.Text, true)
	case events.AutoSendArmed:
		e.onAutoSendArmed()
	case events.PendingTextEdited:
		e.onPendingTextEdited(event.Text)
	case events.ManualSend:
		e.onManualSend(event.Text)
	case events.AssistantResponse:
		e.onAssistantResponse(event.Text)
	case events.AssistantFailed:
		e.onAssistantFailed(event.Err)
	case events.PlaybackFinished:
		e.onPlaybackFinished()
	case events.RecognitionFailed:
		e.onRecognitionFailed(event.Err)
	default:
		logger.Warn("unhandled event", "kind", string(event.Kind()))
	}
}

func (e *Engine) setMode(mode Mode) {
	var changed bool
	e.state.update(func(s *turnState) {
		changed = s.mode != mode
		s.mode = mode
	})

	if changed && e.runOpts.modeChangedCallback != nil {
		e.runOpts.modeChangedCallback(mode)
	}
}

func (e *Engine) notifyVoiceActivity(active bool) {
	if e.runOpts.voiceActivityCallback != nil {
		e.runOpts.voiceActivityCallback(active)
	}
}

func (e *Engine) surfaceError(err error) {
	if err == nil {
		return
	}

	if e.runOpts.errorCallback != nil {
		e.runOpts.errorCallback(err)
	} else {
		logger.Warn("unhandled engine error", "error", err)
	}
}

func (e *Engine) onSessionStarted(event events.SessionStarted) {
	e.state.update(func(s *turnState) {
		s.languageCode = event.LanguageCode
		s.pendingText = ""
		s.hasPendingAutoSend = false
		s.wasEditedAfterRecognition = false
		s.conversationActive = true
	})
	e.setMode(ModeListening)
}

func (e *Engine) onSessionStopped() {
	e.recognition.stop()
	e.vad.stop()
	e.player.Stop()
	e.discardActiveTurn()

	e.state.update(func(s *turnState) {
		s.pendingText = ""
		s.hasPendingAutoSend = false
		s.wasEditedAfterRecognition = false
		s.conversationActive = false
	})
	e.setMode(ModeIdle)
}

func (e *Engine) onTranscript(text string, isFinal bool) {
	state := e.state.snapshot()
	if state.Mode != ModeListening {
		return
	}

	e.state.update(func(s *turnState) { s.pendingText = text })
	if e.runOpts.partialTranscriptCallback != nil {
		e.runOpts.partialTranscriptCallback(text)
	}
}

// onSilenceConfirmed ends the listening window. Auto-send is armed through
// the queue rather than submitted directly so edits already waiting in the
// queue get to disarm it first.
func (e *Engine) onSilenceConfirmed() {
	state := e.state.snapshot()
	if state.Mode != ModeListening {
		return
	}

	e.recognition.stop()
	e.vad.stop()
	e.setMode(ModeSilencePending)

	if state.PendingText == "" {
		return
	}

	e.state.update(func(s *turnState) {
		s.hasPendingAutoSend = true
		s.wasEditedAfterRecognition = false
	})
	e.enqueue(events.NewAutoSendArmed())
}

func (e *Engine) onAutoSendArmed() {
	state := e.state.snapshot()
	if state.Mode != ModeSilencePending || !state.HasPendingAutoSend {
		return
	}

	e.submit(state.PendingText)
}

func (e *Engine) onPendingTextEdited(text string) {
	state := e.state.snapshot()
	if state.Mode != ModeListening && state.Mode != ModeSilencePending {
		return
	}

	e.state.update(func(s *turnState) {
		s.pendingText = text
		if s.hasPendingAutoSend {
			s.hasPendingAutoSend = false
			s.wasEditedAfterRecognition = true
		}
	})
}

func (e *Engine) onManualSend(text string) {
	state := e.state.snapshot()
	if state.Mode != ModeListening && state.Mode != ModeSilencePending {
		return
	}

	if text == "" {
		text = state.PendingText
	}
	if text == "" {
		return
	}

	if state.Mode == ModeListening {
		e.recognition.stop()
		e.vad.stop()
	}

	e.submit(text)
}

// submit hands the user's text to the completion backend and moves the
// loop to processing. Pending-text state is consumed atomically with the
// transition.
func (e *Engine) submit(text string) {
	e.state.update(func(s *turnState) {
		s.pendingText = ""
		s.hasPendingAutoSend = false
		s.wasEditedAfterRecognition = false
	})
	e.setMode(ModeProcessing)

	state := e.state.snapshot()
	priorTurns := e.History()

	e.turnsMu.Lock()
	e.activeTurn = &llms.Turn{
		ID:        uuid.NewString(),
		UserText:  text,
		StartedAt: time.Now(),
	}
	e.turnsMu.Unlock()

	ctx := e.sessionContext()
	go func() {
		ctx, span := tracer.Start(ctx, "generate response")
		defer span.End()
		span.SetAttributes(attribute.String("turn.language", state.LanguageCode))

		response, err := e.completion.Complete(ctx, text, state.LanguageCode, priorTurns)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if ctx.Err() == nil {
				e.enqueue(events.NewAssistantFailed(&CompletionError{Err: err}))
			}
			return
		}
		e.enqueue(events.NewAssistantResponse(response))
	}()
}

func (e *Engine) onAssistantResponse(text string) {
	state := e.state.snapshot()
	if state.Mode != ModeProcessing {
		return
	}

	e.turnsMu.Lock()
	if e.activeTurn != nil {
		e.activeTurn.AssistantText = text
		e.activeTurn.EndedAt = time.Now()
		e.turns = append(e.turns, *e.activeTurn)
		e.activeTurn = nil
	}
	e.turnsMu.Unlock()

	e.setMode(ModeSpeaking)
	if e.runOpts.assistantResponseCallback != nil {
		e.runOpts.assistantResponseCallback(text)
	}

	ctx := e.sessionContext()
	go func() {
		if err := e.player.Speak(ctx, text, state.LanguageCode); err != nil && ctx.Err() == nil {
			e.surfaceError(err)
		}
		e.enqueue(events.NewPlaybackFinished())
	}()
}

// onAssistantFailed surfaces the failure and returns to listening so the
// user can retry, rather than tearing the session down.
func (e *Engine) onAssistantFailed(err error) {
	e.surfaceError(err)
	e.discardActiveTurn()

	state := e.state.snapshot()
	if state.Mode != ModeProcessing {
		return
	}

	e.resumeListening()
}

func (e *Engine) onPlaybackFinished() {
	state := e.state.snapshot()
	if state.Mode != ModeSpeaking {
		return
	}

	e.state.mu.RLock()
	active := e.state.conversationActive
	e.state.mu.RUnlock()

	if active {
		e.resumeListening()
	} else {
		e.setMode(ModeIdle)
	}
}

func (e *Engine) onRecognitionFailed(err error) {
	e.surfaceError(err)

	e.recognition.stop()
	e.vad.stop()
	e.player.Stop()
	e.discardActiveTurn()
	e.cancelSession()

	e.state.update(func(s *turnState) {
		s.pendingText = ""
		s.hasPendingAutoSend = false
		s.wasEditedAfterRecognition = false
		s.conversationActive = false
	})
	e.setMode(ModeIdle)
}

// resumeListening restarts recognition and voice detection for the next
// user turn. The restart runs off-loop; a startup failure comes back in
// through the queue like any other recognition failure.
func (e *Engine) resumeListening() {
	e.state.update(func(s *turnState) {
		s.pendingText = ""
		s.hasPendingAutoSend = false
		s.wasEditedAfterRecognition = false
	})
	state := e.state.snapshot()
	e.setMode(ModeListening)

	ctx := e.sessionContext()
	go func() {
		if err := e.recognition.start(ctx, state.LanguageCode); err != nil {
			if ctx.Err() == nil {
				e.enqueue(events.NewRecognitionFailed(err))
			}
			return
		}
		e.vad.start(ctx)
	}()
}

func (e *Engine) discardActiveTurn() {
	e.turnsMu.Lock()
	e.activeTurn = nil
	e.turnsMu.Unlock()
}

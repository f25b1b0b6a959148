package events

import "time"

type Kind string

const (
	KindVoiceStarted     Kind = "user.voice-started"
	KindSilenceStarted   Kind = "user.silence-started"
	KindSilenceConfirmed Kind = "user.silence-confirmed"

	KindTranscriptPartial Kind = "user.transcript-partial"
	KindTranscriptFinal   Kind = "user.transcript-final"
	KindPendingTextEdited Kind = "user.pending-text-edited"
	KindManualSend        Kind = "user.manual-send"

	KindAutoSendArmed     Kind = "engine.auto-send-armed"
	KindSessionStarted    Kind = "engine.session-started"
	KindSessionStopped    Kind = "engine.session-stopped"
	KindRecognitionFailed Kind = "engine.recognition-failed"

	KindAssistantResponse Kind = "assistant.response"
	KindAssistantFailed   Kind = "assistant.failed"
	KindPlaybackFinished  Kind = "assistant.playback-finished"
)

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}

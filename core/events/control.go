package events

// AutoSendArmed is queued by the engine right after silence is confirmed
// with non-empty recognized text. Keeping arbitration as a separate queued
// event gives already-enqueued edits a chance to disarm auto-send before
// the text is submitted.
type AutoSendArmed struct{ Base }

func (e AutoSendArmed) String() string { return "Auto-Send Armed" }

func NewAutoSendArmed() AutoSendArmed {
	return AutoSendArmed{Base: NewBase(KindAutoSendArmed)}
}

type SessionStarted struct {
	Base
	LanguageCode string
}

func (e SessionStarted) String() string { return "Session Started" }

func NewSessionStarted(languageCode string) SessionStarted {
	return SessionStarted{Base: NewBase(KindSessionStarted), LanguageCode: languageCode}
}

type SessionStopped struct{ Base }

func (e SessionStopped) String() string { return "Session Stopped" }

func NewSessionStopped() SessionStopped {
	return SessionStopped{Base: NewBase(KindSessionStopped)}
}

// RecognitionFailed reports a non-benign transcription backend failure.
// The engine tears the session down and falls back to idle.
type RecognitionFailed struct {
	Base
	Err error
}

func (e RecognitionFailed) String() string { return "Recognition Failed" }

func NewRecognitionFailed(err error) RecognitionFailed {
	return RecognitionFailed{Base: NewBase(KindRecognitionFailed), Err: err}
}

package events

type VoiceStarted struct{ Base }

func (e VoiceStarted) String() string { return "Voice Started" }

func NewVoiceStarted() VoiceStarted {
	return VoiceStarted{Base: NewBase(KindVoiceStarted)}
}

type SilenceStarted struct{ Base }

func (e SilenceStarted) String() string { return "Silence Started" }

func NewSilenceStarted() SilenceStarted {
	return SilenceStarted{Base: NewBase(KindSilenceStarted)}
}

type SilenceConfirmed struct{ Base }

func (e SilenceConfirmed) String() string { return "Silence Confirmed" }

func NewSilenceConfirmed() SilenceConfirmed {
	return SilenceConfirmed{Base: NewBase(KindSilenceConfirmed)}
}

type TranscriptPartial struct {
	Base
	Text string
}

func (e TranscriptPartial) String() string { return e.Text + "..." }

func NewTranscriptPartial(text string) TranscriptPartial {
	return TranscriptPartial{Base: NewBase(KindTranscriptPartial), Text: text}
}

type TranscriptFinal struct {
	Base
	Text string
}

func (e TranscriptFinal) String() string { return e.Text }

func NewTranscriptFinal(text string) TranscriptFinal {
	return TranscriptFinal{Base: NewBase(KindTranscriptFinal), Text: text}
}

// PendingTextEdited reports an external edit of the recognized text. By
// contract it always clears any pending auto-send.
type PendingTextEdited struct {
	Base
	Text string
}

func (e PendingTextEdited) String() string { return "Pending Text Edited" }

func NewPendingTextEdited(text string) PendingTextEdited {
	return PendingTextEdited{Base: NewBase(KindPendingTextEdited), Text: text}
}

// ManualSend carries an explicit user submission, bypassing auto-send.
type ManualSend struct {
	Base
	Text string
}

func (e ManualSend) String() string { return "Manual Send" }

func NewManualSend(text string) ManualSend {
	return ManualSend{Base: NewBase(KindManualSend), Text: text}
}

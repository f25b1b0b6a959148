package events

type AssistantResponse struct {
	Base
	Text string
}

func (e AssistantResponse) String() string { return e.Text }

func NewAssistantResponse(text string) AssistantResponse {
	return AssistantResponse{Base: NewBase(KindAssistantResponse), Text: text}
}

type AssistantFailed struct {
	Base
	Err error
}

func (e AssistantFailed) String() string { return "Assistant Failed" }

func NewAssistantFailed(err error) AssistantFailed {
	return AssistantFailed{Base: NewBase(KindAssistantFailed), Err: err}
}

type PlaybackFinished struct{ Base }

func (e PlaybackFinished) String() string { return "Playback Finished" }

func NewPlaybackFinished() PlaybackFinished {
	return PlaybackFinished{Base: NewBase(KindPlaybackFinished)}
}

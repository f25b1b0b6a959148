package texttospeech

import "github.com/tandemvoice/tandem-core/core/audio"

type SpeakOptions struct {
	// AudioCallback receives synthesized audio chunks as they arrive.
	AudioCallback func(audio []byte)
	// ErrorCallback receives stream-level synthesis errors.
	ErrorCallback func(err error)

	LanguageCode string
	Voice        string
	EncodingInfo audio.EncodingInfo
}

type SpeakOption func(*SpeakOptions)

func WithAudioCallback(callback func(audio []byte)) SpeakOption {
	return func(o *SpeakOptions) {
		o.AudioCallback = callback
	}
}

func WithErrorCallback(callback func(err error)) SpeakOption {
	return func(o *SpeakOptions) {
		o.ErrorCallback = callback
	}
}

func WithLanguageCode(languageCode string) SpeakOption {
	return func(o *SpeakOptions) {
		o.LanguageCode = languageCode
	}
}

func WithVoice(voice string) SpeakOption {
	return func(o *SpeakOptions) {
		o.Voice = voice
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SpeakOption {
	return func(o *SpeakOptions) {
		o.EncodingInfo = encodingInfo
	}
}

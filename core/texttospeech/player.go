package texttospeech

import (
	"context"
	"fmt"
)

// Synthesizer turns text into audio chunks delivered through the
// AudioCallback option and returns once the utterance is fully flushed.
type Synthesizer interface {
	Speak(ctx context.Context, text string, opts ...SpeakOption) error
	Stop() error
}

// AudioOutput accepts synthesized audio for playback.
type AudioOutput interface {
	SendAudio(audio []byte) error
}

// Player binds a synthesizer to a playback device. It implements the
// engine's speech-player contract: Speak blocks until the utterance has
// been delivered, Stop cancels immediately.
type Player struct {
	synthesizer Synthesizer
	output      AudioOutput
}

func NewPlayer(synthesizer Synthesizer, output AudioOutput) *Player {
	return &Player{synthesizer: synthesizer, output: output}
}

func (p *Player) Speak(ctx context.Context, text string, opts ...SpeakOption) error {
	if p == nil || p.synthesizer == nil {
		return nil
	}

	if p.output != nil {
		opts = append(opts, WithAudioCallback(func(audio []byte) {
			_ = p.output.SendAudio(audio)
		}))
	}

	if err := p.synthesizer.Speak(ctx, text, opts...); err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	return nil
}

func (p *Player) Stop() error {
	if p == nil || p.synthesizer == nil {
		return nil
	}
	return p.synthesizer.Stop()
}

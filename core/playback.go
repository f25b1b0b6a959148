package turntaking

import (
	"context"

	"github.com/tandemvoice/tandem-core/core/texttospeech"
)

// speechPlayer is the facade over the configured synthesis player. When no
// player is configured, speaking completes immediately so the turn loop
// still advances.
type speechPlayer struct {
	client SpeechPlayer
}

func newSpeechPlayer(client SpeechPlayer) *speechPlayer {
	return &speechPlayer{client: client}
}

func (p *speechPlayer) set(client SpeechPlayer) {
	if p != nil {
		p.client = client
	}
}

func (p *speechPlayer) isConfigured() bool {
	return p != nil && p.client != nil
}

func (p *speechPlayer) Speak(ctx context.Context, text string, languageCode string) error {
	if !p.isConfigured() {
		return nil
	}

	return p.client.Speak(ctx, text, texttospeech.WithLanguageCode(languageCode))
}

func (p *speechPlayer) Stop() {
	if !p.isConfigured() {
		return
	}

	if err := p.client.Stop(); err != nil {
		logger.Warn("failed to stop speech playback", "error", err)
	}
}

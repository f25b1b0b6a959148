package turntaking

import (
	"context"
	"sync/atomic"

	"github.com/tandemvoice/tandem-core/core/audio"
)

// audioInput is the facade that normalizes capture behavior over whatever
// device client was configured. Capture is always subordinate to the
// engine; the device never self-starts.
type audioInput struct {
	// client stores the configured capture implementation.
	client AudioInput

	// connected reports whether a concrete input client is configured.
	connected atomic.Bool
	// isCapturing reports whether the input client is currently capturing.
	isCapturing atomic.Bool

	// onInputAudio is called for every captured buffer.
	onInputAudio func(audio []byte)
}

func newAudioInput(client AudioInput, onInputAudio func(audio []byte)) *audioInput {
	if onInputAudio == nil {
		onInputAudio = func(audio []byte) {}
	}

	audioInput := audioInput{onInputAudio: onInputAudio}
	audioInput.Set(client)
	return &audioInput
}

func (a *audioInput) Set(client AudioInput) {
	if a == nil {
		return
	}

	a.client = client
	a.connected.Store(client != nil)
	a.isCapturing.Store(false)
}

func (a *audioInput) IsConfigured() bool { return a != nil && a.connected.Load() }
func (a *audioInput) IsCapturing() bool  { return a != nil && a.isCapturing.Load() }

// Capture acquires the device and starts delivering buffers. The error is
// returned synchronously so a failed acquisition can be retried by the
// caller with fresh resources.
func (a *audioInput) Capture(ctx context.Context) error {
	if !a.IsConfigured() {
		return nil
	}

	if !a.isCapturing.CompareAndSwap(false, true) {
		return nil
	}

	if err := a.client.StartCapture(ctx, a.onAudio); err != nil {
		a.isCapturing.Store(false)
		return err
	}
	return nil
}

func (a *audioInput) StopCapture() error {
	if !a.IsConfigured() {
		return nil
	}

	if !a.isCapturing.CompareAndSwap(true, false) {
		return nil
	}

	return a.client.StopCapture()
}

func (a *audioInput) Close() error {
	if !a.IsConfigured() {
		return nil
	}

	err := a.StopCapture()

	switch c := a.client.(type) {
	case interface{ Close() error }:
		if closeErr := c.Close(); err == nil {
			err = closeErr
		}
	case interface{ Close() }:
		c.Close()
	}

	a.connected.Store(false)
	return err
}

func (a *audioInput) EncodingInfo() audio.EncodingInfo {
	if a == nil || a.client == nil {
		return audio.GetDefaultEncodingInfo()
	}

	return a.client.EncodingInfo()
}

func (a *audioInput) onAudio(audio []byte) {
	if !a.isCapturing.Load() {
		return
	}

	a.onInputAudio(audio)
}

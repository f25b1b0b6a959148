//go:build cgo

package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/tandemvoice/tandem-core/core/audio"
)

// Client exposes the default capture and playback devices through
// miniaudio. It implements both the engine's audio-input contract and the
// audio-output side used for assistant speech playback.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("malgo InitContext failed: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
	}

	if err := client.playbackClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	return &client, nil
}

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	// Capture resources are rebuilt on every start so a failed device
	// acquisition can be retried from scratch.
	if err := c.captureClient.Init(c.audioContext); err != nil {
		return fmt.Errorf("failed to initialize capture client: %w", err)
	}
	if err := c.captureClient.Start(onAudio); err != nil {
		_ = c.captureClient.Uninit()
		return err
	}
	return nil
}

func (c *Client) StopCapture() error {
	if err := c.captureClient.Stop(); err != nil {
		return err
	}
	return c.captureClient.Uninit()
}

func (c *Client) SendAudio(audio []byte) error {
	return c.playbackClient.SendAudio(audio)
}

func (c *Client) StopPlayback() error {
	return c.playbackClient.Stop()
}

func (c *Client) Close() {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

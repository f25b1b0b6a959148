//go:build cgo

package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/tandemvoice/tandem-core/core/audio"
)

const defaultBufferSize = 1024

// Client captures microphone audio through PortAudio. It is an
// alternative capture backend to the miniaudio client; capture resources
// are opened on StartCapture and torn down on StopCapture so a failed
// acquisition can be retried from scratch.
type Client struct {
	bufferSize int

	mu     sync.Mutex
	stream *portaudio.Stream
	in     []int16
	cancel context.CancelFunc
	done   chan struct{}
}

func NewClient(bufferSize int) (*Client, error) {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &Client{bufferSize: bufferSize}, nil
}

func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return nil
	}

	in := make([]int16, c.bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, c.bufferSize, in)
	if err != nil {
		return fmt.Errorf("failed to open PortAudio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start PortAudio stream: %w", err)
	}

	captureCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.stream = stream
	c.in = in
	c.cancel = cancel
	c.done = done

	go func() {
		defer close(done)
		for {
			select {
			case <-captureCtx.Done():
				return
			default:
				if err := stream.Read(); err != nil {
					log.Printf("Failed to read from PortAudio stream: %v", err)
					continue
				}

				audioBuffer := bytes.Buffer{}
				binary.Write(&audioBuffer, binary.LittleEndian, in)
				onAudio(audioBuffer.Bytes())
			}
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}

	c.cancel()
	<-c.done

	err := c.stream.Stop()
	c.stream.Close()
	c.stream = nil
	c.cancel = nil
	c.done = nil

	if err != nil {
		return fmt.Errorf("failed to stop PortAudio stream: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	_ = c.StopCapture()
	portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

package turntaking

import (
	"context"
	"testing"
)

func TestAudioInputUnconfiguredIsInert(t *testing.T) {
	input := newAudioInput(nil, nil)

	if input.IsConfigured() {
		t.Fatalf("expected unconfigured input to report not configured")
	}
	if err := input.Capture(context.Background()); err != nil {
		t.Fatalf("expected capture on unconfigured input to be a no-op, got %v", err)
	}
	if err := input.StopCapture(); err != nil {
		t.Fatalf("expected stop on unconfigured input to be a no-op, got %v", err)
	}
	if err := input.Close(); err != nil {
		t.Fatalf("expected close on unconfigured input to be a no-op, got %v", err)
	}
}

func TestAudioInputCaptureStartsOnce(t *testing.T) {
	device := &audioInputStub{}
	input := newAudioInput(device, func([]byte) {})

	if err := input.Capture(context.Background()); err != nil {
		t.Fatalf("unexpected capture error: %v", err)
	}
	if err := input.Capture(context.Background()); err != nil {
		t.Fatalf("unexpected repeated capture error: %v", err)
	}

	if got := device.startCalls.Load(); got != 1 {
		t.Fatalf("expected a single device start, got %d", got)
	}
	if !input.IsCapturing() {
		t.Fatalf("expected input to report capturing")
	}
}

func TestAudioInputCaptureFailureAllowsRetry(t *testing.T) {
	device := &audioInputStub{}
	device.failStarts.Store(1)
	input := newAudioInput(device, func([]byte) {})

	if err := input.Capture(context.Background()); err == nil {
		t.Fatalf("expected first capture to fail")
	}
	if input.IsCapturing() {
		t.Fatalf("expected failed capture to leave input not capturing")
	}

	if err := input.Capture(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := device.startCalls.Load(); got != 2 {
		t.Fatalf("expected two device starts, got %d", got)
	}
}

func TestAudioInputDropsBuffersWhenNotCapturing(t *testing.T) {
	received := 0
	device := &audioInputStub{}
	input := newAudioInput(device, func([]byte) { received++ })

	input.onAudio([]byte{0x00})
	if received != 0 {
		t.Fatalf("expected buffers to be dropped before capture starts")
	}

	if err := input.Capture(context.Background()); err != nil {
		t.Fatalf("unexpected capture error: %v", err)
	}
	input.onAudio([]byte{0x00})
	if received != 1 {
		t.Fatalf("expected buffer to be forwarded while capturing, got %d", received)
	}

	if err := input.StopCapture(); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	input.onAudio([]byte{0x00})
	if received != 1 {
		t.Fatalf("expected buffers to be dropped after stop, got %d", received)
	}
}

func TestAudioInputCloseReleasesDevice(t *testing.T) {
	device := &audioInputStub{}
	input := newAudioInput(device, func([]byte) {})

	if err := input.Capture(context.Background()); err != nil {
		t.Fatalf("unexpected capture error: %v", err)
	}
	if err := input.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	if got := device.stopCalls.Load(); got != 1 {
		t.Fatalf("expected capture to stop before close, got %d stops", got)
	}
	if got := device.closeCalls.Load(); got != 1 {
		t.Fatalf("expected device to be closed once, got %d", got)
	}
	if input.IsConfigured() {
		t.Fatalf("expected closed input to report not configured")
	}
}

package turntaking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tandemvoice/tandem-core/core/events"
)

type eventCollector struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *eventCollector) emit(event events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *eventCollector) kinds() []events.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]events.Kind, 0, len(c.events))
	for _, event := range c.events {
		kinds = append(kinds, event.Kind())
	}
	return kinds
}

func (c *eventCollector) count(kind events.Kind) int {
	count := 0
	for _, k := range c.kinds() {
		if k == kind {
			count++
		}
	}
	return count
}

func TestSilenceFromStartNeverConfirms(t *testing.T) {
	collector := &eventCollector{}
	d := newDetector(defaultVADConfig(), &loudnessCell{}, collector.emit)

	start := time.Now()
	for i := 0; i < 50; i++ {
		d.evaluate(0.0, start.Add(time.Duration(i)*100*time.Millisecond))
	}

	if kinds := collector.kinds(); len(kinds) != 0 {
		t.Fatalf("expected no events for silence from start, got %v", kinds)
	}
}

func TestVoiceThenSilenceConfirmsExactlyOnce(t *testing.T) {
	collector := &eventCollector{}
	d := newDetector(defaultVADConfig(), &loudnessCell{}, collector.emit)

	start := time.Now()
	step := 100 * time.Millisecond
	tick := 0
	evaluate := func(level float64) {
		d.evaluate(level, start.Add(time.Duration(tick)*step))
		tick++
	}

	for i := 0; i < 10; i++ {
		evaluate(0.5)
	}
	for i := 0; i < 30; i++ {
		evaluate(0.0)
	}

	if got := collector.count(events.KindVoiceStarted); got != 1 {
		t.Fatalf("expected exactly one voice-started, got %d", got)
	}
	if got := collector.count(events.KindSilenceStarted); got != 1 {
		t.Fatalf("expected exactly one silence-started, got %d", got)
	}
	if got := collector.count(events.KindSilenceConfirmed); got != 1 {
		t.Fatalf("expected exactly one silence-confirmed, got %d", got)
	}

	kinds := collector.kinds()
	expected := []events.Kind{events.KindVoiceStarted, events.KindSilenceStarted, events.KindSilenceConfirmed}
	for i, kind := range expected {
		if kinds[i] != kind {
			t.Fatalf("expected event %d to be %s, got %s", i, kind, kinds[i])
		}
	}
}

func TestThresholdLevelCountsAsSilence(t *testing.T) {
	collector := &eventCollector{}
	d := newDetector(defaultVADConfig(), &loudnessCell{}, collector.emit)

	now := time.Now()
	d.evaluate(0.5, now)
	d.evaluate(0.01, now.Add(100*time.Millisecond))

	if got := collector.count(events.KindSilenceStarted); got != 1 {
		t.Fatalf("expected threshold-level sample to start a silence run, got %d silence-started events", got)
	}
}

func TestVoiceResumeRestartsSilenceTimer(t *testing.T) {
	collector := &eventCollector{}
	d := newDetector(defaultVADConfig(), &loudnessCell{}, collector.emit)

	start := time.Now()
	d.evaluate(0.5, start)
	d.evaluate(0.0, start.Add(100*time.Millisecond))
	// 2.0s of silence, short of the confirmation window.
	d.evaluate(0.0, start.Add(2100*time.Millisecond))
	d.evaluate(0.5, start.Add(2200*time.Millisecond))
	d.evaluate(0.0, start.Add(2300*time.Millisecond))
	// 2.4s into the new run: still not confirmed.
	d.evaluate(0.0, start.Add(4700*time.Millisecond))

	if got := collector.count(events.KindSilenceConfirmed); got != 0 {
		t.Fatalf("expected no confirmation before the window elapses, got %d", got)
	}

	d.evaluate(0.0, start.Add(4800*time.Millisecond))
	if got := collector.count(events.KindSilenceConfirmed); got != 1 {
		t.Fatalf("expected confirmation once the new run reaches the window, got %d", got)
	}
}

func TestConfirmationFiresOncePerSilenceRun(t *testing.T) {
	collector := &eventCollector{}
	d := newDetector(defaultVADConfig(), &loudnessCell{}, collector.emit)

	start := time.Now()
	d.evaluate(0.5, start)
	d.evaluate(0.0, start.Add(100*time.Millisecond))
	d.evaluate(0.0, start.Add(2600*time.Millisecond))
	d.evaluate(0.0, start.Add(5000*time.Millisecond))
	d.evaluate(0.0, start.Add(10000*time.Millisecond))

	if got := collector.count(events.KindSilenceConfirmed); got != 1 {
		t.Fatalf("expected a single confirmation per silence run, got %d", got)
	}
}

func TestDetectorStartStopLifecycle(t *testing.T) {
	d := newDetector(VADConfig{EvalInterval: 5 * time.Millisecond}, &loudnessCell{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d.start(ctx)
	if !d.isRunning() {
		t.Fatalf("expected detector to be running after start")
	}

	d.start(ctx)
	if !d.isRunning() {
		t.Fatalf("expected repeated start to be a no-op")
	}

	d.stop()
	if d.isRunning() {
		t.Fatalf("expected detector to stop")
	}

	d.stop()

	d.start(ctx)
	if !d.isRunning() {
		t.Fatalf("expected detector to restart after stop")
	}
	d.stop()
}

func TestDetectorStartResetsState(t *testing.T) {
	collector := &eventCollector{}
	cell := &loudnessCell{}
	d := newDetector(defaultVADConfig(), cell, collector.emit)

	start := time.Now()
	d.evaluate(0.5, start)
	d.evaluate(0.0, start.Add(100*time.Millisecond))
	d.evaluate(0.0, start.Add(2600*time.Millisecond))

	cell.Store(LoudnessSample{At: time.Now(), Level: 0.9})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.start(ctx)
	d.stop()

	if d.phase != vadPhaseSilence || d.silenceStartedAt != nil || d.confirmed {
		t.Fatalf("expected start to reset evaluation state")
	}
	if _, ok := cell.Load(); ok {
		t.Fatalf("expected start to reset the loudness source")
	}
}

package turntaking

import (
	"context"
	"sync"
	"time"

	"github.com/tandemvoice/tandem-core/core/events"
	"github.com/tandemvoice/tandem-core/internal/utils"
)

type VADConfig struct {
	// SilenceThreshold is the loudness level at or below which a sample
	// counts as silence.
	SilenceThreshold float64
	// SilenceConfirmAfter is how long silence must persist after voice
	// before the user is considered done talking.
	SilenceConfirmAfter time.Duration
	// EvalInterval is the fixed cadence at which the latest loudness
	// value is sampled, independent of audio buffer arrival rate.
	EvalInterval time.Duration
}

func defaultVADConfig() VADConfig {
	return VADConfig{
		SilenceThreshold:    0.01,
		SilenceConfirmAfter: 2500 * time.Millisecond,
		EvalInterval:        100 * time.Millisecond,
	}
}

type vadPhase string

const (
	vadPhaseVoice   vadPhase = "voice"
	vadPhaseSilence vadPhase = "silence"
)

// detector is the two-phase voice activity state machine. It samples the
// latest loudness value on a fixed cadence and emits voice-started,
// silence-started and silence-confirmed events. It cannot fail, only
// produce or withhold events; tearing it down simply discards its state.
type detector struct {
	config VADConfig
	source *loudnessCell
	emit   eventEmitter

	// Evaluation state, touched only by the tick loop (and directly by
	// tests).
	phase            vadPhase
	silenceStartedAt *time.Time
	confirmed        bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func newDetector(config VADConfig, source *loudnessCell, emit eventEmitter) *detector {
	if config.SilenceThreshold == 0 {
		config.SilenceThreshold = defaultVADConfig().SilenceThreshold
	}
	if config.SilenceConfirmAfter == 0 {
		config.SilenceConfirmAfter = defaultVADConfig().SilenceConfirmAfter
	}
	if config.EvalInterval == 0 {
		config.EvalInterval = defaultVADConfig().EvalInterval
	}
	if emit == nil {
		emit = noopEventEmitter
	}

	return &detector{
		config: config,
		source: source,
		emit:   emit,
		phase:  vadPhaseSilence,
	}
}

func (d *detector) setConfig(config VADConfig) {
	if d == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if config.SilenceThreshold != 0 {
		d.config.SilenceThreshold = config.SilenceThreshold
	}
	if config.SilenceConfirmAfter != 0 {
		d.config.SilenceConfirmAfter = config.SilenceConfirmAfter
	}
	if config.EvalInterval != 0 {
		d.config.EvalInterval = config.EvalInterval
	}
}

func (d *detector) setEventEmitter(emit eventEmitter) {
	if d == nil {
		return
	}

	if emit != nil {
		d.emit = emit
	} else {
		d.emit = noopEventEmitter
	}
}

// start resets detector state and begins periodic evaluation. A second
// start while running is a no-op.
func (d *detector) start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}

	d.phase = vadPhaseSilence
	d.silenceStartedAt = nil
	d.confirmed = false
	if d.source != nil {
		d.source.Reset()
	}

	tickCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.running = true
	d.cancel = cancel
	d.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(d.config.EvalInterval)
		defer ticker.Stop()

		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				if sample, ok := d.source.Load(); ok {
					d.evaluate(sample.Level, time.Now())
				}
			}
		}
	}()
}

func (d *detector) stop() {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	d.cancel = nil
	d.done = nil
	d.running = false
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (d *detector) isRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// evaluate applies one transition step against the latest loudness level.
// Continuous silence from session start never confirms: a silence run is
// only timed once voice has been heard.
func (d *detector) evaluate(level float64, now time.Time) {
	if level > d.config.SilenceThreshold {
		if d.phase != vadPhaseVoice {
			d.phase = vadPhaseVoice
			d.silenceStartedAt = nil
			d.confirmed = false
			d.emit(events.NewVoiceStarted())
		}
		return
	}

	if d.phase == vadPhaseVoice {
		d.phase = vadPhaseSilence
		d.silenceStartedAt = utils.Ptr(now)
		d.emit(events.NewSilenceStarted())
		return
	}

	if d.silenceStartedAt == nil || d.confirmed {
		return
	}

	if now.Sub(*d.silenceStartedAt) >= d.config.SilenceConfirmAfter {
		d.confirmed = true
		d.emit(events.NewSilenceConfirmed())
	}
}

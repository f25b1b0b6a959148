package turntaking

import (
	"math"
	"sync"
	"time"

	"github.com/tandemvoice/tandem-core/internal/utils"
)

// LoudnessSample is one normalized loudness reading derived from a raw
// audio buffer. Samples are not retained beyond detector consumption;
// only the latest value matters.
type LoudnessSample struct {
	At    time.Time
	Level float64
}

// loudnessGain scales the raw RMS so that conversational speech lands
// well above the silence threshold.
const loudnessGain = 10.0

// observeLoudness computes the normalized loudness of a block of signed
// 16-bit samples: root-mean-square scaled by a fixed gain and clamped to
// [0, 1]. An empty block yields no sample.
func observeLoudness(samples []int16) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}

	var sum float64
	for _, sample := range samples {
		v := float64(sample) / 32768.0
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))

	return utils.Clamp(rms*loudnessGain, 0, 1), true
}

// loudnessCell is the single mutable cell shared between the audio
// producer context and the detector's evaluation ticker.
type loudnessCell struct {
	mu     sync.Mutex
	latest LoudnessSample
	set    bool
}

func (c *loudnessCell) Store(sample LoudnessSample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = sample
	c.set = true
}

func (c *loudnessCell) Load() (LoudnessSample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.set
}

func (c *loudnessCell) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = LoudnessSample{}
	c.set = false
}

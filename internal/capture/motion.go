package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MotionConfig tunes the MotionGate.
type MotionConfig struct {
	// Threshold is the percentage of pixels that must change.
	Threshold float64
	// BlurSize is the Gaussian kernel size applied before differencing. Odd.
	BlurSize int
	// PixelDelta is the per-pixel grey level change that counts as a change.
	PixelDelta float32
	// Hold keeps the gate open this long after the last motion so a hand
	// that stops briefly mid-stroke is still tracked.
	Hold time.Duration
}

// DefaultMotionConfig returns settings suited to a webcam at arm's length.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		Threshold:  0.5,
		BlurSize:   21,
		PixelDelta: 25,
		Hold:       2 * time.Second,
	}
}

// MotionGate decides whether a frame is worth sending to a detector by
// differencing it against the previous frame.
type MotionGate struct {
	config     MotionConfig
	mu         sync.Mutex
	prev       gocv.Mat
	primed     bool
	lastMotion time.Time
}

// NewMotionGate returns a gate with no baseline frame.
func NewMotionGate(cfg MotionConfig) *MotionGate {
	if cfg.BlurSize%2 == 0 {
		cfg.BlurSize++
	}
	return &MotionGate{config: cfg, prev: gocv.NewMat()}
}

// ChangePercent returns the share of pixels, 0 to 100, that differ from
// the previous frame and stores frame as the new baseline. The first frame
// reports 0.
func (g *MotionGate) ChangePercent(frame *gocv.Mat) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.changePercent(frame)
}

func (g *MotionGate) changePercent(frame *gocv.Mat) float64 {
	if frame == nil || frame.Empty() {
		return 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := g.config.BlurSize
	gocv.GaussianBlur(gray, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	if !g.primed {
		blurred.CopyTo(&g.prev)
		g.primed = true
		return 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prev, &diff)
	gocv.Threshold(diff, &diff, g.config.PixelDelta, 255, gocv.ThresholdBinary)

	changed := gocv.CountNonZero(diff)
	total := diff.Rows() * diff.Cols()
	blurred.CopyTo(&g.prev)
	if total == 0 {
		return 0
	}
	return float64(changed) / float64(total) * 100
}

// Open reports whether the frame at now should be processed: it differs
// enough from the previous one, or motion was seen within Hold. The first
// frame always opens the gate.
func (g *MotionGate) Open(frame *gocv.Mat, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	first := !g.primed
	pct := g.changePercent(frame)
	if first || pct > g.config.Threshold {
		g.lastMotion = now
		return true
	}
	return now.Sub(g.lastMotion) <= g.config.Hold
}

// Reset drops the baseline frame.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.primed = false
	g.lastMotion = time.Time{}
}

// Close releases the baseline frame.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prev.Close()
	g.primed = false
}

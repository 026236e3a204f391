package airwriter

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/focusguard/internal/gesture"
)

// ErrNothingToUndo is returned by Undo and Redo when their history is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

// Config configures a Controller.
type Config struct {
	Width     int
	Height    int
	OutputDir string
	// Mirror flips anchors horizontally so the canvas matches a selfie view.
	Mirror bool
}

// DefaultConfig returns a 1280x720 mirrored canvas saving to the working
// directory.
func DefaultConfig() Config {
	return Config{
		Width:     1280,
		Height:    720,
		OutputDir: ".",
		Mirror:    true,
	}
}

// Event describes what a command did to the canvas.
type Event struct {
	Kind      gesture.Kind `json:"kind"`
	Cursor    *image.Point `json:"cursor,omitempty"`
	Color     string       `json:"color"`
	Thickness int          `json:"thickness"`
	Saved     string       `json:"saved,omitempty"`
	Notice    string       `json:"notice,omitempty"`
}

// Controller turns gesture commands into strokes on an in-memory canvas.
// It is safe for concurrent use; the frame loop calls Apply while menu
// actions call Undo, Redo and Clear.
type Controller struct {
	config Config

	mu        sync.Mutex
	canvas    gocv.Mat
	undo      []gocv.Mat
	redo      []gocv.Mat
	colorIdx  int
	thickness int
	last      *image.Point
	lastKind  gesture.Kind
	debouncer *gesture.Debouncer

	// OnNotice, if set, receives short user-facing messages such as
	// "Color: Blue" or "Image Saved". It runs with the controller locked and
	// must not call back into it.
	OnNotice func(msg string)
}

// NewController returns a blank canvas.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return &Controller{
		config:    cfg,
		canvas:    gocv.NewMatWithSize(cfg.Height, cfg.Width, gocv.MatTypeCV8UC3),
		colorIdx:  DefaultColor,
		thickness: DefaultThickness,
		lastKind:  gesture.KindNone,
		debouncer: gesture.NewDebouncer(),
	}, nil
}

// Apply executes one classified frame at now. SelectColor and Save are
// debounced; Draw and Erase act on every frame.
func (c *Controller) Apply(cmd gesture.Command, now time.Time) (Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ev := Event{Kind: cmd.Kind}
	var pt image.Point
	if cmd.Anchor != nil {
		pt = c.toPixel(*cmd.Anchor)
		ev.Cursor = &pt
	}

	if cmd.Kind != gesture.KindDraw || cmd.Anchor == nil {
		c.last = nil
	}

	switch cmd.Kind {
	case gesture.KindDraw:
		if cmd.Anchor != nil {
			c.draw(pt)
		}
	case gesture.KindErase:
		if cmd.Anchor != nil {
			if c.lastKind != gesture.KindErase {
				c.snapshot()
			}
			c.erase(pt)
		}
	case gesture.KindSelectColor:
		if c.debouncer.Allow(cmd, now) {
			c.colorIdx = (c.colorIdx + 1) % len(Palette)
			ev.Notice = "Color: " + Palette[c.colorIdx].Name
		}
	case gesture.KindSave:
		if c.debouncer.Allow(cmd, now) {
			path, err := c.save(now)
			if err != nil {
				return ev, err
			}
			ev.Saved = path
			ev.Notice = "Image Saved"
		}
	case gesture.KindNone:
		if cmd.Pinch != nil {
			c.thickness = ThicknessForPinch(cmd.Pinch.Distance)
		}
	}
	c.lastKind = cmd.Kind

	ev.Color = Palette[c.colorIdx].Name
	ev.Thickness = c.thickness
	c.notify(ev.Notice)
	return ev, nil
}

// ThicknessForPinch maps a pinch distance in [0, PinchThreshold) linearly
// onto [MinThickness, MaxThickness].
func ThicknessForPinch(distance float64) int {
	ratio := distance / gesture.PinchThreshold
	n := MinThickness + int(math.Round(ratio*float64(MaxThickness-MinThickness)))
	return clampThickness(n)
}

func (c *Controller) toPixel(p gesture.Point) image.Point {
	x := p.X
	if c.config.Mirror {
		x = 1 - x
	}
	return image.Pt(
		int(math.Round(x*float64(c.config.Width))),
		int(math.Round(p.Y*float64(c.config.Height))),
	)
}

func (c *Controller) draw(pt image.Point) {
	col := Palette[c.colorIdx].RGBA
	if c.last == nil {
		c.snapshot()
		gocv.Circle(&c.canvas, pt, c.thickness/2, col, -1)
	} else {
		gocv.Line(&c.canvas, *c.last, pt, col, c.thickness)
	}
	c.last = &pt
}

func (c *Controller) erase(center image.Point) {
	half := EraseSize / 2
	r := image.Rect(center.X-half, center.Y-half, center.X+half, center.Y+half)
	gocv.Rectangle(&c.canvas, r, color.RGBA{0, 0, 0, 0xFF}, -1)
}

func (c *Controller) save(now time.Time) (string, error) {
	if err := os.MkdirAll(c.config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(c.config.OutputDir, fmt.Sprintf("air-writing-%d.png", now.UnixMilli()))
	if ok := gocv.IMWrite(path, c.canvas); !ok {
		return "", fmt.Errorf("write %s", path)
	}
	return path, nil
}

// snapshot pushes the current canvas onto the undo stack and drops the redo
// stack.
func (c *Controller) snapshot() {
	c.undo = pushCapped(c.undo, c.canvas.Clone())
	closeAll(c.redo)
	c.redo = nil
}

func pushCapped(stack []gocv.Mat, m gocv.Mat) []gocv.Mat {
	stack = append(stack, m)
	if len(stack) > HistoryLimit {
		stack[0].Close()
		stack = stack[1:]
	}
	return stack
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}

// Undo restores the canvas to before the last stroke, erase or clear.
func (c *Controller) Undo() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.undo) == 0 {
		return ErrNothingToUndo
	}
	prev := c.undo[len(c.undo)-1]
	c.undo = c.undo[:len(c.undo)-1]
	c.redo = pushCapped(c.redo, c.canvas)
	c.canvas = prev
	c.last = nil
	c.notify("Undo")
	return nil
}

// Redo reapplies the last undone change.
func (c *Controller) Redo() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.redo) == 0 {
		return ErrNothingToUndo
	}
	next := c.redo[len(c.redo)-1]
	c.redo = c.redo[:len(c.redo)-1]
	c.undo = pushCapped(c.undo, c.canvas)
	c.canvas = next
	c.last = nil
	c.notify("Redo")
	return nil
}

// Clear blanks the canvas. It can be undone.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot()
	c.canvas.SetTo(gocv.NewScalar(0, 0, 0, 0))
	c.last = nil
	c.notify("Canvas Cleared")
}

// Save writes the canvas as a PNG immediately, bypassing the gesture
// cooldown.
func (c *Controller) Save(now time.Time) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, err := c.save(now)
	if err != nil {
		return "", err
	}
	c.notify("Image Saved")
	return path, nil
}

// SetThickness sets the stroke width, clamped to the allowed range.
func (c *Controller) SetThickness(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thickness = clampThickness(n)
}

// Thickness returns the stroke width.
func (c *Controller) Thickness() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thickness
}

// Color returns the current stroke color.
func (c *Controller) Color() Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Palette[c.colorIdx]
}

// History returns the sizes of the undo and redo stacks.
func (c *Controller) History() (undo, redo int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.undo), len(c.redo)
}

// PixelAt returns the canvas color at p, for tests and previews.
func (c *Controller) PixelAt(p image.Point) color.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.canvas.GetVecbAt(p.Y, p.X)
	return color.RGBA{R: v[2], G: v[1], B: v[0], A: 0xFF}
}

// EncodeJPEG returns the canvas as a JPEG image.
func (c *Controller) EncodeJPEG() ([]byte, error) {
	return c.encode(gocv.JPEGFileExt)
}

// EncodePNG returns the canvas as a PNG image.
func (c *Controller) EncodePNG() ([]byte, error) {
	return c.encode(gocv.PNGFileExt)
}

func (c *Controller) encode(ext gocv.FileExt) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf, err := gocv.IMEncode(ext, c.canvas)
	if err != nil {
		return nil, fmt.Errorf("encode canvas: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the canvas and history.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	closeAll(c.undo)
	closeAll(c.redo)
	c.undo, c.redo = nil, nil
	c.canvas.Close()
}

func (c *Controller) notify(msg string) {
	if msg != "" && c.OnNotice != nil {
		c.OnNotice(msg)
	}
}

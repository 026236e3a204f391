package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/focusguard/internal/detector"
)

// ErrInvalidInput is returned when Classify is given a malformed landmark set.
var ErrInvalidInput = errors.New("invalid gesture input")

// PinchThreshold is the largest thumb-to-index distance reported as a pinch.
const PinchThreshold = 0.05

// Kind is the command a hand pose maps to.
type Kind string

const (
	KindNone        Kind = "none"
	KindDraw        Kind = "draw"
	KindErase       Kind = "erase"
	KindPause       Kind = "pause"
	KindSelectColor Kind = "select_color"
	KindSave        Kind = "save"
)

// Command is the result of classifying one frame.
type Command struct {
	Kind Kind `json:"kind"`

	// Anchor is where the command applies, in normalized detector space.
	// It is nil when the command has no position.
	Anchor *Point `json:"anchor,omitempty"`

	// Pinch is set when Kind is KindNone and the thumb and index tips are
	// within PinchThreshold. The anchor is then the index tip.
	Pinch *Pinch `json:"pinch,omitempty"`
}

// Pinch carries the thumb-to-index distance of a pinch.
type Pinch struct {
	Distance float64 `json:"distance"`
}

// Classify maps 21 landmark points to a command. Rules are checked in order
// and the first match wins.
func Classify(points []detector.Point3D) (Command, error) {
	h, err := detector.FromPoints(points)
	if err != nil {
		return Command{Kind: KindNone}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return classify(&h.Points), nil
}

// ClassifyHand is Classify for an already validated hand.
func ClassifyHand(h detector.HandLandmarks) Command {
	return classify(&h.Points)
}

func classify(points *[detector.NumLandmarks]detector.Point3D) Command {
	f := readFingers(points)
	n := f.Count()

	switch {
	case n >= 4:
		return anchored(KindErase, palmCenter(points))
	case f.Index && f.Middle && !f.Ring && !f.Pinky:
		return anchored(KindSelectColor, pointOf(points[detector.IndexTip]))
	case f.Index && n == 1:
		return anchored(KindDraw, pointOf(points[detector.IndexTip]))
	case n == 0 && !f.ThumbUp:
		return anchored(KindPause, palmCenter(points))
	case n == 0 && f.ThumbUp:
		return anchored(KindSave, pointOf(points[detector.ThumbTip]))
	}

	if d := Distance(points[detector.ThumbTip], points[detector.IndexTip]); d < PinchThreshold {
		cmd := anchored(KindNone, pointOf(points[detector.IndexTip]))
		cmd.Pinch = &Pinch{Distance: d}
		return cmd
	}
	return Command{Kind: KindNone}
}

func anchored(kind Kind, at Point) Command {
	return Command{Kind: kind, Anchor: &at}
}

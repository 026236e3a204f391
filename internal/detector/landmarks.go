// Package detector wraps the perception models that turn camera frames into
// face boxes and hand landmarks.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrInvalidLandmarks is returned for a landmark set of the wrong size or
// with non-finite coordinates.
var ErrInvalidLandmarks = errors.New("invalid hand landmarks")

// Point3D is a landmark position. X and Y are normalized to the frame, with
// Y growing downwards. Z is relative depth and is ignored by the classifier.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Point3D) finite() bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// HandLandmarks is one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FromPoints builds a HandLandmarks from exactly NumLandmarks points.
func FromPoints(points []Point3D) (HandLandmarks, error) {
	var h HandLandmarks
	if len(points) != NumLandmarks {
		return h, fmt.Errorf("%w: got %d points, want %d", ErrInvalidLandmarks, len(points), NumLandmarks)
	}
	for i, p := range points {
		if !p.finite() {
			return h, fmt.Errorf("%w: point %d is not finite", ErrInvalidLandmarks, i)
		}
		h.Points[i] = p
	}
	return h, nil
}

// Mirrored returns a copy with X flipped around the frame center, as seen in
// a selfie view.
func (h HandLandmarks) Mirrored() HandLandmarks {
	out := h
	for i := range out.Points {
		out.Points[i].X = 1 - out.Points[i].X
	}
	return out
}

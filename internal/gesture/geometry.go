// Package gesture turns hand landmarks into drawing commands.
package gesture

import (
	"math"

	"github.com/ayusman/focusguard/internal/detector"
)

// Point is a 2D position in normalized frame coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func pointOf(p detector.Point3D) Point {
	return Point{X: p.X, Y: p.Y}
}

// Distance returns the Euclidean distance between a and b in the image
// plane. Depth is ignored.
func Distance(a, b detector.Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// isExtended reports whether the fingertip is above its PIP joint.
// Smaller Y is higher in the frame.
func isExtended(points *[detector.NumLandmarks]detector.Point3D, tip, pip int) bool {
	return points[tip].Y < points[pip].Y
}

// thumbUp compares the thumb tip with the thumb IP joint on X only. It does
// not account for handedness or a mirrored camera.
func thumbUp(points *[detector.NumLandmarks]detector.Point3D) bool {
	return points[detector.ThumbTip].X < points[detector.ThumbIP].X
}

// palmCenter is the centroid of the wrist and the index and pinky knuckles.
func palmCenter(points *[detector.NumLandmarks]detector.Point3D) Point {
	w := points[detector.Wrist]
	i := points[detector.IndexMCP]
	p := points[detector.PinkyMCP]
	return Point{
		X: (w.X + i.X + p.X) / 3,
		Y: (w.Y + i.Y + p.Y) / 3,
	}
}

// Fingers records which fingers are extended.
type Fingers struct {
	Index   bool `json:"index"`
	Middle  bool `json:"middle"`
	Ring    bool `json:"ring"`
	Pinky   bool `json:"pinky"`
	ThumbUp bool `json:"thumb_up"`
}

// Count returns the number of extended fingers, not counting the thumb.
func (f Fingers) Count() int {
	n := 0
	for _, ext := range [4]bool{f.Index, f.Middle, f.Ring, f.Pinky} {
		if ext {
			n++
		}
	}
	return n
}

func readFingers(points *[detector.NumLandmarks]detector.Point3D) Fingers {
	return Fingers{
		Index:   isExtended(points, detector.IndexTip, detector.IndexPIP),
		Middle:  isExtended(points, detector.MiddleTip, detector.MiddlePIP),
		Ring:    isExtended(points, detector.RingTip, detector.RingPIP),
		Pinky:   isExtended(points, detector.PinkyTip, detector.PinkyPIP),
		ThumbUp: thumbUp(points),
	}
}

// ReadFingers returns the extension state of every finger of h.
func ReadFingers(h detector.HandLandmarks) Fingers {
	return readFingers(&h.Points)
}

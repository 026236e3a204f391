package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// HandDetector finds hands in a video frame.
type HandDetector interface {
	// Detect returns the hands found in frame, or an empty slice.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// FaceDetector finds faces in a video frame. Presence is "at least one face".
type FaceDetector interface {
	Detect(frame *gocv.Mat) ([]Face, error)
	Close() error
}

// Face is a detected face box, normalized to the frame size.
type Face struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Score float64 `json:"score"`
}

// Present reports whether any face was found.
func Present(faces []Face) bool {
	return len(faces) > 0
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ServiceScript is the path of the MediaPipe hand service script.
	// Empty means search the default locations.
	ServiceScript string

	// Python is the interpreter used to run the service. Empty means a
	// project virtualenv if present, else python3.
	Python string

	// IdleTimeout stops the service after this long without a frame.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
// The air writer tracks a single hand.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}

// FaceConfig configures the YuNet face detector.
type FaceConfig struct {
	ModelPath      string
	InputWidth     int
	InputHeight    int
	ScoreThreshold float64
	NMSThreshold   float64
	TopK           int
}

// DefaultFaceConfig returns the face detector defaults. ModelPath must still
// be set by the caller.
func DefaultFaceConfig() FaceConfig {
	return FaceConfig{
		InputWidth:     640,
		InputHeight:    480,
		ScoreThreshold: 0.5,
		NMSThreshold:   0.3,
		TopK:           5000,
	}
}

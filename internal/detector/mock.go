package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a HandDetector whose results are set by tests.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands ...HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many frames were passed to Detect.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// MockFaceDetector is a FaceDetector that replays a presence script.
// Once the script is exhausted the last entry repeats.
type MockFaceDetector struct {
	mu     sync.Mutex
	script []bool
	pos    int
	err    error
}

// NewMockFaceDetector returns a detector reporting the given presence values
// frame by frame.
func NewMockFaceDetector(script ...bool) *MockFaceDetector {
	return &MockFaceDetector{script: script}
}

// SetPresent replaces the script with a constant value.
func (m *MockFaceDetector) SetPresent(present bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = []bool{present}
	m.pos = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockFaceDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns one centered face when the script says present.
func (m *MockFaceDetector) Detect(frame *gocv.Mat) ([]Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) == 0 {
		return nil, nil
	}

	present := m.script[m.pos]
	if m.pos < len(m.script)-1 {
		m.pos++
	}
	if !present {
		return nil, nil
	}
	return []Face{{X: 0.35, Y: 0.25, W: 0.3, H: 0.4, Score: 0.92}}, nil
}

// Close is a no-op.
func (m *MockFaceDetector) Close() error {
	return nil
}

// Reference geometry for the pose fixtures. Y grows downwards, so an
// extended fingertip sits above (smaller Y than) its PIP joint.
const (
	palmY        = 0.65
	pipY         = 0.55
	extendedY    = 0.35
	curledY      = 0.62
	thumbIPX     = 0.62
	thumbIPY     = 0.60
	fixtureScore = 0.95
)

// pose builds a right hand with the given fingers extended. When thumbUp is
// set the thumb tip lies left of the thumb IP joint.
func pose(index, middle, ring, pinky, thumbUp bool) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: fixtureScore}

	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.85}
	h.Points[ThumbCMC] = Point3D{X: 0.58, Y: 0.78}
	h.Points[ThumbMCP] = Point3D{X: 0.61, Y: 0.70}
	h.Points[ThumbIP] = Point3D{X: thumbIPX, Y: thumbIPY}
	if thumbUp {
		h.Points[ThumbTip] = Point3D{X: 0.60, Y: 0.45}
	} else {
		h.Points[ThumbTip] = Point3D{X: 0.66, Y: 0.62}
	}

	fingers := []struct {
		mcp, pip, dip, tip int
		x                  float64
		extended           bool
	}{
		{IndexMCP, IndexPIP, IndexDIP, IndexTip, 0.56, index},
		{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip, 0.50, middle},
		{RingMCP, RingPIP, RingDIP, RingTip, 0.45, ring},
		{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip, 0.40, pinky},
	}
	for _, f := range fingers {
		h.Points[f.mcp] = Point3D{X: f.x, Y: palmY}
		h.Points[f.pip] = Point3D{X: f.x, Y: pipY}
		if f.extended {
			h.Points[f.dip] = Point3D{X: f.x, Y: 0.45}
			h.Points[f.tip] = Point3D{X: f.x, Y: extendedY}
		} else {
			h.Points[f.dip] = Point3D{X: f.x - 0.01, Y: 0.52}
			h.Points[f.tip] = Point3D{X: f.x - 0.01, Y: curledY}
		}
	}
	return h
}

// PointingLandmarks has only the index finger extended.
func PointingLandmarks() HandLandmarks {
	return pose(true, false, false, false, false)
}

// PeaceLandmarks has the index and middle fingers extended.
func PeaceLandmarks() HandLandmarks {
	return pose(true, true, false, false, false)
}

// OpenPalmLandmarks has all four fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return pose(true, true, true, true, true)
}

// FistLandmarks has every finger curled and the thumb tucked.
func FistLandmarks() HandLandmarks {
	return pose(false, false, false, false, false)
}

// ThumbsUpLandmarks has every finger curled and the thumb raised.
func ThumbsUpLandmarks() HandLandmarks {
	return pose(false, false, false, false, true)
}

// PinchLandmarks is an "OK" sign: the thumb and index tips touch while the
// other three fingers are extended. distance is the gap between the tips.
func PinchLandmarks(distance float64) HandLandmarks {
	h := pose(false, true, true, true, false)
	h.Points[IndexTip] = Point3D{X: 0.56, Y: 0.58}
	h.Points[ThumbTip] = Point3D{X: 0.56 + distance, Y: 0.58}
	return h
}

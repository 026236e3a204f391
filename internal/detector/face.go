package detector

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// YuNetDetector finds faces with OpenCV's FaceDetectorYN.
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   FaceConfig
	mu       sync.Mutex
}

// NewYuNetDetector loads the YuNet ONNX model named in cfg.
func NewYuNetDetector(cfg FaceConfig) (*YuNetDetector, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("face model path is empty")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("face model: %w", err)
	}

	d := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ScoreThreshold),
		float32(cfg.NMSThreshold),
		cfg.TopK,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: d,
		config:   cfg,
	}, nil
}

// Detect returns the faces in frame, normalized to the frame size.
func (d *YuNetDetector) Detect(frame *gocv.Mat) ([]Face, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	w := float64(frame.Cols())
	h := float64(frame.Rows())
	d.detector.SetInputSize(image.Pt(frame.Cols(), frame.Rows()))

	out := gocv.NewMat()
	defer out.Close()
	d.detector.Detect(*frame, &out)

	// Each row is x, y, w, h, five landmark pairs, then the score.
	faces := make([]Face, 0, out.Rows())
	for r := 0; r < out.Rows(); r++ {
		faces = append(faces, Face{
			X:     float64(out.GetFloatAt(r, 0)) / w,
			Y:     float64(out.GetFloatAt(r, 1)) / h,
			W:     float64(out.GetFloatAt(r, 2)) / w,
			H:     float64(out.GetFloatAt(r, 3)) / h,
			Score: float64(out.GetFloatAt(r, 14)),
		})
	}
	return faces, nil
}

// Close releases the model.
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}

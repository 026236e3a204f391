package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/focusguard/internal/log"
)

// ServiceScriptName is the file name of the MediaPipe hand service.
const ServiceScriptName = "hand_service.py"

// ErrServiceNotFound is returned when no hand service script can be located.
var ErrServiceNotFound = errors.New(ServiceScriptName + " not found")

// MediaPipeDetector implements HandDetector by streaming frames to a Python
// MediaPipe process. Frames go out as length-prefixed JPEG; each reply is
// one JSON line.
type MediaPipeDetector struct {
	config Config
	script string
	python string

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	idleTimer *time.Timer
}

// NewMediaPipeDetector locates the service script. The Python process is
// started lazily on the first frame and stopped after IdleTimeout.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := config.ServiceScript
	if script == "" {
		script = findServiceScript()
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("hand service: %w", err)
	}

	python := config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		python: python,
	}, nil
}

// Detect sends frame to the service and returns the hands it reports.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.start(); err != nil {
		return nil, err
	}
	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		d.stop()
		return nil, err
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		d.stop()
		return nil, fmt.Errorf("read response: %w", err)
	}
	d.armIdleTimer()

	return decodeHands(line)
}

// Close stops the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

func (d *MediaPipeDetector) args() []string {
	return []string{
		d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	}
}

func (d *MediaPipeDetector) start() error {
	if d.cmd != nil {
		return nil
	}

	cmd := exec.Command(d.python, d.args()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start hand service: %w", err)
	}
	log.Debug("hand service started", "pid", cmd.Process.Pid, "script", d.script)

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	return nil
}

func (d *MediaPipeDetector) stop() error {
	if d.cmd == nil {
		return nil
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	d.stdin.Close()
	err := d.cmd.Wait()
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil
	return err
}

func (d *MediaPipeDetector) armIdleTimer() {
	if d.config.IdleTimeout <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.stop(); err != nil {
			log.Warn("hand service exited", "error", err)
		}
	})
}

// writeFrame writes a 4-byte big-endian length followed by data.
func writeFrame(w io.Writer, data []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	if _, err := w.Write(length[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

type wireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// decodeHands parses one service reply. A hand with the wrong number of
// points fails the whole reply.
func decodeHands(line []byte) ([]HandLandmarks, error) {
	var reply struct {
		Hands []wireHand `json:"hands"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("hand service: %s", reply.Error)
	}

	hands := make([]HandLandmarks, 0, len(reply.Hands))
	for i, wh := range reply.Hands {
		h, err := FromPoints(wh.Points)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i, err)
		}
		h.Handedness = wh.Handedness
		h.Score = wh.Score
		hands = append(hands, h)
	}
	return hands, nil
}

func findServiceScript() string {
	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", ServiceScriptName),
		filepath.Join("..", "scripts", ServiceScriptName),
		filepath.Join(execDir, "scripts", ServiceScriptName),
	}
	if dataDir := dataHome(); dataDir != "" {
		candidates = append(candidates, filepath.Join(dataDir, "focusguard", "scripts", ServiceScriptName))
	}
	return firstExisting(candidates)
}

func findVenvPython() string {
	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("venv", "bin", "python"),
		filepath.Join("..", "venv", "bin", "python"),
		filepath.Join(execDir, "venv", "bin", "python"),
	}
	if dataDir := dataHome(); dataDir != "" {
		candidates = append(candidates, filepath.Join(dataDir, "focusguard", "venv", "bin", "python"))
	}
	return firstExisting(candidates)
}

func dataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share")
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

// Package audiodev provides the two audio device contexts a live session
// owns: an ffmpeg-backed microphone capturing float32 samples and an
// ffplay-backed speaker consuming 16-bit PCM. Each device wraps one
// subprocess and is exclusively owned by one session.
package audiodev

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// Mic streams mono float32 little-endian samples from the default input
// device at a fixed sample rate.
type Mic struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// OpenMic starts the capture subprocess. The returned device must be closed
// before its session's disconnect resolves.
func OpenMic(sampleRateHz int) (*Mic, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, errors.New("ffmpeg is required for microphone capture (install ffmpeg and ensure it is in PATH)")
	}
	args, err := micArgs(runtime.GOOS, sampleRateHz)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open ffmpeg stdout: %w", err)
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg mic capture: %w", err)
	}
	return &Mic{cmd: cmd, stdout: stdout}, nil
}

func micArgs(goos string, sampleRateHz int) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "avfoundation", "-i", ":0",
			"-ac", "1", "-ar", fmt.Sprintf("%d", sampleRateHz),
			"-f", "f32le", "-",
		}, nil
	case "linux":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "pulse", "-i", "default",
			"-ac", "1", "-ar", fmt.Sprintf("%d", sampleRateHz),
			"-f", "f32le", "-",
		}, nil
	default:
		return nil, fmt.Errorf("microphone capture is not implemented for %s; supported platforms: darwin, linux", goos)
	}
}

// Read yields raw float32 little-endian sample bytes.
func (m *Mic) Read(p []byte) (int, error) {
	if m == nil || m.stdout == nil {
		return 0, io.EOF
	}
	return m.stdout.Read(p)
}

// Close stops the capture subprocess.
func (m *Mic) Close() error {
	if m == nil {
		return nil
	}
	if m.cmd != nil && m.cmd.Process != nil {
		_ = m.cmd.Process.Kill()
		_ = m.cmd.Wait()
	}
	return nil
}

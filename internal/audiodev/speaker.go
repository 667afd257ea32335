package audiodev

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Speaker plays mono 16-bit little-endian PCM at a fixed sample rate through
// an ffplay subprocess.
type Speaker struct {
	sampleRateHz int

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// OpenSpeaker starts the playback subprocess.
func OpenSpeaker(sampleRateHz int) (*Speaker, error) {
	if _, err := exec.LookPath("ffplay"); err != nil {
		return nil, errors.New("ffplay is required for playback (install ffmpeg/ffplay and ensure it is in PATH)")
	}
	s := &Speaker{sampleRateHz: sampleRateHz}
	if err := s.startLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Speaker) startLocked() error {
	s.cmd = exec.Command("ffplay",
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", s.sampleRateHz),
		"-ac", "1",
		"-i", "pipe:0",
	)
	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open ffplay stdin: %w", err)
	}
	s.cmd.Stdout = io.Discard
	s.cmd.Stderr = io.Discard
	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start ffplay: %w", err)
	}
	s.stdin = stdin
	return nil
}

// Write feeds PCM bytes to the device.
func (s *Speaker) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stdin == nil {
		return 0, errors.New("ffplay stdin is not initialized")
	}
	return s.stdin.Write(data)
}

// Reset drops device-buffered audio by restarting the subprocess. Used after
// the remote side interrupts its own turn.
func (s *Speaker) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killLocked()
	return s.startLocked()
}

// Close stops the playback subprocess.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killLocked()
	return nil
}

func (s *Speaker) killLocked() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	s.cmd = nil
	s.stdin = nil
}

// Package studio is the controller layer: it owns the edit history, issues
// edit requests, and holds at most one open live session whose edit_image
// tool is wired back into the same edit path.
package studio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vocalens/vocalens/pkg/core"
	"github.com/vocalens/vocalens/pkg/live"
)

// EditClient is the narrow contract of the edit request service.
type EditClient interface {
	EditImage(ctx context.Context, image, instruction string) (string, error)
}

// Studio wires the edit service, the history, and the live session together.
type Studio struct {
	edits   EditClient
	history *History
	logger  *slog.Logger

	mu      sync.Mutex
	session *live.Session
}

// Option configures a Studio.
type Option func(*Studio)

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Studio) { s.logger = l }
}

// New creates a controller around an edit client.
func New(edits EditClient, opts ...Option) *Studio {
	s := &Studio{
		edits:   edits,
		history: NewHistory(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History exposes the edit history.
func (s *Studio) History() *History {
	return s.history
}

// Load seeds the history with an uploaded image.
func (s *Studio) Load(image string) HistoryItem {
	return s.history.Push(image, "original")
}

// ApplyEdit runs one edit against the current image and pushes the result.
// On failure the history is untouched and the error is returned for
// user-visible messaging.
func (s *Studio) ApplyEdit(ctx context.Context, instruction string) (HistoryItem, error) {
	current, ok := s.history.Current()
	if !ok {
		return HistoryItem{}, core.NewEditRequestError("no image loaded")
	}
	edited, err := s.edits.EditImage(ctx, current.Image, instruction)
	if err != nil {
		s.logger.Error("edit failed", "instruction", instruction, "error", err)
		return HistoryItem{}, err
	}
	item := s.history.Push(edited, instruction)
	s.logger.Info("edit applied", "instruction", instruction, "history_index", s.history.Index())

	// Give the live agent visual context for follow-up requests.
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session != nil {
		session.SendImageFrame(edited)
	}
	return item, nil
}

// StartLive opens the live session. The edit_image tool handler is wired to
// ApplyEdit unless the config already carries one. At most one session may be
// open; starting a second fails.
func (s *Studio) StartLive(ctx context.Context, cfg live.Config) (*live.Session, error) {
	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		return nil, core.NewConnectionError("a live session is already open", nil)
	}
	s.mu.Unlock()

	if cfg.ToolHandler == nil {
		cfg.ToolHandler = s.handleTool
	}
	session, err := live.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Re-check under the lock: another caller may have won while we dialed.
	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		session.Disconnect()
		return nil, core.NewConnectionError("a live session is already open", nil)
	}
	s.session = session
	s.mu.Unlock()

	if current, ok := s.history.Current(); ok {
		session.SendImageFrame(current.Image)
	}
	return session, nil
}

// StopLive disconnects the session and clears live-mode state. Idempotent.
func (s *Studio) StopLive() {
	s.mu.Lock()
	session := s.session
	s.session = nil
	s.mu.Unlock()
	if session != nil {
		session.Disconnect()
	}
}

// SendFrame forwards the current image to the live session as a visual
// context frame. Reports whether there was a session and an image to send.
func (s *Studio) SendFrame() bool {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil {
		return false
	}
	current, ok := s.history.Current()
	if !ok {
		return false
	}
	session.SendImageFrame(current.Image)
	return true
}

// LiveOpen reports whether a session is currently held.
func (s *Studio) LiveOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// handleTool executes a remote edit_image invocation against the current
// image.
func (s *Studio) handleTool(ctx context.Context, inv live.ToolInvocation) (string, error) {
	if inv.Name != live.EditImageToolName {
		return "", core.NewToolHandlerError(fmt.Sprintf("unknown tool %q", inv.Name))
	}
	prompt := live.PromptArg(inv)
	if prompt == "" {
		return "", core.NewToolHandlerError("edit_image requires a prompt argument")
	}
	if _, err := s.ApplyEdit(ctx, prompt); err != nil {
		return "", err
	}
	return "success", nil
}

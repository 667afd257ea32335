// Package live implements the real-time audio session manager: a
// bidirectional streaming connection to the Gemini Live endpoint that
// captures microphone audio, schedules returned audio for gapless playback,
// surfaces incremental transcripts, and bridges remote tool invocations to a
// locally supplied handler.
package live

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/vocalens/vocalens/pkg/core"
	"github.com/vocalens/vocalens/pkg/live/protocol"
)

const (
	defaultConnectTimeout = 15 * time.Second

	// DefaultEndpoint is the Gemini Live WebSocket endpoint.
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultModel is the native-audio live model.
	DefaultModel = "models/gemini-2.5-flash-native-audio-preview-09-2025"

	// DefaultVoice is the fixed voice persona.
	DefaultVoice = "Orus"

	// DefaultSystemPrompt establishes the agent's persona and behavior style.
	DefaultSystemPrompt = "You are a friendly photo-editing assistant. " +
		"The user is looking at an image they want to change. When they ask " +
		"for an edit, call the edit_image function with a concise prompt " +
		"describing the change. Keep spoken replies short and conversational."
)

// ToolInvocation is a remote request to execute a named local capability.
type ToolInvocation struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolHandler executes one tool invocation. The returned string becomes the
// result value reported to the remote side; an empty string reports
// "success". Errors and panics are contained and reported as an error result,
// never propagated as a session failure.
type ToolHandler func(ctx context.Context, inv ToolInvocation) (string, error)

// PlaybackDevice is the speaker-side audio device context. Reset flushes any
// device-buffered audio after an interruption.
type PlaybackDevice interface {
	io.WriteCloser
	Reset() error
}

// Config configures a live session.
type Config struct {
	// APIKey is the single credential for the streaming endpoint. Required.
	APIKey string

	Model        string
	Voice        string
	SystemPrompt string

	// Tools declares the remote-invokable capabilities. Defaults to the
	// edit_image declaration.
	Tools []protocol.FunctionDeclaration

	// ToolHandler executes remote tool invocations. Nil handlers report an
	// error result for every invocation.
	ToolHandler ToolHandler

	// OpenMic opens the capture device: mono float32 little-endian samples at
	// 16 kHz. Defaults to the ffmpeg microphone.
	OpenMic func() (io.ReadCloser, error)

	// OpenSpeaker opens the playback device: mono 16-bit PCM at 24 kHz.
	// Defaults to the ffplay speaker.
	OpenSpeaker func() (PlaybackDevice, error)

	// Endpoint overrides the live WebSocket URL (tests).
	Endpoint string

	// Clock overrides the playback scheduling clock (tests).
	Clock Clock

	// BlockSamples is the fixed capture block size in samples.
	BlockSamples int

	Logger *slog.Logger
}

// Connection state. A session is Open for its whole usable life; every
// outbound operation no-ops once Closed.
const (
	stateOpen int32 = iota
	stateClosed
)

// Session is one live connection lifecycle: the connection handle, both audio
// device contexts, the playback cursor, and the transcript accumulators. A
// controller holds at most one open Session; reconnecting always constructs a
// new Session.
type Session struct {
	id     string
	cfg    Config
	conn   *websocket.Conn
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	done   chan struct{}

	writeMu   sync.Mutex
	state     atomic.Int32
	closeOnce sync.Once

	outbound chan protocol.ClientMessage

	capture *capturePipeline
	speaker PlaybackDevice
	sched   *Scheduler

	// Mutated only inside the inbound loop.
	pendingUserText  string
	pendingAgentText string
}

// Connect opens a live session: allocates both audio devices, dials the
// endpoint, performs the setup handshake, and starts capture. It fails with
// an auth error when the credential is missing or rejected, a device error
// when a device cannot be opened, and a connection error on transport
// failure.
func Connect(ctx context.Context, cfg Config) (*Session, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, core.NewAuthError("missing API key (set GEMINI_API_KEY or GOOGLE_API_KEY)")
	}
	applyDefaults(&cfg)

	speaker, err := cfg.OpenSpeaker()
	if err != nil {
		return nil, core.NewDeviceError("open speaker", err)
	}
	mic, err := cfg.OpenMic()
	if err != nil {
		_ = speaker.Close()
		return nil, core.NewDeviceError("open microphone", err)
	}

	conn, err := dial(ctx, cfg)
	if err != nil {
		_ = mic.Close()
		_ = speaker.Close()
		return nil, err
	}

	if err := handshake(conn, cfg); err != nil {
		_ = conn.Close()
		_ = mic.Close()
		_ = speaker.Close()
		return nil, err
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		conn:     conn,
		logger:   cfg.Logger,
		ctx:      sessionCtx,
		cancel:   cancel,
		events:   make(chan Event, 256),
		done:     make(chan struct{}),
		outbound: make(chan protocol.ClientMessage, 64),
		speaker:  speaker,
		sched:    NewScheduler(speaker, protocol.PlaybackSampleRateHz, WithClock(cfg.Clock)),
	}

	go s.sendLoop()
	s.capture = newCapturePipeline(mic, cfg.BlockSamples, s.queueAudioFrame, s.captureFailed)
	go s.readLoop()

	s.emit(OpenEvent{SessionID: s.id})
	s.logger.Info("live session open", "session_id", s.id, "model", cfg.Model)
	return s, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Tools == nil {
		cfg.Tools = []protocol.FunctionDeclaration{EditImageTool()}
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.BlockSamples <= 0 {
		cfg.BlockSamples = DefaultCaptureBlockSamples
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.OpenMic == nil {
		cfg.OpenMic = defaultOpenMic
	}
	if cfg.OpenSpeaker == nil {
		cfg.OpenSpeaker = defaultOpenSpeaker
	}
}

func dial(ctx context.Context, cfg Config) (*websocket.Conn, error) {
	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}

	endpoint := cfg.Endpoint + "?key=" + url.QueryEscape(cfg.APIKey)
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, core.NewAuthError(fmt.Sprintf("live endpoint rejected credential (status %d)", resp.StatusCode))
		}
		return nil, core.NewConnectionError("dial live endpoint", err)
	}
	return conn, nil
}

// handshake sends the setup frame and waits for setupComplete.
func handshake(conn *websocket.Conn, cfg Config) error {
	setup := protocol.ClientMessage{
		Setup: &protocol.Setup{
			Model: cfg.Model,
			GenerationConfig: &protocol.GenerationConfig{
				ResponseModalities: []string{"AUDIO"},
				SpeechConfig: &protocol.SpeechConfig{
					VoiceConfig: &protocol.VoiceConfig{
						PrebuiltVoiceConfig: &protocol.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
					},
				},
			},
			SystemInstruction: &protocol.Content{
				Parts: []protocol.Part{{Text: cfg.SystemPrompt}},
			},
			Tools:                    []protocol.Tool{{FunctionDeclarations: cfg.Tools}},
			InputAudioTranscription:  &struct{}{},
			OutputAudioTranscription: &struct{}{},
		},
	}
	if err := conn.WriteJSON(setup); err != nil {
		return core.NewConnectionError("send live setup", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(defaultConnectTimeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		return core.NewConnectionError("read setup ack", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	msg, err := protocol.DecodeServerMessage(payload)
	if err != nil {
		return core.NewConnectionError("decode setup ack", err)
	}
	if msg.SetupComplete == nil {
		return core.NewConnectionError("live endpoint did not acknowledge setup", nil)
	}
	return nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Events yields the session's ordered event stream. The channel closes after
// ClosedEvent once the inbound loop exits.
func (s *Session) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.events
}

// SendImageFrame submits image bytes as a visual context frame, best-effort.
// A data-URL prefix is stripped; the payload is forwarded as an image/jpeg
// media chunk. No-op once the session is closed.
func (s *Session) SendImageFrame(image string) {
	if s == nil || s.state.Load() == stateClosed {
		return
	}
	if idx := strings.Index(image, "base64,"); idx >= 0 {
		image = image[idx+len("base64,"):]
	}
	s.queueMessage(protocol.ClientMessage{
		RealtimeInput: &protocol.RealtimeInput{
			MediaChunks: []protocol.MediaChunk{{MIMEType: protocol.ImageMIMEType, Data: image}},
		},
	})
}

// queueAudioFrame runs on the capture pipeline's goroutine for every
// converted block. It must never block on network I/O, so the frame is queued
// for the sender and dropped if the queue is full.
func (s *Session) queueAudioFrame(pcm []byte) {
	if s.state.Load() == stateClosed {
		return
	}
	s.queueMessage(protocol.ClientMessage{
		RealtimeInput: &protocol.RealtimeInput{
			MediaChunks: []protocol.MediaChunk{{
				MIMEType: protocol.CaptureMIMEType,
				Data:     base64.StdEncoding.EncodeToString(pcm),
			}},
		},
	})
}

func (s *Session) queueMessage(msg protocol.ClientMessage) {
	select {
	case s.outbound <- msg:
	case <-s.done:
	default:
		s.logger.Debug("outbound queue full, dropping frame", "session_id", s.id)
	}
}

func (s *Session) sendLoop() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.outbound:
			if err := s.sendJSON(msg); err != nil && s.state.Load() != stateClosed {
				s.logger.Warn("live send failed", "session_id", s.id, "error", err)
			}
		}
	}
}

func (s *Session) sendJSON(v any) error {
	if s.state.Load() == stateClosed {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *Session) captureFailed(err error) {
	s.emit(ErrorEvent{Err: core.NewDeviceError("microphone capture", err)})
}

// readLoop processes inbound messages strictly in arrival order. It is the
// only writer of the playback cursor and the transcript accumulators.
func (s *Session) readLoop() {
	defer func() {
		// Capture is the only producer outside this loop; it must be fully
		// stopped before the event channel closes or a late device failure
		// would emit on a closed channel.
		s.capture.stop()
		s.pendingUserText = ""
		s.pendingAgentText = ""
		select {
		case s.events <- ClosedEvent{}:
		default:
		}
		close(s.events)
	}()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if s.state.Load() != stateClosed && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.emit(ErrorEvent{Err: core.NewConnectionError("live connection lost", err)})
			}
			return
		}
		msg, err := protocol.DecodeServerMessage(payload)
		if err != nil {
			s.logger.Warn("undecodable live frame", "session_id", s.id, "error", err)
			continue
		}
		s.handleMessage(msg)
	}
}

// handleMessage dispatches one inbound frame. A single frame may carry audio,
// transcription fragments, a turn-complete signal, and a tool-call batch
// independently.
func (s *Session) handleMessage(msg *protocol.ServerMessage) {
	if msg.GoAway != nil {
		s.logger.Warn("live endpoint going away", "session_id", s.id, "time_left", msg.GoAway.TimeLeft)
	}

	if sc := msg.ServerContent; sc != nil {
		for _, blob := range sc.AudioParts() {
			s.schedulePlayback(blob)
		}
		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			s.pendingUserText += sc.InputTranscription.Text
			s.emit(TranscriptEvent{Text: s.pendingUserText, Source: SourceUser})
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			s.pendingAgentText += sc.OutputTranscription.Text
			s.emit(TranscriptEvent{Text: s.pendingAgentText, Source: SourceAgent})
		}
		if sc.Interrupted {
			s.sched.Flush()
			if err := s.speaker.Reset(); err != nil {
				s.logger.Warn("speaker reset failed", "session_id", s.id, "error", err)
			}
			s.emit(InterruptedEvent{})
		}
		if sc.TurnComplete {
			s.emit(TranscriptEvent{Text: s.pendingAgentText, Source: SourceAgent, Final: true})
			s.pendingUserText = ""
			s.pendingAgentText = ""
		}
	}

	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		s.handleToolCall(msg.ToolCall)
	}
}

func (s *Session) schedulePlayback(blob *protocol.Blob) {
	raw, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		s.logger.Warn("undecodable audio chunk", "session_id", s.id, "error", err)
		return
	}
	samples := PCM16ToFloat(raw)
	start := s.sched.Schedule(FloatToPCM16(samples))
	s.emit(AudioScheduledEvent{
		Start:    start,
		Duration: SampleDuration(len(samples), protocol.PlaybackSampleRateHz),
	})
}

// handleToolCall executes every invocation of the batch. Invocations run
// concurrently relative to each other, but all must complete before the
// consolidated response is sent, and the batch blocks the inbound loop so no
// later message is processed first.
func (s *Session) handleToolCall(tc *protocol.ToolCall) {
	results := make([]protocol.FunctionResponse, len(tc.FunctionCalls))

	g := new(errgroup.Group)
	for i, call := range tc.FunctionCalls {
		s.emit(ToolCallEvent{ID: call.ID, Name: call.Name, Args: call.Args})
		g.Go(func() error {
			results[i] = s.runTool(call)
			return nil
		})
	}
	_ = g.Wait()

	if err := s.sendJSON(protocol.ClientMessage{
		ToolResponse: &protocol.ToolResponse{FunctionResponses: results},
	}); err != nil && s.state.Load() != stateClosed {
		s.logger.Warn("tool response send failed", "session_id", s.id, "error", err)
	}
}

// runTool executes one invocation and always produces a correlated result.
// Handler errors and panics are reported as {error: message} rather than
// propagated as a session failure.
func (s *Session) runTool(call protocol.FunctionCall) (resp protocol.FunctionResponse) {
	resp = protocol.FunctionResponse{ID: call.ID, Name: call.Name}

	defer func() {
		if r := recover(); r != nil {
			resp.Response = map[string]any{"error": fmt.Sprintf("tool handler panic: %v", r)}
			s.logger.Error("tool handler panic", "session_id", s.id, "tool", call.Name, "panic", r)
		}
	}()

	if s.cfg.ToolHandler == nil {
		resp.Response = map[string]any{"error": fmt.Sprintf("no handler registered for tool %q", call.Name)}
		return resp
	}

	out, err := s.cfg.ToolHandler(s.ctx, ToolInvocation{ID: call.ID, Name: call.Name, Args: call.Args})
	if err != nil {
		resp.Response = map[string]any{"error": err.Error()}
		s.logger.Warn("tool handler failed", "session_id", s.id, "tool", call.Name, "error", err)
		return resp
	}
	if out == "" {
		out = "success"
	}
	resp.Response = map[string]any{"result": out}
	return resp
}

// Disconnect tears the session down: capture stream, processing stage, and
// source first, then both device contexts, then the connection. Idempotent
// and safe to call from any state; outstanding sends become no-ops.
func (s *Session) Disconnect() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.state.Store(stateClosed)
		s.cancel()
		close(s.done)

		s.capture.stop()
		s.sched.Close()
		_ = s.speaker.Close()

		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()

		s.logger.Info("live session closed", "session_id", s.id)
	})
}

func (s *Session) emit(event Event) {
	select {
	case s.events <- event:
	case <-s.done:
	default:
		// Do not let a stalled consumer block the inbound loop.
		s.logger.Debug("event dropped", "session_id", s.id, "event", event.eventType())
	}
}

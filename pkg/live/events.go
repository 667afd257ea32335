package live

import "time"

// Source identifies which side of the conversation a transcript belongs to.
type Source string

const (
	SourceUser  Source = "user"
	SourceAgent Source = "agent"
)

// Event is delivered on the session's single ordered channel. Events are
// emitted by the inbound loop in arrival order and never concurrently.
type Event interface {
	eventType() string
}

// OpenEvent fires once after the setup handshake completes and capture has
// started.
type OpenEvent struct {
	SessionID string
}

func (OpenEvent) eventType() string { return "open" }

// TranscriptEvent carries the accumulated transcript text for one source.
// Final is true only for the agent text emitted on turn completion.
type TranscriptEvent struct {
	Text   string
	Source Source
	Final  bool
}

func (TranscriptEvent) eventType() string { return "transcript" }

// AudioScheduledEvent reports that a playback chunk was scheduled.
type AudioScheduledEvent struct {
	Start    time.Time
	Duration time.Duration
}

func (AudioScheduledEvent) eventType() string { return "audio_scheduled" }

// InterruptedEvent fires when the remote side interrupts its own turn and
// queued playback is flushed.
type InterruptedEvent struct{}

func (InterruptedEvent) eventType() string { return "interrupted" }

// ToolCallEvent reports one invocation of a remote-requested tool, emitted
// before its handler runs.
type ToolCallEvent struct {
	ID   string
	Name string
	Args map[string]any
}

func (ToolCallEvent) eventType() string { return "tool_call" }

// ErrorEvent surfaces transport or device failures. The session is unusable
// afterwards and the controller is expected to call Disconnect.
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) eventType() string { return "error" }

// ClosedEvent is the last event on the channel before it closes.
type ClosedEvent struct{}

func (ClosedEvent) eventType() string { return "closed" }

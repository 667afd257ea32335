// Package protocol defines the wire format of the Gemini Live
// (BidiGenerateContent) WebSocket API: the client setup/realtime-input/tool
// frames and the server content/tool-call frames this application consumes.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// CaptureMIMEType tags outbound microphone media chunks.
	CaptureMIMEType = "audio/pcm;rate=16000"
	// ImageMIMEType tags outbound visual context frames.
	ImageMIMEType = "image/jpeg"

	// CaptureSampleRateHz is the fixed microphone sample rate.
	CaptureSampleRateHz = 16000
	// PlaybackSampleRateHz is the fixed model audio output rate.
	PlaybackSampleRateHz = 24000
)

// Content is a turn fragment: an ordered list of parts with an optional role.
type Content struct {
	Parts []Part `json:"parts,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Part carries either text or inline binary data, never both.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob is base64 payload data tagged with a mime type.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Schema is the subset of JSON schema the function declarations use.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// FunctionDeclaration declares one remote-invokable capability.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Tool groups function declarations for the setup frame.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

// SpeechConfig selects the voice persona.
type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

// VoiceConfig wraps the prebuilt voice selection.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// PrebuiltVoiceConfig names a stock voice.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName,omitempty"`
}

// GenerationConfig controls response modality and voice.
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

// Setup is the first client frame on a live connection.
type Setup struct {
	Model                    string            `json:"model"`
	GenerationConfig         *GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction        *Content          `json:"systemInstruction,omitempty"`
	Tools                    []Tool            `json:"tools,omitempty"`
	InputAudioTranscription  *struct{}         `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}         `json:"outputAudioTranscription,omitempty"`
}

// MediaChunk is one realtime-input payload: base64 data plus mime/rate tag.
type MediaChunk struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// RealtimeInput streams capture media to the endpoint.
type RealtimeInput struct {
	MediaChunks []MediaChunk `json:"mediaChunks,omitempty"`
}

// FunctionResponse answers one tool invocation, correlated by ID.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// ToolResponse carries the full set of results for a tool-call batch.
type ToolResponse struct {
	FunctionResponses []FunctionResponse `json:"functionResponses"`
}

// ClientMessage is the envelope for every outbound frame. Exactly one field
// is set per frame.
type ClientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
	ToolResponse  *ToolResponse  `json:"toolResponse,omitempty"`
}

// Transcription is an incremental transcript fragment for one direction.
type Transcription struct {
	Text string `json:"text,omitempty"`
}

// ServerContent is the model-turn portion of a server frame. Any combination
// of fields may be present in a single frame.
type ServerContent struct {
	ModelTurn           *Content       `json:"modelTurn,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
}

// FunctionCall is one remote tool invocation.
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolCall batches one or more invocations in a single frame.
type ToolCall struct {
	FunctionCalls []FunctionCall `json:"functionCalls,omitempty"`
}

// GoAway warns that the server will close the connection.
type GoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// ServerMessage is the envelope for every inbound frame.
type ServerMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
	ToolCall      *ToolCall      `json:"toolCall,omitempty"`
	GoAway        *GoAway        `json:"goAway,omitempty"`
}

// DecodeServerMessage parses one inbound frame.
func DecodeServerMessage(data []byte) (*ServerMessage, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode live server frame: %w", err)
	}
	return &msg, nil
}

// AudioParts returns the inline audio blobs of a model turn, in order.
func (c *ServerContent) AudioParts() []*Blob {
	if c == nil || c.ModelTurn == nil {
		return nil
	}
	var blobs []*Blob
	for _, part := range c.ModelTurn.Parts {
		if part.InlineData == nil {
			continue
		}
		if strings.HasPrefix(part.InlineData.MIMEType, "audio/pcm") {
			blobs = append(blobs, part.InlineData)
		}
	}
	return blobs
}

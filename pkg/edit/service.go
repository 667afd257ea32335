// Package edit implements the edit request service: given an image and a
// text instruction, it asks an image-capable Gemini model for a new image.
package edit

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/vocalens/vocalens/pkg/core"
)

// DefaultModel is the image generation model used for edits.
const DefaultModel = "gemini-2.5-flash-image-preview"

// Service issues image edit requests. Stateless between calls; safe for
// concurrent use.
type Service struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithModel overrides the edit model.
func WithModel(model string) Option {
	return func(s *Service) { s.model = model }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates an edit service holding the single API credential.
func NewService(ctx context.Context, apiKey string, opts ...Option) (*Service, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, core.NewAuthError("missing API key for image editing")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, core.NewConnectionError("create genai client", err)
	}
	s := &Service{
		client: client,
		model:  DefaultModel,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EditImage sends the image and instruction to the model and returns the
// edited image as a PNG data URL. The image may be a data URL or raw base64.
func (s *Service) EditImage(ctx context.Context, image, instruction string) (string, error) {
	mimeType, raw, err := DecodeImagePayload(image)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: raw}},
			{Text: instruction},
		},
	}}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	s.logger.Info("edit request", "model", s.model, "instruction", instruction)
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return "", core.NewEditRequestError(fmt.Sprintf("edit request failed: %v", err))
	}
	return ImageFromResponse(resp)
}

// DecodeImagePayload accepts a data URL or raw base64 and returns the mime
// type and decoded bytes.
func DecodeImagePayload(image string) (string, []byte, error) {
	mimeType := "image/png"
	payload := image
	if strings.HasPrefix(image, "data:") {
		idx := strings.Index(image, "base64,")
		if idx < 0 {
			return "", nil, core.NewEditRequestError("image data URL is not base64-encoded")
		}
		meta := image[len("data:"):idx]
		if sep := strings.Index(meta, ";"); sep >= 0 {
			meta = meta[:sep]
		}
		if meta != "" {
			mimeType = meta
		}
		payload = image[idx+len("base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, core.NewEditRequestError("image payload is not valid base64")
	}
	if len(raw) == 0 {
		return "", nil, core.NewEditRequestError("image payload is empty")
	}
	return mimeType, raw, nil
}

// ImageFromResponse extracts the edited image from a model response and
// returns it as a PNG data URL. Every unusable-response shape gets its own
// descriptive error.
func ImageFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", core.NewEditRequestError("no response candidate returned")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		if cand.FinishReason != "" && cand.FinishReason != genai.FinishReasonStop {
			return "", core.NewEditRequestError(fmt.Sprintf("edit stopped without content (finish reason: %s)", cand.FinishReason))
		}
		return "", core.NewEditRequestError("response content has no parts")
	}
	for _, part := range cand.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return "data:image/png;base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
		}
	}
	return "", core.NewEditRequestError("no part carries image data")
}

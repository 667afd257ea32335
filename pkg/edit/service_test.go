package edit

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/vocalens/vocalens/pkg/core"
)

func TestNewService_MissingAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewService(context.Background(), "  ")
	if !core.IsType(err, core.ErrAuth) {
		t.Fatalf("error = %v, want auth error", err)
	}
}

func TestDecodeImagePayload(t *testing.T) {
	t.Parallel()

	payload := base64.StdEncoding.EncodeToString([]byte("pixels"))

	cases := []struct {
		name     string
		in       string
		wantMIME string
		wantErr  bool
	}{
		{name: "raw base64", in: payload, wantMIME: "image/png"},
		{name: "png data url", in: "data:image/png;base64," + payload, wantMIME: "image/png"},
		{name: "jpeg data url", in: "data:image/jpeg;base64," + payload, wantMIME: "image/jpeg"},
		{name: "data url without mime", in: "data:;base64," + payload, wantMIME: "image/png"},
		{name: "data url not base64", in: "data:image/png," + payload, wantErr: true},
		{name: "invalid base64", in: "not//valid??", wantErr: true},
		{name: "empty payload", in: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mime, raw, err := DecodeImagePayload(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !core.IsType(err, core.ErrEditRequest) {
					t.Fatalf("error = %v, want edit request error", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if mime != tc.wantMIME {
				t.Fatalf("mime = %q, want %q", mime, tc.wantMIME)
			}
			if string(raw) != "pixels" {
				t.Fatalf("raw = %q", raw)
			}
		})
	}
}

func TestImageFromResponse(t *testing.T) {
	t.Parallel()

	pixels := []byte{1, 2, 3}

	t.Run("image part", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here you go"},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: pixels}},
			}},
		}}}
		got, err := ImageFromResponse(resp)
		if err != nil {
			t.Fatal(err)
		}
		want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pixels)
		if got != want {
			t.Fatalf("image = %q, want %q", got, want)
		}
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()

		if _, err := ImageFromResponse(nil); !core.IsType(err, core.ErrEditRequest) {
			t.Fatalf("error = %v, want edit request error", err)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()

		_, err := ImageFromResponse(&genai.GenerateContentResponse{})
		if !core.IsType(err, core.ErrEditRequest) {
			t.Fatalf("error = %v, want edit request error", err)
		}
	})

	t.Run("blocked finish reason", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonSafety,
		}}}
		_, err := ImageFromResponse(resp)
		if err == nil || !strings.Contains(err.Error(), "SAFETY") {
			t.Fatalf("error = %v, want finish reason in message", err)
		}
	})

	t.Run("text only", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "cannot do that"}}},
		}}}
		if _, err := ImageFromResponse(resp); !core.IsType(err, core.ErrEditRequest) {
			t.Fatalf("error = %v, want edit request error", err)
		}
	})
}

package live

import "testing"

func TestEditImageTool_Declaration(t *testing.T) {
	t.Parallel()

	decl := EditImageTool()
	if decl.Name != EditImageToolName {
		t.Fatalf("name = %q, want %q", decl.Name, EditImageToolName)
	}
	prompt, ok := decl.Parameters.Properties["prompt"]
	if !ok || prompt.Type != "STRING" {
		t.Fatalf("prompt parameter = %+v, want a string property", prompt)
	}
	if len(decl.Parameters.Required) != 1 || decl.Parameters.Required[0] != "prompt" {
		t.Fatalf("required = %v, want [prompt]", decl.Parameters.Required)
	}
}

func TestPromptArg(t *testing.T) {
	t.Parallel()

	inv := ToolInvocation{Args: map[string]any{"prompt": "add a hat"}}
	if got := PromptArg(inv); got != "add a hat" {
		t.Fatalf("PromptArg = %q", got)
	}
	if got := PromptArg(ToolInvocation{}); got != "" {
		t.Fatalf("PromptArg on empty args = %q, want empty", got)
	}
	if got := PromptArg(ToolInvocation{Args: map[string]any{"prompt": 7}}); got != "" {
		t.Fatalf("PromptArg on non-string = %q, want empty", got)
	}
}

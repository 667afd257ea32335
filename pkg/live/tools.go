package live

import "github.com/vocalens/vocalens/pkg/live/protocol"

// EditImageToolName is the capability the remote agent invokes to edit the
// image the user is looking at.
const EditImageToolName = "edit_image"

// EditImageTool returns the edit_image function declaration sent with the
// setup frame: one required string parameter, prompt.
func EditImageTool() protocol.FunctionDeclaration {
	return protocol.FunctionDeclaration{
		Name: EditImageToolName,
		Description: "Edits the image the user is currently viewing. Call this " +
			"whenever the user asks for any change to the picture.",
		Parameters: &protocol.Schema{
			Type: "OBJECT",
			Properties: map[string]*protocol.Schema{
				"prompt": {
					Type:        "STRING",
					Description: "A concise instruction describing the requested edit.",
				},
			},
			Required: []string{"prompt"},
		},
	}
}

// PromptArg extracts the prompt argument of an edit_image invocation.
func PromptArg(inv ToolInvocation) string {
	if v, ok := inv.Args["prompt"].(string); ok {
		return v
	}
	return ""
}

package app

import (
	"strings"

	"canvas/internal/history"
)

// renderTranscript renders the conversation plus any in-flight assistant
// draft. Assistant content goes through the markdown renderer; user turns
// stay plain.
func renderTranscript(turns []history.Turn, draft string, width int) string {
	if len(turns) == 0 && draft == "" {
		return helpStyle.Render("No conversation yet.")
	}
	var blocks []string
	for _, turn := range turns {
		blocks = append(blocks, renderTurn(turn, width))
	}
	if draft != "" {
		blocks = append(blocks,
			roleAgentStyle.Render("assistant")+"\n"+draftStyle.Render(draft+"▌"))
	}
	return strings.Join(blocks, "\n\n")
}

func renderTurn(turn history.Turn, width int) string {
	switch turn.Role {
	case "user":
		return roleUserStyle.Render("user") + "\n" + turn.Content
	default:
		return roleAgentStyle.Render(turn.Role) + "\n" + renderMarkdown(turn.Content, width)
	}
}

package chat

import (
	"fmt"
	"strings"

	"github.com/ublc/libchat/core"
)

// DefaultPersona is the system persona embedded in every completion prompt.
const DefaultPersona = `You are LibBot, the friendly assistant of the University Book Library Center (UBLC).
You help students find books, answer questions about library hours and policies, and guide them through book reservations.
Keep answers short, warm and factual. If you do not know something, say so and suggest asking the front desk.
Library hours: 7:00 AM - 9:00 PM Monday to Friday, 8:00 AM - 5:00 PM Saturday, closed Sunday.`

// BuildPrompt assembles the completion prompt: persona, live catalog, up to
// the last three history turns, then the current message.
func BuildPrompt(persona string, books []core.Book, history []core.Turn, userMessage string) string {
	var sb strings.Builder
	sb.WriteString(persona)
	sb.WriteString("\n\n")

	if len(books) > 0 {
		sb.WriteString("Current catalog:\n")
		for _, b := range books {
			fmt.Fprintf(&sb, "- %s by %s (%d copies available)\n", b.Title, b.Author, b.CopiesAvailable)
		}
		sb.WriteString("\n")
	}

	if len(history) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, turn := range history {
			role := "User"
			if turn.Role == "assistant" {
				role = "Assistant"
			}
			fmt.Fprintf(&sb, "%s: %s\n", role, turn.Text)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "User: %s\nAssistant:", userMessage)
	return sb.String()
}

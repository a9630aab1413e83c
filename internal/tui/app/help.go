package app

import (
	_ "embed"
	"log"

	"github.com/charmbracelet/glamour"
)

//go:embed help.md
var helpMarkdown string

// renderHelp renders the help page for the given terminal width. Glamour
// failures fall back to the raw Markdown.
func renderHelp(width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(40, width-4)),
	)
	if err != nil {
		log.Printf("[tui] help renderer: %v", err)
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		log.Printf("[tui] rendering help: %v", err)
		return helpMarkdown
	}
	return out
}

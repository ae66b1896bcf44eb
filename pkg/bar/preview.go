package bar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/pulsebar/pkg/widgets"
)

// Preview runs a single update pass and renders the bar as an ANSI-styled
// line for the terminal, so a configuration can be eyeballed without
// attaching a bar host.
func (b *Bar) Preview() string {
	for _, blk := range b.blocks {
		b.updateBlock(blk)
	}

	sep := lipgloss.NewStyle().
		Foreground(lipgloss.Color(b.shared.Theme.SeparatorFG)).
		Render(" " + b.shared.Theme.Separator + " ")

	var parts []string
	for _, widget := range b.widgets() {
		parts = append(parts, b.previewWidget(widget))
	}
	return strings.Join(parts, sep)
}

func (b *Bar) previewWidget(w *widgets.TextWidget) string {
	colors := w.State().Colors(b.shared.Theme)
	style := lipgloss.NewStyle()
	if colors.FG != "" {
		style = style.Foreground(lipgloss.Color(colors.FG))
	}
	if colors.BG != "" {
		style = style.Background(lipgloss.Color(colors.BG))
	}
	return style.Render(" " + w.FullText() + " ")
}

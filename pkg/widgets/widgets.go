// Package widgets provides the text widget blocks mutate and the bar
// renders. A widget owns its icon, text, and health state; rendering
// resolves those against the shared theme and icon set into a protocol
// block.
package widgets

import (
	"fmt"
	"strconv"

	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
	"gitlab.com/tinyland/lab/pulsebar/pkg/protocol"
	"gitlab.com/tinyland/lab/pulsebar/pkg/theme"
)

// State is the health state of a widget, used for theming.
type State int

// Widget states from calm to alarming.
const (
	StateIdle State = iota
	StateInfo
	StateGood
	StateWarning
	StateCritical
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInfo:
		return "info"
	case StateGood:
		return "good"
	case StateWarning:
		return "warning"
	case StateCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Colors returns the theme fg/bg pair for the state.
func (s State) Colors(t theme.Theme) theme.StateColors {
	switch s {
	case StateInfo:
		return t.Info
	case StateGood:
		return t.Good
	case StateWarning:
		return t.Warning
	case StateCritical:
		return t.Critical
	default:
		return t.Idle
	}
}

// TextWidget is a single bar element: an optional icon, a text body, and a
// health state. Blocks mutate it through the setters; the bar reads it via
// Render. The single-threaded block contract means no locking is needed.
type TextWidget struct {
	id     int
	name   string
	shared *config.Shared

	icon  string // resolved glyph, not the symbolic id
	text  string
	short string
	state State
}

// NewTextWidget creates a widget for the block with the given id. name is
// the block kind (e.g. "timewarrior") and is echoed in click events.
func NewTextWidget(id int, name string, shared *config.Shared) *TextWidget {
	return &TextWidget{id: id, name: name, shared: shared}
}

// SetIcon resolves the symbolic icon id against the shared icon set and
// stores the glyph. Unknown ids are configuration errors.
func (w *TextWidget) SetIcon(id string) error {
	glyph, ok := w.shared.Icons.Get(id)
	if !ok {
		return fmt.Errorf("widget %s: unknown icon %q in set %q", w.name, id, w.shared.Icons.Name)
	}
	w.icon = glyph
	return nil
}

// SetText sets the widget body text.
func (w *TextWidget) SetText(text string) {
	w.text = text
}

// SetShortText sets the abbreviated text used when the bar runs out of room.
func (w *TextWidget) SetShortText(text string) {
	w.short = text
}

// SetState sets the widget health state.
func (w *TextWidget) SetState(s State) {
	w.state = s
}

// State returns the current health state.
func (w *TextWidget) State() State {
	return w.state
}

// Text returns the current body text.
func (w *TextWidget) Text() string {
	return w.text
}

// Icon returns the resolved icon glyph.
func (w *TextWidget) Icon() string {
	return w.icon
}

// FullText returns icon and text joined the way the bar displays them.
func (w *TextWidget) FullText() string {
	if w.icon == "" {
		return w.text
	}
	if w.text == "" {
		return w.icon
	}
	return w.icon + " " + w.text
}

// Render resolves the widget into a protocol block using the shared theme.
// Name carries the block kind and Instance the block id, which is how click
// events find their way back.
func (w *TextWidget) Render() protocol.Block {
	c := w.state.Colors(w.shared.Theme)
	return protocol.Block{
		FullText:   " " + w.FullText() + " ",
		ShortText:  w.short,
		Color:      c.FG,
		Background: c.BG,
		Name:       w.name,
		Instance:   strconv.Itoa(w.id),
	}
}

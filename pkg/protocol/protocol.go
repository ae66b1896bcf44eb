// Package protocol implements the i3bar JSON protocol: an initial header
// object followed by an endless array of status lines on stdout, and an
// endless array of click events on stdin.
//
// Reference: https://i3wm.org/docs/i3bar-protocol.html
package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Header is the first line the bar emits. Version is always 1.
type Header struct {
	Version     int  `json:"version"`
	ClickEvents bool `json:"click_events,omitempty"`
	StopSignal  int  `json:"stop_signal,omitempty"`
	ContSignal  int  `json:"cont_signal,omitempty"`
}

// Block is a single element of a status line.
type Block struct {
	FullText            string `json:"full_text"`
	ShortText           string `json:"short_text,omitempty"`
	Color               string `json:"color,omitempty"`
	Background          string `json:"background,omitempty"`
	Border              string `json:"border,omitempty"`
	MinWidth            string `json:"min_width,omitempty"`
	Align               string `json:"align,omitempty"`
	Name                string `json:"name,omitempty"`
	Instance            string `json:"instance,omitempty"`
	Urgent              bool   `json:"urgent,omitempty"`
	Separator           *bool  `json:"separator,omitempty"`
	SeparatorBlockWidth *int   `json:"separator_block_width,omitempty"`
	Markup              string `json:"markup,omitempty"`
}

// Writer emits the header and status lines. It is safe for concurrent use,
// although pulsebar writes from a single goroutine.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	started bool
}

// NewWriter wraps w, which is normally os.Stdout.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Started reports whether the header has been written. The bar uses it to
// avoid re-emitting the header when blocks are rebuilt on config reload.
func (pw *Writer) Started() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.started
}

// WriteHeader emits the protocol header and opens the endless status array.
// It must be called exactly once, before any status line.
func (pw *Writer) WriteHeader(h Header) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.started {
		return fmt.Errorf("protocol: header already written")
	}
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("protocol: marshal header: %w", err)
	}
	if _, err := fmt.Fprintf(pw.w, "%s\n[\n", data); err != nil {
		return fmt.Errorf("protocol: write header: %w", err)
	}
	pw.started = true
	return nil
}

// WriteStatusLine emits one status line. A nil slice renders as an empty
// line rather than JSON null.
func (pw *Writer) WriteStatusLine(blocks []Block) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.started {
		return fmt.Errorf("protocol: status line before header")
	}
	if blocks == nil {
		blocks = []Block{}
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("protocol: marshal status line: %w", err)
	}
	if _, err := fmt.Fprintf(pw.w, "%s,\n", data); err != nil {
		return fmt.Errorf("protocol: write status line: %w", err)
	}
	return nil
}

// ClickEvent is delivered by i3bar when the user clicks a block. Name and
// Instance echo the corresponding Block fields.
type ClickEvent struct {
	Name      string `json:"name"`
	Instance  string `json:"instance"`
	Button    int    `json:"button"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	RelativeX int    `json:"relative_x"`
	RelativeY int    `json:"relative_y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Mouse button values as delivered by i3bar.
const (
	ButtonLeft      = 1
	ButtonMiddle    = 2
	ButtonRight     = 3
	ButtonWheelUp   = 4
	ButtonWheelDown = 5
)

// ReadClicks decodes the endless click-event array from r and delivers each
// event on ch. It returns when the stream ends or fails to decode; the
// channel is closed on return. Run it in its own goroutine.
func ReadClicks(r io.Reader, ch chan<- ClickEvent) error {
	defer close(ch)

	dec := json.NewDecoder(r)

	// Opening bracket of the endless array.
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("protocol: read click stream: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("protocol: click stream does not open an array, got %v", tok)
	}

	for dec.More() {
		var ev ClickEvent
		if err := dec.Decode(&ev); err != nil {
			return fmt.Errorf("protocol: decode click event: %w", err)
		}
		ch <- ev
	}
	return nil
}

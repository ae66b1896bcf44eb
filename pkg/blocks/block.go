// Package blocks defines the contract between the bar and its blocks, and
// the registry blocks register their constructors with. Each block
// implementation lives in a sub-package (e.g. pkg/blocks/timewarrior) and is
// driven serially by the bar: Update, Click, and View never run
// concurrently for the same block.
package blocks

import (
	"time"

	"github.com/BurntSushi/toml"

	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
	"gitlab.com/tinyland/lab/pulsebar/pkg/protocol"
	"gitlab.com/tinyland/lab/pulsebar/pkg/widgets"
)

// Block is the interface all bar elements implement.
type Block interface {
	// ID returns the bar-assigned block id.
	ID() int

	// Update refreshes the block's widgets and returns the requested time
	// until the next poll. A nil duration means the block does not want
	// periodic rescheduling; it will only update on clicks or tasks.
	Update() (*time.Duration, error)

	// View returns the widgets to render, left to right.
	View() []*widgets.TextWidget

	// Click handles a click event routed to this block. Recoverable
	// failures (e.g. a toggle command exiting non-zero) are reflected in
	// widget state, not returned.
	Click(ev *protocol.ClickEvent) error
}

// Task is an out-of-band update request, delivered to the bar's task
// channel by a block or by the IPC server. A zero When means "as soon as
// possible".
type Task struct {
	ID   int
	When time.Time
}

// Constructor builds a block from its raw TOML table. Implementations must
// decode prim via md so unknown keys surface through MetaData.Undecoded.
// The tasks channel may be retained to request out-of-band updates; the
// baseline blocks do not send on it.
type Constructor func(id int, md *toml.MetaData, prim toml.Primitive, shared *config.Shared, tasks chan<- Task) (Block, error)

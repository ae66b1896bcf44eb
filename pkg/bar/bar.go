// Package bar assembles blocks from configuration and drives them: periodic
// updates, click dispatch, and status-line emission. All block methods are
// called from the single Run goroutine, which is what lets blocks stay
// lock-free.
package bar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
	"gitlab.com/tinyland/lab/pulsebar/pkg/protocol"
	"gitlab.com/tinyland/lab/pulsebar/pkg/widgets"
)

// retryInterval is how long the bar waits before re-polling a block whose
// update failed. Transient faults (tracker not running yet, command missing)
// should not freeze a block forever.
const retryInterval = 30 * time.Second

// idleWait is the timer used when no block has a pending deadline.
const idleWait = time.Hour

// Bar owns the configured blocks and the protocol writer.
type Bar struct {
	shared *config.Shared
	blocks []blocks.Block
	writer *protocol.Writer
	tasks  chan blocks.Task
	log    *slog.Logger

	// deadlines maps block id to its next scheduled update. Absent means
	// the block did not ask to be rescheduled.
	deadlines map[int]time.Time

	// status is a snapshot of the widgets taken after each update pass.
	// Widgets themselves are only touched from the Run goroutine; the IPC
	// server reads this snapshot instead.
	statusMu sync.Mutex
	status   []Status
}

// New constructs every configured block and wires the shared task channel.
// After construction the configuration is checked for keys nothing decoded;
// unknown keys abort startup.
func New(cfg *config.Config, shared *config.Shared, out io.Writer) (*Bar, error) {
	return NewWithWriter(cfg, shared, protocol.NewWriter(out))
}

// NewWithWriter is New with a caller-owned protocol writer. Config reloads
// rebuild the Bar but keep the writer, since the protocol header may be
// emitted only once per stream.
func NewWithWriter(cfg *config.Config, shared *config.Shared, pw *protocol.Writer) (*Bar, error) {
	tasks := make(chan blocks.Task, 16)

	blks := make([]blocks.Block, 0, len(cfg.Blocks))
	for i := range cfg.Blocks {
		kind, err := cfg.BlockKind(i)
		if err != nil {
			return nil, err
		}
		blk, err := blocks.New(kind, i, cfg.Meta(), cfg.Blocks[i], shared, tasks)
		if err != nil {
			return nil, err
		}
		blks = append(blks, blk)
	}

	if err := cfg.CheckUndecoded(); err != nil {
		return nil, err
	}

	return &Bar{
		shared:    shared,
		blocks:    blks,
		writer:    pw,
		tasks:     tasks,
		log:       shared.Logger,
		deadlines: make(map[int]time.Time),
	}, nil
}

// Tasks returns the channel external components (IPC, future blocks) use to
// request out-of-band updates.
func (b *Bar) Tasks() chan<- blocks.Task {
	return b.tasks
}

// BlockIDs returns the ids of all configured blocks, in bar order.
func (b *Bar) BlockIDs() []int {
	ids := make([]int, len(b.blocks))
	for i, blk := range b.blocks {
		ids[i] = blk.ID()
	}
	return ids
}

// Run emits the protocol header and drives the block loop until ctx is
// cancelled. Click events are consumed from clicks, which may be nil when
// the caller has no stdin stream (e.g. previews).
func (b *Bar) Run(ctx context.Context, clicks <-chan protocol.ClickEvent) error {
	if !b.writer.Started() {
		if err := b.writer.WriteHeader(protocol.Header{Version: 1, ClickEvents: true}); err != nil {
			return err
		}
	}

	for _, blk := range b.blocks {
		b.updateBlock(blk)
	}
	if err := b.render(); err != nil {
		return err
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		wait := b.nextWait(time.Now())
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:
			now := time.Now()
			for _, blk := range b.blocks {
				if due, ok := b.deadlines[blk.ID()]; ok && !due.After(now) {
					b.updateBlock(blk)
				}
			}
			if err := b.render(); err != nil {
				return err
			}

		case task := <-b.tasks:
			if blk := b.blockByID(task.ID); blk != nil {
				b.updateBlock(blk)
				if err := b.render(); err != nil {
					return err
				}
			}

		case ev, ok := <-clicks:
			if !ok {
				// i3bar closed stdin; keep running on timers alone.
				clicks = nil
				continue
			}
			b.dispatchClick(&ev)
			if err := b.render(); err != nil {
				return err
			}
		}
	}
}

// RunOnce performs a single update pass and writes a plain-text rendition
// of the bar to w. Used by the -once flag for scripting and debugging.
func (b *Bar) RunOnce(w io.Writer) error {
	for _, blk := range b.blocks {
		b.updateBlock(blk)
	}
	b.snapshotStatuses()

	var parts []string
	for _, widget := range b.widgets() {
		parts = append(parts, widget.FullText())
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " | "))
	return err
}

// Status describes one widget for the IPC STATUS command.
type Status struct {
	Name     string `json:"name"`
	Instance string `json:"instance"`
	Text     string `json:"full_text"`
	State    string `json:"state"`
}

// Statuses returns the snapshot taken after the most recent update pass.
// Safe to call from any goroutine.
func (b *Bar) Statuses() []Status {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	return append([]Status(nil), b.status...)
}

// snapshotStatuses captures the current widget state for Statuses. Must run
// on the goroutine that owns the widgets.
func (b *Bar) snapshotStatuses() {
	var out []Status
	for _, widget := range b.widgets() {
		blk := widget.Render()
		out = append(out, Status{
			Name:     blk.Name,
			Instance: blk.Instance,
			Text:     widget.FullText(),
			State:    widget.State().String(),
		})
	}
	b.statusMu.Lock()
	b.status = out
	b.statusMu.Unlock()
}

// updateBlock runs one block update and reschedules it: the returned
// interval on success, retryInterval on failure, never on a nil interval.
func (b *Bar) updateBlock(blk blocks.Block) {
	next, err := blk.Update()
	switch {
	case err != nil:
		b.log.Warn("block update failed", "id", blk.ID(), "error", err)
		b.deadlines[blk.ID()] = time.Now().Add(retryInterval)
	case next != nil:
		b.deadlines[blk.ID()] = time.Now().Add(*next)
	default:
		delete(b.deadlines, blk.ID())
	}
}

// dispatchClick routes a click event to the block named by its instance.
func (b *Bar) dispatchClick(ev *protocol.ClickEvent) {
	id, err := strconv.Atoi(ev.Instance)
	if err != nil {
		b.log.Debug("click with unroutable instance", "instance", ev.Instance)
		return
	}
	blk := b.blockByID(id)
	if blk == nil {
		b.log.Debug("click for unknown block", "id", id)
		return
	}
	if err := blk.Click(ev); err != nil {
		b.log.Warn("block click failed", "id", id, "error", err)
	}
}

// render writes one status line from the current widget state.
func (b *Bar) render() error {
	b.snapshotStatuses()

	var line []protocol.Block
	for _, widget := range b.widgets() {
		line = append(line, widget.Render())
	}
	return b.writer.WriteStatusLine(line)
}

// widgets flattens every block's view, left to right.
func (b *Bar) widgets() []*widgets.TextWidget {
	var all []*widgets.TextWidget
	for _, blk := range b.blocks {
		all = append(all, blk.View()...)
	}
	return all
}

// nextWait computes the sleep until the earliest pending deadline.
func (b *Bar) nextWait(now time.Time) time.Duration {
	wait := idleWait
	for _, due := range b.deadlines {
		d := due.Sub(now)
		if d < 0 {
			d = 0
		}
		if d < wait {
			wait = d
		}
	}
	return wait
}

func (b *Bar) blockByID(id int) blocks.Block {
	for _, blk := range b.blocks {
		if blk.ID() == id {
			return blk
		}
	}
	return nil
}

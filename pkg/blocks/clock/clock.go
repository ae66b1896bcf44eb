// Package clock implements a local time block. A click toggles between the
// primary and secondary layout, which defaults to a full date.
package clock

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/BurntSushi/toml"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
	"gitlab.com/tinyland/lab/pulsebar/pkg/protocol"
	"gitlab.com/tinyland/lab/pulsebar/pkg/widgets"
)

// BlockKind is the config name this block registers under.
const BlockKind = "clock"

func init() {
	blocks.Register(BlockKind, New)
}

type blockConfig struct {
	Interval config.Duration `toml:"interval"`

	// Layout and LayoutAlt are Go reference-time layouts.
	Layout    string `toml:"layout"`
	LayoutAlt string `toml:"layout_alt"`

	// Timezone is an IANA zone name; empty means local time.
	Timezone string `toml:"timezone"`

	Icon string `toml:"icon"`
}

func defaultBlockConfig() blockConfig {
	return blockConfig{
		Interval:  config.Duration{Duration: time.Minute},
		Layout:    "Mon 15:04",
		LayoutAlt: "Mon 2 Jan 2006 15:04:05",
		Icon:      "time",
	}
}

// Clock is the block state.
type Clock struct {
	id     int
	widget *widgets.TextWidget
	log    *slog.Logger

	layouts  [2]string
	alt      int
	loc      *time.Location
	interval time.Duration

	// now is the clock source, swapped in tests.
	now func() time.Time
}

// New constructs the block from its raw TOML table.
func New(id int, md *toml.MetaData, prim toml.Primitive, shared *config.Shared, tasks chan<- blocks.Task) (blocks.Block, error) {
	cfg := defaultBlockConfig()
	if err := md.PrimitiveDecode(prim, &cfg); err != nil {
		return nil, err
	}

	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", cfg.Timezone, err)
		}
	}
	if _, ok := shared.Icons.Get(cfg.Icon); !ok {
		return nil, fmt.Errorf("unknown icon %q in set %q", cfg.Icon, shared.Icons.Name)
	}

	widget := widgets.NewTextWidget(id, BlockKind, shared)
	if err := widget.SetIcon(cfg.Icon); err != nil {
		return nil, err
	}

	return &Clock{
		id:       id,
		widget:   widget,
		log:      shared.Logger.With("block", BlockKind, "id", id),
		layouts:  [2]string{cfg.Layout, cfg.LayoutAlt},
		loc:      loc,
		interval: cfg.Interval.Duration,
		now:      time.Now,
	}, nil
}

// ID implements blocks.Block.
func (b *Clock) ID() int {
	return b.id
}

// View implements blocks.Block.
func (b *Clock) View() []*widgets.TextWidget {
	return []*widgets.TextWidget{b.widget}
}

// Update implements blocks.Block.
func (b *Clock) Update() (*time.Duration, error) {
	b.widget.SetText(b.now().In(b.loc).Format(b.layouts[b.alt]))
	b.widget.SetState(widgets.StateIdle)

	d := b.interval
	return &d, nil
}

// Click implements blocks.Block: any button toggles the alternate layout.
func (b *Clock) Click(ev *protocol.ClickEvent) error {
	b.alt = 1 - b.alt
	_, err := b.Update()
	return err
}

var _ blocks.Block = (*Clock)(nil)

// Package sysmetrics implements a system load and memory block backed by
// gopsutil, so the bar works on both Linux and Darwin without /proc
// parsing. A click toggles between the compact and expanded formats.
package sysmetrics

import (
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
	"gitlab.com/tinyland/lab/pulsebar/pkg/format"
	"gitlab.com/tinyland/lab/pulsebar/pkg/protocol"
	"gitlab.com/tinyland/lab/pulsebar/pkg/widgets"
)

// BlockKind is the config name this block registers under.
const BlockKind = "sysmetrics"

func init() {
	blocks.Register(BlockKind, New)
}

// Thresholds as fractions: load1 per logical CPU, memory used percent.
const (
	smLoadWarn = 0.7
	smLoadCrit = 1.0
	smMemWarn  = 70.0
	smMemCrit  = 85.0
)

// smFieldNames lists every placeholder the sampler produces. Templates are
// validated against this set at construction.
var smFieldNames = map[string]bool{
	"load1":            true,
	"load5":            true,
	"load15":           true,
	"mem_used":         true,
	"mem_total":        true,
	"mem_avail":        true,
	"mem_used_percent": true,
}

type blockConfig struct {
	Interval config.Duration `toml:"interval"`

	// Format is the compact rendering; FormatAlt is shown after a click.
	Format    format.Template `toml:"format"`
	FormatAlt format.Template `toml:"format_alt"`

	Icon string `toml:"icon"`
}

func defaultBlockConfig() blockConfig {
	return blockConfig{
		Interval:  config.Duration{Duration: 5 * time.Second},
		Format:    *format.MustCompile("{load1} {mem_used_percent}%"),
		FormatAlt: *format.MustCompile("{load1} {load5} {load15} mem {mem_used}/{mem_total}"),
		Icon:      "load",
	}
}

// SysMetrics is the block state. Mutated only from the bar's serial
// context.
type SysMetrics struct {
	id     int
	widget *widgets.TextWidget
	log    *slog.Logger

	formats  [2]*format.Template
	alt      int // index into formats
	interval time.Duration
}

// New constructs the block from its raw TOML table.
func New(id int, md *toml.MetaData, prim toml.Primitive, shared *config.Shared, tasks chan<- blocks.Task) (blocks.Block, error) {
	cfg := defaultBlockConfig()
	if err := md.PrimitiveDecode(prim, &cfg); err != nil {
		return nil, err
	}

	for _, tmpl := range []*format.Template{&cfg.Format, &cfg.FormatAlt} {
		for _, name := range tmpl.Names() {
			if !smFieldNames[name] {
				return nil, fmt.Errorf("unknown placeholder {%s} in %q", name, tmpl)
			}
		}
	}
	if _, ok := shared.Icons.Get(cfg.Icon); !ok {
		return nil, fmt.Errorf("unknown icon %q in set %q", cfg.Icon, shared.Icons.Name)
	}

	widget := widgets.NewTextWidget(id, BlockKind, shared)
	if err := widget.SetIcon(cfg.Icon); err != nil {
		return nil, err
	}

	return &SysMetrics{
		id:       id,
		widget:   widget,
		log:      shared.Logger.With("block", BlockKind, "id", id),
		formats:  [2]*format.Template{&cfg.Format, &cfg.FormatAlt},
		interval: cfg.Interval.Duration,
	}, nil
}

// ID implements blocks.Block.
func (b *SysMetrics) ID() int {
	return b.id
}

// View implements blocks.Block.
func (b *SysMetrics) View() []*widgets.TextWidget {
	return []*widgets.TextWidget{b.widget}
}

// Update implements blocks.Block.
func (b *SysMetrics) Update() (*time.Duration, error) {
	fields, loadPerCPU, memPercent, err := b.sample()
	if err != nil {
		return nil, &blocks.Error{Block: BlockKind, Tag: "sample", Err: err}
	}

	text, err := b.formats[b.alt].Render(fields)
	if err != nil {
		return nil, &blocks.Error{Block: BlockKind, Tag: "render", Err: err}
	}

	b.widget.SetText(text)
	b.widget.SetState(smState(loadPerCPU, memPercent))

	d := b.interval
	return &d, nil
}

// Click implements blocks.Block: any button toggles the expanded format.
func (b *SysMetrics) Click(ev *protocol.ClickEvent) error {
	b.alt = 1 - b.alt
	_, err := b.Update()
	return err
}

// sample gathers one reading and renders it into placeholder fields.
func (b *SysMetrics) sample() (map[string]string, float64, float64, error) {
	avg, err := load.Avg()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("load average: %w", err)
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("virtual memory: %w", err)
	}

	fields := map[string]string{
		"load1":            strconv.FormatFloat(avg.Load1, 'f', 2, 64),
		"load5":            strconv.FormatFloat(avg.Load5, 'f', 2, 64),
		"load15":           strconv.FormatFloat(avg.Load15, 'f', 2, 64),
		"mem_used":         smFormatBytes(vm.Used),
		"mem_total":        smFormatBytes(vm.Total),
		"mem_avail":        smFormatBytes(vm.Available),
		"mem_used_percent": strconv.FormatFloat(vm.UsedPercent, 'f', 0, 64),
	}
	return fields, avg.Load1 / float64(runtime.NumCPU()), vm.UsedPercent, nil
}

// smState maps the sampled pressure onto a widget state.
func smState(loadPerCPU, memPercent float64) widgets.State {
	switch {
	case loadPerCPU >= smLoadCrit || memPercent >= smMemCrit:
		return widgets.StateCritical
	case loadPerCPU >= smLoadWarn || memPercent >= smMemWarn:
		return widgets.StateWarning
	default:
		return widgets.StateIdle
	}
}

// smFormatBytes formats a byte count into a human-readable string with
// appropriate units (B, KB, MB, GB, TB).
func smFormatBytes(bytes uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
		tb = 1024 * gb
	)

	switch {
	case bytes >= tb:
		return fmt.Sprintf("%.1fTB", float64(bytes)/float64(tb))
	case bytes >= gb:
		return fmt.Sprintf("%.1fGB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1fMB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1fKB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

var _ blocks.Block = (*SysMetrics)(nil)

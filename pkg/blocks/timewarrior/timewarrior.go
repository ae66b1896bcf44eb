// Package timewarrior implements the TimeWarrior toggle block: it polls an
// external time tracker through a shell command, classifies the output as
// tracking/idle with a pair of regexes, and toggles tracking on click.
//
// The block is generic over its commands, regexes, and formats, so any
// tracker with a state probe and on/off commands can be surfaced by
// adjusting the configuration; TimeWarrior is only the default.
package timewarrior

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
	"gitlab.com/tinyland/lab/pulsebar/pkg/command"
	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
	"gitlab.com/tinyland/lab/pulsebar/pkg/format"
	"gitlab.com/tinyland/lab/pulsebar/pkg/protocol"
	"gitlab.com/tinyland/lab/pulsebar/pkg/widgets"
)

// BlockKind is the config name this block registers under.
const BlockKind = "timewarrior"

func init() {
	blocks.Register(BlockKind, New)
}

// blockConfig is the TOML surface of the block. All keys are optional;
// unknown keys are rejected by the bar's undecoded-key check.
type blockConfig struct {
	// Interval is the self-rescheduling cadence. Absent means the block
	// never asks to be re-polled.
	Interval config.Duration `toml:"interval"`

	// CommandState probes the tracker. Its exit status is ignored; only
	// the output matters.
	CommandState string `toml:"command_state"`

	// CommandOn and CommandOff toggle tracking and must exit zero on
	// success.
	CommandOn  string `toml:"command_on"`
	CommandOff string `toml:"command_off"`

	// RegexOn classifies the state output as "tracking" and extracts
	// fields from its named capture groups; RegexOff is consulted only
	// when RegexOn does not match.
	RegexOn  regexField `toml:"regex_on"`
	RegexOff regexField `toml:"regex_off"`

	// FormatOn and FormatOff render the widget text from the extracted
	// fields.
	FormatOn  format.Template `toml:"format_on"`
	FormatOff format.Template `toml:"format_off"`

	IconOn  string `toml:"icon_on"`
	IconOff string `toml:"icon_off"`

	// Text is the initial widget label shown before the first update.
	Text string `toml:"text"`
}

// defaultBlockConfig returns the stock TimeWarrior configuration. The OFF
// regex matches anything, so once the ON regex fails the block classifies
// idle rather than erroring on the stock "There is no active time
// tracking." output.
func defaultBlockConfig() blockConfig {
	return blockConfig{
		CommandState: "timew",
		CommandOn:    "timew continue",
		CommandOff:   "timew stop",
		RegexOn:      regexField{regexp.MustCompile(`Tracking (?P<tags>.+)\n`)},
		RegexOff:     regexField{regexp.MustCompile(`(?s).`)},
		FormatOn:     *format.MustCompile("TW [ {tags} ] {hours}:{minutes}"),
		FormatOff:    *format.MustCompile("TW IDLE"),
		IconOn:       "toggle_on",
		IconOff:      "toggle_off",
	}
}

// regexField wraps regexp.Regexp so classifier regexes decode (and fail)
// at config load rather than per tick.
type regexField struct {
	*regexp.Regexp
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *regexField) UnmarshalText(text []byte) error {
	re, err := regexp.Compile(string(text))
	if err != nil {
		return err
	}
	r.Regexp = re
	return nil
}

// TimeWarrior is the block state machine. All fields are mutated only from
// the bar's serial update context.
type TimeWarrior struct {
	id     int
	widget *widgets.TextWidget
	runner command.Runner
	log    *slog.Logger

	commandState string
	commandOn    string
	commandOff   string
	regexOn      *regexp.Regexp
	regexOff     *regexp.Regexp
	formatOn     *format.Template
	formatOff    *format.Template
	iconOn       string
	iconOff      string
	interval     time.Duration

	// toggled caches the last observed tracker state. It is only trusted
	// for rendering; click always re-reads ground truth first.
	toggled bool
}

// New constructs the block from its raw TOML table. Regex or template
// compilation failures and unknown icon ids abort construction.
func New(id int, md *toml.MetaData, prim toml.Primitive, shared *config.Shared, tasks chan<- blocks.Task) (blocks.Block, error) {
	cfg := defaultBlockConfig()
	if err := md.PrimitiveDecode(prim, &cfg); err != nil {
		return nil, err
	}

	for _, icon := range []string{cfg.IconOn, cfg.IconOff} {
		if _, ok := shared.Icons.Get(icon); !ok {
			return nil, fmt.Errorf("unknown icon %q in set %q", icon, shared.Icons.Name)
		}
	}

	widget := widgets.NewTextWidget(id, BlockKind, shared)
	widget.SetText(cfg.Text)

	return &TimeWarrior{
		id:           id,
		widget:       widget,
		runner:       command.ShellRunner{},
		log:          shared.Logger.With("block", BlockKind, "id", id),
		commandState: cfg.CommandState,
		commandOn:    cfg.CommandOn,
		commandOff:   cfg.CommandOff,
		regexOn:      cfg.RegexOn.Regexp,
		regexOff:     cfg.RegexOff.Regexp,
		formatOn:     &cfg.FormatOn,
		formatOff:    &cfg.FormatOff,
		iconOn:       cfg.IconOn,
		iconOff:      cfg.IconOff,
		interval:     cfg.Interval.Duration,
	}, nil
}

// ID implements blocks.Block.
func (b *TimeWarrior) ID() int {
	return b.id
}

// View implements blocks.Block.
func (b *TimeWarrior) View() []*widgets.TextWidget {
	return []*widgets.TextWidget{b.widget}
}

// Update implements blocks.Block. It probes the tracker, classifies the
// output, and commits icon, text, and the toggled flag. On any fault the
// cached state and the widget are left untouched.
func (b *TimeWarrior) Update() (*time.Duration, error) {
	on, captured, err := b.probe()
	if err != nil {
		return nil, err
	}

	icon, tmpl := b.iconOff, b.formatOff
	if on {
		icon, tmpl = b.iconOn, b.formatOn
	}

	// Pre-seed every placeholder so fields the active regex does not
	// capture render as empty strings instead of erroring.
	fields := make(map[string]string, len(captured))
	for _, name := range tmpl.Names() {
		fields[name] = ""
	}
	for k, v := range captured {
		fields[k] = v
	}

	text, err := tmpl.Render(fields)
	if err != nil {
		return nil, &blocks.Error{Block: BlockKind, Tag: "render", Err: err}
	}

	b.toggled = on
	if err := b.widget.SetIcon(icon); err != nil {
		return nil, &blocks.Error{Block: BlockKind, Tag: "render", Err: err}
	}
	b.widget.SetText(text)
	b.widget.SetState(widgets.StateIdle)

	return b.nextTick(), nil
}

// Click implements blocks.Block. The tracker state is re-read rather than
// trusting the cached flag, so toggles done outside the bar cannot flip the
// wrong way. A failed action command only marks the widget critical.
func (b *TimeWarrior) Click(ev *protocol.ClickEvent) error {
	on, _, err := b.probe()
	if err != nil {
		return err
	}

	cmd := b.commandOn
	if on {
		cmd = b.commandOff
	}

	if err := b.runner.RunChecked(cmd); err != nil {
		b.log.Warn("toggle command failed", "command", cmd, "error", err)
		b.widget.SetState(widgets.StateCritical)
		return nil
	}

	// Re-read ground truth so the rendered state reflects the action's
	// actual effect.
	_, err = b.Update()
	return err
}

// probe runs the state command and classifies its output.
func (b *TimeWarrior) probe() (bool, map[string]string, error) {
	out, err := b.runner.Run(b.commandState)
	if err != nil {
		return false, nil, &blocks.Error{Block: BlockKind, Tag: "state", Err: err}
	}
	on, captured, err := classify(out, b.regexOn, b.regexOff)
	if err != nil {
		return false, nil, &blocks.Error{Block: BlockKind, Tag: "classify", Err: err}
	}
	return on, captured, nil
}

// nextTick echoes the configured interval, or nil when the block should not
// self-reschedule.
func (b *TimeWarrior) nextTick() *time.Duration {
	if b.interval <= 0 {
		return nil
	}
	d := b.interval
	return &d
}

var _ blocks.Block = (*TimeWarrior)(nil)

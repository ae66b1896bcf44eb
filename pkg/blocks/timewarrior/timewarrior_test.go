package timewarrior

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
	"gitlab.com/tinyland/lab/pulsebar/pkg/icons"
	"gitlab.com/tinyland/lab/pulsebar/pkg/theme"
	"gitlab.com/tinyland/lab/pulsebar/pkg/widgets"
)

// --- helpers ---

// twFakeRunner scripts the shell runner. Run returns stateOut trimmed the
// way the real runner does; RunChecked records the command and, on success,
// swaps stateOut for afterAction so the next probe sees the toggled state.
type twFakeRunner struct {
	stateOut    string
	stateErr    error
	actionErr   error
	afterAction string
	ran         []string
}

func (r *twFakeRunner) Run(cmd string) (string, error) {
	if r.stateErr != nil {
		return "", r.stateErr
	}
	return strings.TrimSpace(r.stateOut), nil
}

func (r *twFakeRunner) RunChecked(cmd string) error {
	r.ran = append(r.ran, cmd)
	if r.actionErr != nil {
		return r.actionErr
	}
	if r.afterAction != "" {
		r.stateOut = r.afterAction
	}
	return nil
}

// twNewBlock builds a block from a [[block]] TOML snippet with the fake
// runner injected.
func twNewBlock(t *testing.T, src string, r *twFakeRunner) *TimeWarrior {
	t.Helper()

	blk, err := twTryNewBlock(src, r)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return blk
}

func twTryNewBlock(src string, r *twFakeRunner) (*TimeWarrior, error) {
	var holder struct {
		Block []toml.Primitive `toml:"block"`
	}
	md, err := toml.Decode(src, &holder)
	if err != nil {
		return nil, err
	}
	shared := &config.Shared{
		Theme:  theme.Get("plain"),
		Icons:  icons.Lookup("none"),
		Logger: slog.Default(),
	}
	blk, err := New(0, &md, holder.Block[0], shared, nil)
	if err != nil {
		return nil, err
	}
	tw := blk.(*TimeWarrior)
	if r != nil {
		tw.runner = r
	}
	return tw, nil
}

const twDefaultsTOML = `
[[block]]
block = "timewarrior"
`

const twIdleOutput = "There is no active time tracking.\n"
const twTrackingOutput = "Tracking coding project_x\n  Started 2024-01-02T09:00:00\n"

// --- update ---

func TestUpdateIdleTracker(t *testing.T) {
	r := &twFakeRunner{stateOut: twIdleOutput}
	b := twNewBlock(t, twDefaultsTOML, r)

	next, err := b.Update()
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if next != nil {
		t.Errorf("next tick = %v, want nil (no interval configured)", *next)
	}
	if b.toggled {
		t.Error("toggled = true, want false")
	}
	if got := b.widget.Icon(); got != "[ ]" {
		t.Errorf("icon = %q, want toggle_off glyph", got)
	}
	if got := b.widget.Text(); got != "TW IDLE" {
		t.Errorf("text = %q, want %q", got, "TW IDLE")
	}
	if b.widget.State() != widgets.StateIdle {
		t.Errorf("state = %v, want idle", b.widget.State())
	}
}

func TestUpdateActiveWithTag(t *testing.T) {
	r := &twFakeRunner{stateOut: twTrackingOutput}
	b := twNewBlock(t, twDefaultsTOML, r)

	if _, err := b.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !b.toggled {
		t.Error("toggled = false, want true")
	}
	if got := b.widget.Icon(); got != "[x]" {
		t.Errorf("icon = %q, want toggle_on glyph", got)
	}
	// hours/minutes are empty because the default ON regex only captures tags.
	if got := b.widget.Text(); got != "TW [ coding project_x ] :" {
		t.Errorf("text = %q", got)
	}
}

func TestUpdateActiveWithFullFields(t *testing.T) {
	src := `
[[block]]
block = "timewarrior"
regex_on = '(?s)Tracking (?P<tags>.+)\n.*Total\s+(?P<hours>\d+):(?P<minutes>\d{2}):\d{2}'
`
	r := &twFakeRunner{stateOut: "Tracking focus\n  Total 1:07:33\n"}
	b := twNewBlock(t, src, r)

	if _, err := b.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := b.widget.Text(); got != "TW [ focus ] 1:07" {
		t.Errorf("text = %q, want %q", got, "TW [ focus ] 1:07")
	}
}

func TestUpdateEchoesInterval(t *testing.T) {
	src := `
[[block]]
block = "timewarrior"
interval = "10s"
`
	r := &twFakeRunner{stateOut: twIdleOutput}
	b := twNewBlock(t, src, r)

	next, err := b.Update()
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if next == nil || *next != 10*time.Second {
		t.Errorf("next tick = %v, want 10s", next)
	}
}

func TestUpdateUnmatchedOutputLeavesStateAlone(t *testing.T) {
	src := `
[[block]]
block = "timewarrior"
regex_off = 'NEVER MATCHES ANYTHING SPECIFIC'
text = "boot"
`
	r := &twFakeRunner{stateOut: "something unrecognizable\n"}
	b := twNewBlock(t, src, r)

	_, err := b.Update()
	if err == nil {
		t.Fatal("Update with unmatched output succeeded")
	}
	var blockErr *blocks.Error
	if !errors.As(err, &blockErr) {
		t.Fatalf("error type = %T, want *blocks.Error", err)
	}
	if blockErr.Tag != "classify" {
		t.Errorf("Tag = %q, want %q", blockErr.Tag, "classify")
	}
	if b.toggled {
		t.Error("toggled mutated on classify error")
	}
	if got := b.widget.Text(); got != "boot" {
		t.Errorf("widget text mutated on classify error: %q", got)
	}
}

func TestUpdateRunnerErrorLeavesStateAlone(t *testing.T) {
	r := &twFakeRunner{stateOut: twTrackingOutput}
	b := twNewBlock(t, twDefaultsTOML, r)
	if _, err := b.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	r.stateErr = errors.New("spawn failed")
	_, err := b.Update()
	if err == nil {
		t.Fatal("Update with runner error succeeded")
	}
	var blockErr *blocks.Error
	if !errors.As(err, &blockErr) {
		t.Fatalf("error type = %T, want *blocks.Error", err)
	}
	if blockErr.Tag != "state" {
		t.Errorf("Tag = %q, want %q", blockErr.Tag, "state")
	}
	if !b.toggled {
		t.Error("toggled lost on runner error")
	}
	if got := b.widget.Text(); got != "TW [ coding project_x ] :" {
		t.Errorf("widget text mutated on runner error: %q", got)
	}
}

// --- click ---

func TestClickWhileOffTogglesOn(t *testing.T) {
	r := &twFakeRunner{
		stateOut:    twIdleOutput,
		afterAction: "Tracking focus\n  Started 2024-01-02T09:00:00\n",
	}
	b := twNewBlock(t, twDefaultsTOML, r)
	if _, err := b.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := b.Click(nil); err != nil {
		t.Fatalf("Click failed: %v", err)
	}

	if len(r.ran) != 1 || r.ran[0] != "timew continue" {
		t.Errorf("actions run = %v, want [timew continue]", r.ran)
	}
	if !b.toggled {
		t.Error("toggled = false after successful enable")
	}
	if got := b.widget.Icon(); got != "[x]" {
		t.Errorf("icon = %q, want toggle_on glyph", got)
	}
	if got := b.widget.Text(); got != "TW [ focus ] :" {
		t.Errorf("text = %q", got)
	}
	if b.widget.State() != widgets.StateIdle {
		t.Errorf("state = %v, want idle", b.widget.State())
	}
}

func TestClickWhileOnFailureMarksCritical(t *testing.T) {
	r := &twFakeRunner{
		stateOut:  twTrackingOutput,
		actionErr: errors.New("exit status 1"),
	}
	b := twNewBlock(t, twDefaultsTOML, r)
	if _, err := b.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := b.Click(nil); err != nil {
		t.Fatalf("Click returned error on action failure: %v", err)
	}

	if len(r.ran) != 1 || r.ran[0] != "timew stop" {
		t.Errorf("actions run = %v, want [timew stop]", r.ran)
	}
	if b.widget.State() != widgets.StateCritical {
		t.Errorf("state = %v, want critical", b.widget.State())
	}
	if !b.toggled {
		t.Error("toggled flipped despite failed action")
	}

	// The next update re-reads ground truth and recovers.
	if _, err := b.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !b.toggled {
		t.Error("toggled = false, tracker is still active")
	}
	if b.widget.State() != widgets.StateIdle {
		t.Errorf("state = %v, want idle after recovery", b.widget.State())
	}
}

func TestClickReReadsStateInsteadOfTrustingCache(t *testing.T) {
	// The bar last saw the tracker idle, but the user started tracking
	// from a terminal in the meantime. The click must stop, not continue.
	r := &twFakeRunner{stateOut: twIdleOutput}
	b := twNewBlock(t, twDefaultsTOML, r)
	if _, err := b.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	r.stateOut = twTrackingOutput
	r.afterAction = twIdleOutput
	if err := b.Click(nil); err != nil {
		t.Fatalf("Click failed: %v", err)
	}

	if len(r.ran) != 1 || r.ran[0] != "timew stop" {
		t.Errorf("actions run = %v, want [timew stop]", r.ran)
	}
	if b.toggled {
		t.Error("toggled = true, want false after stop")
	}
}

func TestClickProbeErrorPropagates(t *testing.T) {
	r := &twFakeRunner{stateErr: errors.New("spawn failed")}
	b := twNewBlock(t, twDefaultsTOML, r)

	if err := b.Click(nil); err == nil {
		t.Fatal("Click with probe failure succeeded")
	}
	if len(r.ran) != 0 {
		t.Errorf("action run despite probe failure: %v", r.ran)
	}
}

// --- construction ---

func TestNewRejectsBadRegex(t *testing.T) {
	src := `
[[block]]
block = "timewarrior"
regex_on = '(?P<tags'
`
	if _, err := twTryNewBlock(src, nil); err == nil {
		t.Fatal("malformed regex accepted at construction")
	}
}

func TestNewRejectsBadTemplate(t *testing.T) {
	src := `
[[block]]
block = "timewarrior"
format_on = "TW {unterminated"
`
	if _, err := twTryNewBlock(src, nil); err == nil {
		t.Fatal("malformed template accepted at construction")
	}
}

func TestNewRejectsUnknownIcon(t *testing.T) {
	src := `
[[block]]
block = "timewarrior"
icon_on = "no_such_icon"
`
	if _, err := twTryNewBlock(src, nil); err == nil {
		t.Fatal("unknown icon id accepted at construction")
	}
}

func TestNewAppliesInitialText(t *testing.T) {
	src := `
[[block]]
block = "timewarrior"
text = "starting..."
`
	b := twNewBlock(t, src, &twFakeRunner{})
	if got := b.widget.Text(); got != "starting..." {
		t.Errorf("initial text = %q", got)
	}
}

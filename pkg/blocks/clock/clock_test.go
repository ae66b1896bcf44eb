package clock

import (
	"log/slog"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
	"gitlab.com/tinyland/lab/pulsebar/pkg/icons"
	"gitlab.com/tinyland/lab/pulsebar/pkg/theme"
)

func ckNewBlock(t *testing.T, src string) *Clock {
	t.Helper()

	var holder struct {
		Block []toml.Primitive `toml:"block"`
	}
	md, err := toml.Decode(src, &holder)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	shared := &config.Shared{
		Theme:  theme.Get("plain"),
		Icons:  icons.Lookup("none"),
		Logger: slog.Default(),
	}
	blk, err := New(2, &md, holder.Block[0], shared, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return blk.(*Clock)
}

func TestUpdateFormatsTime(t *testing.T) {
	src := `
[[block]]
block = "clock"
layout = "15:04"
timezone = "UTC"
`
	b := ckNewBlock(t, src)
	b.now = func() time.Time {
		return time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	}

	next, err := b.Update()
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := b.widget.Text(); got != "09:30" {
		t.Errorf("text = %q, want %q", got, "09:30")
	}
	if next == nil || *next != time.Minute {
		t.Errorf("next tick = %v, want 1m", next)
	}
}

func TestClickTogglesLayout(t *testing.T) {
	src := `
[[block]]
block = "clock"
layout = "15:04"
layout_alt = "2006-01-02 15:04"
timezone = "UTC"
`
	b := ckNewBlock(t, src)
	b.now = func() time.Time {
		return time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	}

	if err := b.Click(nil); err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	if got := b.widget.Text(); got != "2024-01-02 09:30" {
		t.Errorf("alt text = %q", got)
	}

	if err := b.Click(nil); err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	if got := b.widget.Text(); got != "09:30" {
		t.Errorf("text after second click = %q", got)
	}
}

func TestNewRejectsUnknownTimezone(t *testing.T) {
	src := `
[[block]]
block = "clock"
timezone = "Mars/Olympus_Mons"
`
	var holder struct {
		Block []toml.Primitive `toml:"block"`
	}
	md, err := toml.Decode(src, &holder)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	shared := &config.Shared{Theme: theme.Get("plain"), Icons: icons.Lookup("none"), Logger: slog.Default()}
	if _, err := New(0, &md, holder.Block[0], shared, nil); err == nil {
		t.Fatal("unknown timezone accepted")
	}
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const cfgTestTOML = `
theme = "solarized-dark"
icons = "awesome"

[[block]]
block = "timewarrior"
interval = "10s"

[[block]]
block = "clock"
`

func TestLoadFromReader(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(cfgTestTOML))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if cfg.Theme != "solarized-dark" {
		t.Errorf("Theme = %q", cfg.Theme)
	}
	if cfg.Icons != "awesome" {
		t.Errorf("Icons = %q", cfg.Icons)
	}
	if len(cfg.Blocks) != 2 {
		t.Fatalf("Blocks = %d, want 2", len(cfg.Blocks))
	}

	kind, err := cfg.BlockKind(0)
	if err != nil {
		t.Fatalf("BlockKind(0) failed: %v", err)
	}
	if kind != "timewarrior" {
		t.Errorf("BlockKind(0) = %q", kind)
	}
	kind, err = cfg.BlockKind(1)
	if err != nil {
		t.Fatalf("BlockKind(1) failed: %v", err)
	}
	if kind != "clock" {
		t.Errorf("BlockKind(1) = %q", kind)
	}
}

func TestLoadRejectsEmptyBlockList(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader(`theme = "plain"`)); err == nil {
		t.Fatal("config without blocks accepted")
	}
}

func TestBlockKindMissing(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("[[block]]\ninterval = \"5s\"\n"))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if _, err := cfg.BlockKind(0); err == nil {
		t.Fatal("block table without `block` key accepted")
	}
}

func TestCheckUndecodedReportsUnknownKeys(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(cfgTestTOML + "\nbogus_key = 1\n"))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	// Consume the block headers the way the bar does.
	for i := range cfg.Blocks {
		if _, err := cfg.BlockKind(i); err != nil {
			t.Fatalf("BlockKind(%d) failed: %v", i, err)
		}
	}
	err = cfg.CheckUndecoded()
	if err == nil {
		t.Fatal("unknown top-level key not reported")
	}
	if !strings.Contains(err.Error(), "bogus_key") {
		t.Errorf("error does not name the offending key: %v", err)
	}
	// The per-block `interval` keys were never decoded by anyone either.
	if !strings.Contains(err.Error(), "interval") {
		t.Errorf("error does not name undecoded block keys: %v", err)
	}
}

func TestSharedResolvesThemeAndIcons(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(cfgTestTOML))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	shared, err := cfg.Shared(slog.Default())
	if err != nil {
		t.Fatalf("Shared failed: %v", err)
	}
	if shared.Theme.Name != "solarized-dark" {
		t.Errorf("Theme = %q", shared.Theme.Name)
	}
	if shared.Icons.Name != "awesome" {
		t.Errorf("Icons = %q", shared.Icons.Name)
	}
}

func TestSharedLoadsThemeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mytheme.toml")
	themeTOML := "name = \"filetheme\"\n\n[critical]\nfg = \"#ff0000\"\n"
	if err := os.WriteFile(path, []byte(themeTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	toml := "theme = \"filetheme\"\ntheme_file = \"" + path + "\"\n\n[[block]]\nblock = \"clock\"\n"
	cfg, err := LoadFromReader(strings.NewReader(toml))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	shared, err := cfg.Shared(nil)
	if err != nil {
		t.Fatalf("Shared failed: %v", err)
	}
	if shared.Theme.Name != "filetheme" {
		t.Errorf("Theme = %q, want file-loaded theme", shared.Theme.Name)
	}
	if shared.Theme.Critical.FG != "#ff0000" {
		t.Errorf("Critical.FG = %q", shared.Theme.Critical.FG)
	}
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("Duration = %v", d.Duration)
	}

	if err := d.UnmarshalText([]byte("")); err != nil {
		t.Errorf("empty duration rejected: %v", err)
	}
	if err := d.UnmarshalText([]byte("-5s")); err == nil {
		t.Error("negative duration accepted")
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("garbage duration accepted")
	}
}

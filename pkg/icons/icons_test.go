package icons

import "testing"

func TestLookupBuiltins(t *testing.T) {
	for _, name := range []string{"none", "awesome"} {
		s := Lookup(name)
		if s.Name != name {
			t.Errorf("Lookup(%q).Name = %q", name, s.Name)
		}
		for _, id := range []string{"toggle_on", "toggle_off", "time"} {
			if _, ok := s.Get(id); !ok {
				t.Errorf("set %q missing icon %q", name, id)
			}
		}
	}
}

func TestLookupUnknownFallsBackToNone(t *testing.T) {
	s := Lookup("no-such-set")
	if s.Name != "none" {
		t.Errorf("Lookup(unknown) = %q, want %q", s.Name, "none")
	}
}

func TestGetEmptyID(t *testing.T) {
	g, ok := Lookup("none").Get("")
	if !ok || g != "" {
		t.Errorf("Get(\"\") = %q, %v; want \"\", true", g, ok)
	}
}

func TestGetUnknownID(t *testing.T) {
	if _, ok := Lookup("none").Get("does_not_exist"); ok {
		t.Error("Get(unknown id) reported ok")
	}
}

func TestLoadFromTOMLWithBase(t *testing.T) {
	data := []byte(`
name = "custom"
base = "none"

[glyphs]
toggle_on = ">>"
extra = "!"
`)
	s, err := LoadFromTOML(data)
	if err != nil {
		t.Fatalf("LoadFromTOML failed: %v", err)
	}
	if g, _ := s.Get("toggle_on"); g != ">>" {
		t.Errorf("overlay glyph = %q, want %q", g, ">>")
	}
	if g, _ := s.Get("toggle_off"); g != "[ ]" {
		t.Errorf("base glyph = %q, want %q", g, "[ ]")
	}
	if g, _ := s.Get("extra"); g != "!" {
		t.Errorf("new glyph = %q, want %q", g, "!")
	}
}

func TestLoadFromTOMLRequiresName(t *testing.T) {
	if _, err := LoadFromTOML([]byte(`[glyphs]` + "\n" + `x = "y"`)); err == nil {
		t.Fatal("LoadFromTOML accepted set without a name")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/searchtrail/searchtrail/internal/vault"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	s, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper failed: %v", err)
	}
	if s.Port != 8090 {
		t.Errorf("Port = %d, want 8090", s.Port)
	}
	if s.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want 127.0.0.1", s.Host)
	}
	if s.Prepend {
		t.Error("Prepend should default to false")
	}
	if s.NotePath() != "Search Log.md" {
		t.Errorf("NotePath() = %q, want %q", s.NotePath(), "Search Log.md")
	}
	if s.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text", s.LogFormat)
	}
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("port", 9300)
	v.Set("note", "searches/web")
	v.Set("prepend", true)

	s, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper failed: %v", err)
	}
	if s.Port != 9300 {
		t.Errorf("Port = %d, want 9300", s.Port)
	}
	if s.NotePath() != "searches/web.md" {
		t.Errorf("NotePath() = %q, want searches/web.md", s.NotePath())
	}
	if !s.Prepend {
		t.Error("Prepend should be true")
	}
}

func TestListenAddr(t *testing.T) {
	s := Settings{Host: "127.0.0.1", Port: 8090}
	if addr := s.ListenAddr(); addr != "127.0.0.1:8090" {
		t.Errorf("ListenAddr() = %q, want 127.0.0.1:8090", addr)
	}
}

func TestNormalizeNote(t *testing.T) {
	cases := []struct {
		stem string
		want string
	}{
		{"Search Log", "Search Log.md"},
		{"Search Log.md", "Search Log.md"},
		{"Search Log.MD", "Search Log.MD"},
		{"notes/queries", "notes/queries.md"},
		{"v1.2 report", "v1.2 report.md"},
	}
	for _, c := range cases {
		if got := NormalizeNote(c.stem); got != c.want {
			t.Errorf("NormalizeNote(%q) = %q, want %q", c.stem, got, c.want)
		}
	}
}

func TestValidatePortBounds(t *testing.T) {
	for _, port := range []int{0, 1023, 65536, -1} {
		if err := ValidatePort(port); err == nil {
			t.Errorf("ValidatePort(%d) should fail", port)
		}
	}
	for _, port := range []int{1024, 8090, 65535} {
		if err := ValidatePort(port); err != nil {
			t.Errorf("ValidatePort(%d) failed: %v", port, err)
		}
	}
}

func TestParsePort(t *testing.T) {
	if port, err := ParsePort("8090"); err != nil || port != 8090 {
		t.Errorf("ParsePort(8090) = %d, %v", port, err)
	}
	if port, err := ParsePort(" 1024 "); err != nil || port != 1024 {
		t.Errorf("ParsePort with spaces = %d, %v", port, err)
	}
	for _, in := range []string{"", "eight", "80.90", "1023", "65536"} {
		if _, err := ParsePort(in); err == nil {
			t.Errorf("ParsePort(%q) should fail", in)
		}
	}
}

func TestValidateRequiresVaultDir(t *testing.T) {
	s := Settings{Port: 8090, LogFormat: "text"}
	if err := s.Validate(); err == nil {
		t.Error("Validate should fail without vault_dir")
	}
	s.VaultDir = "/somewhere"
	if err := s.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestValidateLogFormat(t *testing.T) {
	s := Settings{Port: 8090, VaultDir: "/somewhere", LogFormat: "xml"}
	if err := s.Validate(); err == nil {
		t.Error("Validate should reject log_format xml")
	}
}

func newTestStore(t *testing.T) vault.Store {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "searches"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, "Folder Note.md"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "flat.md"), []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := vault.NewDir(root)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestValidateNotePath(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"Search Log.md", "searches/web.md", "flat.md"} {
		if err := ValidateNotePath(store, name); err != nil {
			t.Errorf("ValidateNotePath(%q) failed: %v", name, err)
		}
	}

	// Empty name, bare extension, trailing separator, absent parent,
	// parent that is a note, target that is a folder, absent deep parent.
	bad := []string{
		"",
		".md",
		"searches/",
		"missing/web.md",
		"flat.md/sub.md",
		"Folder Note.md",
		"searches/deep/a.md",
	}
	for _, name := range bad {
		if err := ValidateNotePath(store, name); err == nil {
			t.Errorf("ValidateNotePath(%q) should fail", name)
		}
	}
}

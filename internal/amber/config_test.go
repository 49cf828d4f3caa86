package amber

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigParsing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amberinstall.conf")
	content := `# comment
AMBERINSTALL_ENV = md-env
AMBERINSTALL_COMPILER="INTEL"
AMBERINSTALL_PREFIX='/opt/amber'

malformed line without equals
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	tests := []struct {
		key, want string
	}{
		{"AMBERINSTALL_ENV", "md-env"},
		{"AMBERINSTALL_COMPILER", "INTEL"},
		{"AMBERINSTALL_PREFIX", "/opt/amber"},
	}
	for _, tt := range tests {
		if got := cfg.Values[tt.key]; got != tt.want {
			t.Errorf("Values[%s] = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLoadConfigMissingFileIsNotAnError(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.conf"))
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("loadConfig() returned nil config")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amberinstall.conf")
	if err := os.WriteFile(path, []byte("AMBERINSTALL_ENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AMBERINSTALL_ENV", "from-env")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if got := cfg.Values["AMBERINSTALL_ENV"]; got != "from-env" {
		t.Errorf("Values[AMBERINSTALL_ENV] = %q, want env override from-env", got)
	}
}

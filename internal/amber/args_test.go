package amber

import (
	"strings"
	"testing"
)

func TestParseArgsBuildTypeMatrix(t *testing.T) {
	tests := []struct {
		flag         string
		wantParallel bool
		wantCUDA     bool
	}{
		{"-cpu", false, false},
		{"-gpu", false, true},
		{"-mpi_cpu", true, false},
		{"-mpi_gpu", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			cfg, err := ParseArgs([]string{tt.flag, "-ambertools"}, "/home/u/amber", 8)
			if err != nil {
				t.Fatalf("ParseArgs() error = %v", err)
			}
			if cfg.Parallel != tt.wantParallel || cfg.CUDA != tt.wantCUDA {
				t.Errorf("ParseArgs(%s) = (parallel=%v, cuda=%v), want (%v, %v)",
					tt.flag, cfg.Parallel, cfg.CUDA, tt.wantParallel, tt.wantCUDA)
			}
		})
	}
}

func TestParseArgsBuildTypeExclusivity(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"none", []string{"-ambertools"}},
		{"two", []string{"-cpu", "-gpu", "-ambertools"}},
		{"all four", []string{"-cpu", "-gpu", "-mpi_cpu", "-mpi_gpu", "-ambertools"}},
		{"duplicate", []string{"-cpu", "-cpu", "-ambertools"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args, "/p", 4)
			if err == nil {
				t.Fatal("ParseArgs() err = nil, want UsageError")
			}
			if _, ok := err.(*UsageError); !ok {
				t.Errorf("ParseArgs() error type = %T, want *UsageError", err)
			}
		})
	}
}

func TestParseArgsRequiresComponent(t *testing.T) {
	_, err := ParseArgs([]string{"-mpi_cpu"}, "/p", 4)
	if err == nil {
		t.Fatal("ParseArgs() err = nil, want UsageError")
	}
	if _, ok := err.(*UsageError); !ok {
		t.Errorf("ParseArgs() error type = %T, want *UsageError", err)
	}
}

func TestParseArgsComponentSelection(t *testing.T) {
	cfg, err := ParseArgs([]string{"-cpu", "-ambertools", "-pmemd"}, "/p", 4)
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	if len(cfg.Components) != 2 {
		t.Fatalf("len(Components) = %d, want 2", len(cfg.Components))
	}
	if cfg.Components[0].Name != "ambertools" || cfg.Components[1].Name != "pmemd" {
		t.Errorf("Components = %v, want selection order preserved", cfg.Components)
	}
}

func TestParseArgsGlobalPrefixOverride(t *testing.T) {
	cfg, err := ParseArgs([]string{"-path_install", "/tmp/x", "-cpu", "-ambertools", "-pmemd"}, "/default", 4)
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	for _, comp := range cfg.Components {
		if got := cfg.InstallPrefixFor(comp); got != "/tmp/x" {
			t.Errorf("InstallPrefixFor(%s) = %q, want /tmp/x", comp.Name, got)
		}
	}
}

func TestParseArgsPerComponentPrefixWinsOverGlobal(t *testing.T) {
	cfg, err := ParseArgs([]string{
		"-cpu", "-ambertools", "-pmemd",
		"-path_install", "/tmp/global",
		"-path_pmemd", "/tmp/engine",
	}, "/default", 4)
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	if got := cfg.InstallPrefixFor(cfg.Components[0]); got != "/tmp/global" {
		t.Errorf("ambertools prefix = %q, want /tmp/global", got)
	}
	if got := cfg.InstallPrefixFor(cfg.Components[1]); got != "/tmp/engine" {
		t.Errorf("pmemd prefix = %q, want /tmp/engine", got)
	}
}

func TestParseArgsDefaultPrefix(t *testing.T) {
	cfg, err := ParseArgs([]string{"-cpu", "-ambertools"}, "/home/u/amber", 4)
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	if got := cfg.InstallPrefixFor(cfg.Components[0]); got != "/home/u/amber" {
		t.Errorf("prefix = %q, want default /home/u/amber", got)
	}
}

func TestParseArgsNproc(t *testing.T) {
	cfg, err := ParseArgs([]string{"-cpu", "-ambertools", "-nproc", "4"}, "/p", 16)
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	if cfg.Jobs != 4 {
		t.Errorf("Jobs = %d, want 4", cfg.Jobs)
	}
}

func TestParseArgsNprocDefault(t *testing.T) {
	cfg, err := ParseArgs([]string{"-cpu", "-ambertools"}, "/p", 16)
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	if cfg.Jobs != 16 {
		t.Errorf("Jobs = %d, want detected default 16", cfg.Jobs)
	}
}

func TestParseArgsNprocInvalid(t *testing.T) {
	for _, val := range []string{"0", "-3", "abc", "2.5"} {
		if _, err := ParseArgs([]string{"-cpu", "-ambertools", "-nproc", val}, "/p", 4); err == nil {
			t.Errorf("ParseArgs(-nproc %s) err = nil, want UsageError", val)
		}
	}
}

func TestParseArgsMissingValue(t *testing.T) {
	for _, flag := range []string{"-nproc", "-path_install", "-path_ambertools", "-path_pmemd"} {
		_, err := ParseArgs([]string{"-cpu", "-ambertools", flag}, "/p", 4)
		if err == nil {
			t.Errorf("ParseArgs(trailing %s) err = nil, want UsageError", flag)
			continue
		}
		if _, ok := err.(*UsageError); !ok {
			t.Errorf("ParseArgs(trailing %s) error type = %T, want *UsageError", flag, err)
		}
	}
}

func TestParseArgsHelpWinsAnywhere(t *testing.T) {
	tests := [][]string{
		{"-h"},
		{"--help"},
		{"-cpu", "-ambertools", "-h"},
		{"-cpu", "-h", "-bogus"},
	}
	for _, args := range tests {
		cfg, err := ParseArgs(args, "/p", 4)
		if err != nil {
			t.Errorf("ParseArgs(%v) error = %v, want help mode", args, err)
			continue
		}
		if cfg.Mode != ModeHelp {
			t.Errorf("ParseArgs(%v) Mode = %v, want ModeHelp", args, cfg.Mode)
		}
	}
}

func TestParseArgsVersionMode(t *testing.T) {
	for _, flag := range []string{"-version", "--version"} {
		cfg, err := ParseArgs([]string{flag}, "/p", 4)
		if err != nil {
			t.Errorf("ParseArgs(%s) error = %v, want version mode", flag, err)
			continue
		}
		if cfg.Mode != ModeVersion {
			t.Errorf("ParseArgs(%s) Mode = %v, want ModeVersion", flag, cfg.Mode)
		}
	}
}

func TestParseArgsLogModeSkipsValidation(t *testing.T) {
	// The log viewer needs no build type or component selection.
	cfg, err := ParseArgs([]string{"-log"}, "/p", 4)
	if err != nil {
		t.Fatalf("ParseArgs(-log) error = %v", err)
	}
	if cfg.Mode != ModeLog {
		t.Errorf("ParseArgs(-log) Mode = %v, want ModeLog", cfg.Mode)
	}
}

func TestParseArgsUnknownTokenNamed(t *testing.T) {
	_, err := ParseArgs([]string{"-cpu", "-ambertools", "-frobnicate"}, "/p", 4)
	if err == nil {
		t.Fatal("ParseArgs() err = nil, want UsageError")
	}
	if !strings.Contains(err.Error(), "-frobnicate") {
		t.Errorf("error %q does not name the offending token", err)
	}
}

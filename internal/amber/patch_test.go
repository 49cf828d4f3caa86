package amber

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const pnetcdfFixture = `cmake_minimum_required(VERSION 3.1)
project(pnetcdf C CXX Fortran)
set(CMAKE_C_FLAGS "")
set(CMAKE_CXX_FLAGS "")
set(CMAKE_Fortran_FLAGS "")
set(PNETCDF_VERSION 1.12.3)
add_subdirectory(src)
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "CMakeLists.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPatchCMakeFlagResets(t *testing.T) {
	path := writeFixture(t, pnetcdfFixture)

	n, err := patchCMakeFlagResets(path)
	if err != nil {
		t.Fatalf("patchCMakeFlagResets() error = %v", err)
	}
	if n != 3 {
		t.Errorf("patched %d lines, want 3", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	for _, want := range []string{
		`#set(CMAKE_C_FLAGS "")`,
		`#set(CMAKE_CXX_FLAGS "")`,
		`#set(CMAKE_Fortran_FLAGS "")`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("patched file missing %q", want)
		}
	}

	// Unrelated lines stay untouched.
	if !strings.Contains(got, "set(PNETCDF_VERSION 1.12.3)") {
		t.Error("unrelated set() line was modified")
	}
}

func TestPatchCMakeFlagResetsSecondRunIsNoop(t *testing.T) {
	path := writeFixture(t, pnetcdfFixture)

	if _, err := patchCMakeFlagResets(path); err != nil {
		t.Fatalf("first run error = %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// A commented line no longer matches, so re-running must not touch it.
	n, err := patchCMakeFlagResets(path)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if n != 0 {
		t.Errorf("second run patched %d lines, want 0", n)
	}

	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("second run changed the file")
	}
}

func TestPatchCMakeFlagResetsIndentedLines(t *testing.T) {
	path := writeFixture(t, "  set(CMAKE_C_FLAGS \"\")\n")

	n, err := patchCMakeFlagResets(path)
	if err != nil {
		t.Fatalf("patchCMakeFlagResets() error = %v", err)
	}
	if n != 1 {
		t.Errorf("patched %d lines, want 1", n)
	}
}

func TestPatchCMakeFlagResetsMissingFile(t *testing.T) {
	if _, err := patchCMakeFlagResets(filepath.Join(t.TempDir(), "absent.cmake")); err == nil {
		t.Fatal("patchCMakeFlagResets() err = nil, want read error")
	}
}

package amber

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// pnetcdfCMakeFile is the third-party CMake file inside the AmberTools tree
// that resets the compiler flags chosen by the top-level configuration.
const pnetcdfCMakeFile = "AmberTools/src/pnetcdf/CMakeLists.txt"

// flagResetLine matches the three flag-reset statements for the C, C++ and
// Fortran compilers. A line already starting with # no longer matches, which
// is what makes re-running the installer textually idempotent.
var flagResetLine = regexp.MustCompile(`^\s*set\(CMAKE_(C|CXX|Fortran)_FLAGS\s+""\)`)

// patchCMakeFlagResets comments out every matching flag-reset line in path
// by prefixing it with #. Returns how many lines were commented.
func patchCMakeFlagResets(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("cannot read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	patched := 0
	for i, line := range lines {
		if flagResetLine.MatchString(line) {
			lines[i] = "#" + line
			patched++
		}
	}

	if patched == 0 {
		return 0, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("cannot write %s: %w", path, err)
	}
	return patched, nil
}

package amber

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"lukechampine.com/blake3"
)

// hashFile returns the BLAKE3 hex digest of a file. Tries the system b3sum
// first, then falls back to the internal implementation.
func hashFile(path string) (string, error) {
	if _, err := exec.LookPath("b3sum"); err == nil {
		cmd := exec.Command("b3sum", path)
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err == nil {
			fields := strings.Fields(out.String())
			if len(fields) > 0 {
				return fields[0], nil
			}
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// recordChecksum writes the digest sidecar next to the downloaded installer.
func recordChecksum(path string) error {
	sum, err := hashFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path+".b3", []byte(sum+"\n"), 0o644)
}

// verifyChecksum compares a file against its sidecar. A missing sidecar is
// not an error; there is simply nothing to verify against.
func verifyChecksum(path string) error {
	data, err := os.ReadFile(path + ".b3")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	want := strings.TrimSpace(string(data))

	got, err := hashFile(path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("checksum mismatch for %s: have %s, recorded %s", path, got, want)
	}
	return nil
}

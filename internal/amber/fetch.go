package amber

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// GitHub release downloads redirect to object storage; give the
	// handshake some slack on slow links.
	transport.TLSHandshakeTimeout = 30 * time.Second

	return &http.Client{
		Transport: transport,
		Timeout:   300 * time.Second, // 5 min total for the installer download
	}
}

// downloadFile downloads url into destPath inside the working directory.
// A .lock sidecar guards against two invocations racing for the same file.
// Tries curl first, then wget, then the native HTTP client.
func downloadFile(url, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", destPath, err)
	}

	lockPath := destPath + ".lock"
	lFile, err := os.Create(lockPath)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer lFile.Close()

	if err := unix.Flock(int(lFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock for download: %w", err)
	}
	defer unix.Flock(int(lFile.Fd()), unix.LOCK_UN)

	// Double check: the file may have appeared while we waited for the lock.
	if _, err := os.Stat(destPath); err == nil {
		debugf("File %s appeared after acquiring lock, skipping download.\n", destPath)
		_ = os.Remove(lockPath)
		return nil
	}

	defer func() {
		if _, err := os.Stat(destPath); err == nil {
			_ = os.Remove(lockPath)
		}
	}()

	debugf("Downloading %s -> %s\n", url, destPath)

	// Fetch into a .part name so a failed or interrupted download can never
	// be mistaken for a complete installer on the next run.
	tmpPath := destPath + ".part"
	if err := fetchInto(url, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}

// fetchInto writes url to tmpPath, trying curl, then wget, then the native
// HTTP client.
func fetchInto(url, tmpPath string) error {
	// --- Primary choice: curl ---
	if _, err := exec.LookPath("curl"); err == nil {
		cmd := exec.Command("curl", "-L", "--fail", "-#", "-o", tmpPath, url)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			debugf("Download successful with curl.\n")
			return nil
		}
		debugf("curl failed, falling back to wget\n")
	} else {
		debugf("curl not found, trying wget\n")
	}

	// --- Fallback 1: wget ---
	if _, err := exec.LookPath("wget"); err == nil {
		cmd := exec.Command("wget", "-nv", "-O", tmpPath, url)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			debugf("Download successful with wget.\n")
			return nil
		}
		debugf("wget failed, falling back to native Go HTTP client\n")
	} else {
		debugf("wget not found, using native Go HTTP client\n")
	}

	// --- Fallback 2: native Go HTTP client ---
	client := newHTTPClient()

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("native http get failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", tmpPath, err)
	}
	defer out.Close()

	var dst io.Writer = out
	if term.IsTerminal(int(os.Stdout.Fd())) {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(tmpPath))
		dst = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("failed to write to destination file: %w", err)
	}

	debugf("Download successful with native Go HTTP client.\n")
	return nil
}

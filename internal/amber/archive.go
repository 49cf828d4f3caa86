package amber

import (
	"archive/tar"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
	"golang.org/x/sys/unix"
)

// extractTar unpacks archive into dest. The vendor archives carry their own
// top-level directory (ambertools25_src/ etc.), so entries are written as
// named. Tries system tar first and falls back to pure-Go readers chosen by
// file extension, tolerating PAX headers and preserving timestamps.
func extractTar(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archive, err)
	}
	defer f.Close()

	if _, err := exec.LookPath("tar"); err == nil {
		if err := exec.Command("tar", "xf", archive, "-C", dest).Run(); err == nil {
			debugf("Used system tar for %s\n", archive)
			return nil
		}
		debugf("system tar failed for %s, using pure-Go extraction\n", archive)
	}

	// Determine the compression type based on file extension
	var r io.Reader = f
	switch {
	case strings.HasSuffix(archive, ".tar.gz") || strings.HasSuffix(archive, ".tgz"):
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader for %s: %w", archive, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(archive, ".tar.bz2"):
		r = bzip2.NewReader(f)
	case strings.HasSuffix(archive, ".tar.xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create xz reader for %s: %w", archive, err)
		}
		r = xzr
	case strings.HasSuffix(archive, ".tar.zst"):
		zst, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create zstd reader for %s: %w", archive, err)
		}
		defer zst.Close()
		r = zst
	case strings.HasSuffix(archive, ".tar"):
		// No compression
	default:
		return fmt.Errorf("unsupported archive format: %s", archive)
	}

	absDest, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading tar header in %s: %w", archive, err)
		}

		// Skip PAX headers (global or per-file)
		if hdr.Typeflag == tar.TypeXHeader || hdr.Typeflag == tar.TypeXGlobalHeader {
			if _, err := io.Copy(io.Discard, tr); err != nil {
				return fmt.Errorf("error skipping extended header data in %s: %w", archive, err)
			}
			continue
		}

		targetPath := filepath.Join(absDest, hdr.Name)

		// Guard against path traversal out of dest.
		if !strings.HasPrefix(targetPath, absDest+string(os.PathSeparator)) && targetPath != absDest {
			return fmt.Errorf("illegal entry path in archive: %s", hdr.Name)
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return fmt.Errorf("failed to create parent dir for %s: %w", targetPath, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, os.FileMode(hdr.Mode)); err != nil {
				return fmt.Errorf("failed to create dir %s: %w", targetPath, err)
			}
			if err := os.Chtimes(targetPath, hdr.AccessTime, hdr.ModTime); err != nil {
				debugf("failed to set times for dir %s: %v\n", targetPath, err)
			}
		case tar.TypeReg:
			outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return fmt.Errorf("failed to create file %s: %w", targetPath, err)
			}
			if _, err := io.Copy(outFile, tr); err != nil {
				outFile.Close()
				return fmt.Errorf("failed to write file %s: %w", targetPath, err)
			}
			outFile.Close()
			if err := os.Chtimes(targetPath, hdr.AccessTime, hdr.ModTime); err != nil {
				debugf("failed to set times for file %s: %v\n", targetPath, err)
			}
		case tar.TypeSymlink:
			if err := os.Symlink(hdr.Linkname, targetPath); err != nil && !os.IsExist(err) {
				return fmt.Errorf("failed to create symlink %s -> %s: %w", targetPath, hdr.Linkname, err)
			}
			atime := unix.Timeval{
				Sec:  hdr.AccessTime.Unix(),
				Usec: int64(hdr.AccessTime.Nanosecond() / 1000),
			}
			mtime := unix.Timeval{
				Sec:  hdr.ModTime.Unix(),
				Usec: int64(hdr.ModTime.Nanosecond() / 1000),
			}
			if err := unix.Lutimes(targetPath, []unix.Timeval{atime, mtime}); err != nil {
				debugf("failed to set times for symlink %s: %v (continuing)\n", targetPath, err)
			}
		default:
			debugf("Skipping unsupported tar entry type %c: %s\n", hdr.Typeflag, hdr.Name)
		}
	}

	return nil
}

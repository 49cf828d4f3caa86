package amber

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// envSpecFile is the declarative conda environment specification expected in
// the working directory.
const envSpecFile = "environment.yml"

// miniforgeURL builds the platform-specific installer URL following the
// Miniforge release naming convention (uname -s / uname -m).
func miniforgeURL(cfg *Config) string {
	if u := cfg.Values["AMBERINSTALL_MINIFORGE_URL"]; u != "" {
		return u
	}

	osName := strings.ToUpper(runtime.GOOS[:1]) + runtime.GOOS[1:]

	machine := runtime.GOARCH
	switch machine {
	case "amd64":
		machine = "x86_64"
	case "arm64":
		machine = "aarch64"
	}

	return fmt.Sprintf(
		"https://github.com/conda-forge/miniforge/releases/latest/download/Miniforge3-%s-%s.sh",
		osName, machine)
}

// modulePurge clears any environment-modules state before the build so that
// loaded toolchain modules cannot leak into the conda environment. Fire and
// forget: a missing module command is not an error.
func modulePurge() {
	if os.Getenv("MODULESHOME") == "" && os.Getenv("LMOD_DIR") == "" {
		return
	}
	step("Environment-module system detected, purging loaded modules")
	cmd := exec.Command("bash", "-lc", "module purge")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		debugf("module purge failed (ignored): %v\n", err)
	}
}

// environmentReady reports whether the named conda environment exists.
func environmentReady() bool {
	info, err := os.Stat(filepath.Join(miniforgeDir, "envs", envName))
	return err == nil && info.IsDir()
}

// bootstrapEnvironment installs Miniforge into the working directory and
// creates the build environment from environment.yml. Every failure is
// fatal; there is no retry.
func bootstrapEnvironment(cfg *Config, execCtx *Executor) error {
	if environmentReady() {
		debugf("Environment %s already present, skipping bootstrap\n", envName)
		return nil
	}

	if _, err := os.Stat(filepath.Join(workDir, envSpecFile)); err != nil {
		return &MissingInputError{
			Path:   envSpecFile,
			Remedy: "ship the conda environment specification alongside the installer",
		}
	}

	if _, err := os.Stat(miniforgeDir); os.IsNotExist(err) {
		url := miniforgeURL(cfg)
		installer := filepath.Join(workDir, filepath.Base(url))

		if _, err := os.Stat(installer); os.IsNotExist(err) {
			step("Downloading Miniforge installer")
			if err := downloadFile(url, installer); err != nil {
				return toolErrorf("miniforge download", err)
			}
			if err := recordChecksum(installer); err != nil {
				debugf("failed to record installer checksum: %v\n", err)
			}
		} else {
			step("Reusing local Miniforge installer %s", filepath.Base(installer))
			if err := verifyChecksum(installer); err != nil {
				return toolErrorf("miniforge installer verification", err)
			}
		}

		step("Installing Miniforge into %s", miniforgeDir)
		cmd := exec.Command("bash", installer, "-b", "-p", miniforgeDir)
		if err := execCtx.Run(cmd); err != nil {
			return toolErrorf("miniforge install", err)
		}
	} else {
		debugf("Miniforge directory %s already present\n", miniforgeDir)
	}

	step("Creating conda environment %s from %s", envName, envSpecFile)
	conda := filepath.Join(miniforgeDir, "bin", "conda")
	cmd := exec.Command(conda, "env", "create", "-n", envName, "-f", filepath.Join(workDir, envSpecFile))
	if err := execCtx.Run(cmd); err != nil {
		return toolErrorf("conda env create", err)
	}

	return nil
}

// activateEnvironment prepends the environment's executable directories to
// PATH for the remainder of the process. Process exit is the implicit
// deactivation.
func activateEnvironment() error {
	envBin := filepath.Join(miniforgeDir, "envs", envName, "bin")
	baseBin := filepath.Join(miniforgeDir, "bin")

	if _, err := os.Stat(envBin); err != nil {
		return fmt.Errorf("environment %s is not usable: %w", envName, err)
	}

	path := envBin + string(os.PathListSeparator) + baseBin
	if cur := os.Getenv("PATH"); cur != "" {
		path += string(os.PathListSeparator) + cur
	}
	return os.Setenv("PATH", path)
}

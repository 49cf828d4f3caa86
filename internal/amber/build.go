package amber

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// buildState tracks a component's progress through the install pipeline.
// Transitions are strictly forward; any step may move to stateFailed, which
// is terminal for the whole invocation.
type buildState int

const (
	stateNotStarted buildState = iota
	stateVerified
	stateExtracted
	stateUpdated
	statePatched
	stateConfigured
	stateBuilt
	stateInstalled
	stateFailed
)

func (s buildState) String() string {
	switch s {
	case stateNotStarted:
		return "not started"
	case stateVerified:
		return "verified"
	case stateExtracted:
		return "extracted"
	case stateUpdated:
		return "updated"
	case statePatched:
		return "patched"
	case stateConfigured:
		return "configured"
	case stateBuilt:
		return "built"
	case stateInstalled:
		return "installed"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// pipeline drives one component from archive to installed tree.
type pipeline struct {
	comp    Component
	cfg     *BuildConfig
	execCtx *Executor

	state    buildState
	prefix   string
	archive  string // absolute path of the vendor archive
	srcDir   string // absolute path of the extracted tree
	buildDir string
	logPath  string
}

func newPipeline(comp Component, cfg *BuildConfig, execCtx *Executor) *pipeline {
	return &pipeline{
		comp:     comp,
		cfg:      cfg,
		execCtx:  execCtx,
		state:    stateNotStarted,
		prefix:   cfg.InstallPrefixFor(comp),
		archive:  filepath.Join(workDir, comp.Archive),
		srcDir:   filepath.Join(workDir, comp.SrcDir),
		buildDir: filepath.Join(workDir, comp.SrcDir, "build"),
		logPath:  filepath.Join(logsDir, comp.Name+".log"),
	}
}

func (p *pipeline) advance(next buildState) {
	debugf("%s: %s -> %s\n", p.comp.Name, p.state, next)
	p.state = next
}

// run executes the steps in order, stopping at the first failure.
func (p *pipeline) run() error {
	steps := []struct {
		name string
		fn   func() error
		next buildState
	}{
		{"verify", p.verify, stateVerified},
		{"extract", p.extract, stateExtracted},
		{"update", p.update, stateUpdated},
		{"patch", p.patch, statePatched},
		{"configure", p.configure, stateConfigured},
		{"build", p.build, stateBuilt},
		{"install", p.install, stateInstalled},
	}

	for _, s := range steps {
		if err := s.fn(); err != nil {
			p.advance(stateFailed)
			return fmt.Errorf("%s %s: %w", p.comp.Name, s.name, err)
		}
		p.advance(s.next)
	}
	return nil
}

// verify checks the vendor archive is present before any side effect.
func (p *pipeline) verify() error {
	if !fileExists(p.archive) {
		return &MissingInputError{
			Path:   p.comp.Archive,
			Remedy: fmt.Sprintf("download it from %s and place it in %s", archiveSourceURL, workDir),
		}
	}
	return nil
}

// extract unpacks the archive unless the source tree already exists, so a
// re-run after a partial build never re-extracts.
func (p *pipeline) extract() error {
	if dirExists(p.srcDir) {
		step("Source tree %s already present, skipping extraction", p.comp.SrcDir)
		return nil
	}

	step("Extracting %s", p.comp.Archive)
	if err := extractTar(p.archive, workDir); err != nil {
		return toolErrorf("extraction", err)
	}
	if !dirExists(p.srcDir) {
		return fmt.Errorf("archive %s did not produce %s", p.comp.Archive, p.comp.SrcDir)
	}
	return nil
}

// update runs the vendored self-update mechanism inside the source tree.
// Later configuration depends on updated sources, so failure is fatal.
func (p *pipeline) update() error {
	step("Updating %s sources", p.comp.Name)
	cmd := exec.Command("./update_amber", "--update")
	cmd.Dir = p.srcDir
	if err := p.execCtx.Run(cmd); err != nil {
		return toolErrorf("update_amber", err)
	}
	return nil
}

// patch comments out the pnetcdf compiler-flag resets. Only the AmberTools
// tree carries the offending file.
func (p *pipeline) patch() error {
	if !p.comp.PatchCMakeFlags {
		return nil
	}

	target := filepath.Join(p.srcDir, filepath.FromSlash(pnetcdfCMakeFile))
	n, err := patchCMakeFlagResets(target)
	if err != nil {
		return err
	}
	if n > 0 {
		step("Patched %d compiler-flag reset(s) in %s", n, pnetcdfCMakeFile)
	} else {
		debugf("No flag resets left to patch in %s\n", target)
	}
	return nil
}

// cmakeBool renders a native bool the way the build tool expects it. The
// TRUE/FALSE strings exist only at this boundary.
func cmakeBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// cmakeArgs derives the full configure parameter set for this component.
// The GUI and auxiliary Python bindings are disabled for every component;
// per-component toggles come from the component table.
func (p *pipeline) cmakeArgs() []string {
	args := []string{
		"..",
		"-DCMAKE_INSTALL_PREFIX=" + p.prefix,
		"-DCOMPILER=" + compilerID,
		"-DMPI=" + cmakeBool(p.cfg.Parallel),
		"-DCUDA=" + cmakeBool(p.cfg.CUDA),
		"-DDOWNLOAD_MINICONDA=FALSE",
		"-DBUILD_GUI=FALSE",
		"-DBUILD_PYTHON=FALSE",
	}
	return append(args, p.comp.ExtraCMake...)
}

// configure creates the build directory, clears stale CMake metadata from a
// previous configuration, then runs cmake with the derived flag set.
func (p *pipeline) configure() error {
	if err := os.MkdirAll(p.buildDir, 0o755); err != nil {
		return fmt.Errorf("failed to create build dir %s: %w", p.buildDir, err)
	}

	cache := filepath.Join(p.buildDir, "CMakeCache.txt")
	if fileExists(cache) {
		step("Clearing stale CMake cache for %s", p.comp.Name)
		if err := os.Remove(cache); err != nil {
			return fmt.Errorf("failed to clear %s: %w", cache, err)
		}
		if err := os.RemoveAll(filepath.Join(p.buildDir, "CMakeFiles")); err != nil {
			return fmt.Errorf("failed to clear CMakeFiles: %w", err)
		}
	}

	step("Configuring %s (MPI=%s CUDA=%s prefix=%s)",
		p.comp.Name, cmakeBool(p.cfg.Parallel), cmakeBool(p.cfg.CUDA), p.prefix)

	cmd := exec.Command("cmake", p.cmakeArgs()...)
	cmd.Dir = p.buildDir
	if err := p.runLogged(cmd); err != nil {
		return toolErrorf("cmake", err)
	}
	return nil
}

func (p *pipeline) build() error {
	step("Building %s with %d job(s)", p.comp.Name, p.cfg.Jobs)
	cmd := exec.Command("make", fmt.Sprintf("-j%d", p.cfg.Jobs))
	cmd.Dir = p.buildDir
	if err := p.runLogged(cmd); err != nil {
		return toolErrorf("make", err)
	}
	return nil
}

func (p *pipeline) install() error {
	step("Installing %s into %s", p.comp.Name, p.prefix)

	// Interrupting mid-install leaves a half-written prefix; demand a second
	// Ctrl+C while this runs.
	isCriticalAtomic.Store(1)
	defer isCriticalAtomic.Store(0)

	cmd := exec.Command("make", "install")
	cmd.Dir = p.buildDir
	if err := p.runLogged(cmd); err != nil {
		return toolErrorf("make install", err)
	}
	return nil
}

// runLogged runs cmd with stdout/stderr teed into the component log.
func (p *pipeline) runLogged(cmd *exec.Cmd) error {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log dir %s: %w", logsDir, err)
	}
	logFile, err := os.OpenFile(p.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log %s: %w", p.logPath, err)
	}
	defer logFile.Close()

	fmt.Fprintf(logFile, "\n==== %s: %s (%s)\n", p.comp.Name, strings.Join(cmd.Args, " "), time.Now().Format(time.RFC3339))

	out := io.MultiWriter(os.Stdout, logFile)
	cmd.Stdout = out
	cmd.Stderr = out
	return p.execCtx.Run(cmd)
}

// runInstall drives every selected component sequentially and prints the
// aggregate summary on success.
func runInstall(cfg *BuildConfig, conf *Config, execCtx *Executor) error {
	modulePurge()

	if !environmentReady() {
		if err := bootstrapEnvironment(conf, execCtx); err != nil {
			return err
		}
	} else {
		step("Reusing conda environment %s", envName)
	}
	if err := activateEnvironment(); err != nil {
		return err
	}

	start := time.Now()
	for _, comp := range cfg.Components {
		p := newPipeline(comp, cfg, execCtx)
		if err := p.run(); err != nil {
			return err
		}
	}

	fmt.Println()
	colArrow.Print("-> ")
	colSuccess.Printf("Installation finished in %s\n", time.Since(start).Round(time.Second))
	for _, comp := range cfg.Components {
		colArrow.Print("-> ")
		colNote.Printf("%s installed under %s\n", comp.Name, cfg.InstallPrefixFor(comp))
	}
	return nil
}

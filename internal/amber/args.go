package amber

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gookit/color"
)

// Component describes one installable unit of the suite.
type Component struct {
	Name            string
	Flag            string   // selector token on the command line
	Archive         string   // vendor archive expected in the working directory
	SrcDir          string   // directory the archive extracts into
	PatchCMakeFlags bool     // apply the pnetcdf compiler-flag patch after extraction
	ExtraCMake      []string // component-specific configure toggles
}

var components = []Component{
	{
		Name:            "ambertools",
		Flag:            "-ambertools",
		Archive:         "ambertools25.tar.bz2",
		SrcDir:          "ambertools25_src",
		PatchCMakeFlags: true,
		ExtraCMake:      []string{"-DINSTALL_TESTS=FALSE"},
	},
	{
		Name:       "pmemd",
		Flag:       "-pmemd",
		Archive:    "pmemd24.tar.bz2",
		SrcDir:     "pmemd24_src",
		ExtraCMake: []string{"-DPMEMD_ONLY=TRUE"},
	},
}

// archiveSourceURL is where users register to obtain the vendor tarballs.
const archiveSourceURL = "https://ambermd.org/GetAmber.php"

// Mode selects what the invocation does after parsing.
type Mode int

const (
	ModeInstall Mode = iota
	ModeHelp
	ModeVersion
	ModeLog
)

// BuildConfig is the validated, immutable result of argument resolution.
type BuildConfig struct {
	Mode       Mode
	Parallel   bool // MPI build requested
	CUDA       bool // GPU/accelerator build requested
	Components []Component
	Jobs       int
	Debug      bool

	prefixes map[string]string
}

// InstallPrefixFor returns the resolved install directory for a component.
func (c *BuildConfig) InstallPrefixFor(comp Component) string {
	return c.prefixes[comp.Name]
}

// buildTypes maps selector flags to (parallel, cuda).
var buildTypes = map[string][2]bool{
	"-cpu":     {false, false},
	"-gpu":     {false, true},
	"-mpi_cpu": {true, false},
	"-mpi_gpu": {true, true},
}

// ParseArgs resolves the argument vector into a BuildConfig. It is a pure
// left-to-right scan: each flag consumes itself plus, for value-bearing
// flags, exactly one following token. defaultPrefix and defaultJobs supply
// the fallbacks for -path_install and -nproc.
func ParseArgs(args []string, defaultPrefix string, defaultJobs int) (*BuildConfig, error) {
	cfg := &BuildConfig{
		Jobs:     defaultJobs,
		prefixes: make(map[string]string),
	}

	componentByFlag := make(map[string]Component, len(components))
	pathFlagFor := make(map[string]string, len(components))
	for _, c := range components {
		componentByFlag[c.Flag] = c
		pathFlagFor["-path_"+c.Name] = c.Name
	}

	buildTypeCount := 0
	globalPrefix := ""
	perComponent := make(map[string]string)

	takeValue := func(i int, flag string) (string, error) {
		if i+1 >= len(args) {
			return "", usageErrorf("%s requires a value", flag)
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		tok := args[i]
		switch {
		case tok == "-h" || tok == "--help":
			// Help wins over everything already parsed.
			return &BuildConfig{Mode: ModeHelp}, nil

		case tok == "-version" || tok == "--version":
			return &BuildConfig{Mode: ModeVersion}, nil

		case tok == "-log":
			cfg.Mode = ModeLog

		case tok == "-debug":
			cfg.Debug = true

		case tok == "-nproc":
			val, err := takeValue(i, tok)
			if err != nil {
				return nil, err
			}
			i++
			n, convErr := strconv.Atoi(val)
			if convErr != nil || n < 1 {
				return nil, usageErrorf("-nproc expects a positive integer, got %q", val)
			}
			cfg.Jobs = n

		case tok == "-path_install":
			val, err := takeValue(i, tok)
			if err != nil {
				return nil, err
			}
			i++
			globalPrefix = val

		default:
			if bt, ok := buildTypes[tok]; ok {
				buildTypeCount++
				cfg.Parallel = bt[0]
				cfg.CUDA = bt[1]
				continue
			}
			if comp, ok := componentByFlag[tok]; ok {
				if !cfg.hasComponent(comp.Name) {
					cfg.Components = append(cfg.Components, comp)
				}
				continue
			}
			if name, ok := pathFlagFor[tok]; ok {
				val, err := takeValue(i, tok)
				if err != nil {
					return nil, err
				}
				i++
				perComponent[name] = val
				continue
			}
			return nil, usageErrorf("unknown argument: %s", tok)
		}
	}

	if cfg.Mode == ModeLog {
		return cfg, nil
	}

	// Validation order matters: build type first, component selection second.
	if buildTypeCount != 1 {
		return nil, usageErrorf("exactly one of -cpu, -gpu, -mpi_cpu, -mpi_gpu must be given (got %d)", buildTypeCount)
	}
	if len(cfg.Components) == 0 {
		flags := make([]string, 0, len(components))
		for _, c := range components {
			flags = append(flags, c.Flag)
		}
		return nil, usageErrorf("at least one component must be selected (%s)", strings.Join(flags, ", "))
	}

	for _, c := range cfg.Components {
		switch {
		case perComponent[c.Name] != "":
			cfg.prefixes[c.Name] = perComponent[c.Name]
		case globalPrefix != "":
			cfg.prefixes[c.Name] = globalPrefix
		default:
			cfg.prefixes[c.Name] = defaultPrefix
		}
	}

	return cfg, nil
}

func (c *BuildConfig) hasComponent(name string) bool {
	for _, comp := range c.Components {
		if comp.Name == name {
			return true
		}
	}
	return false
}

// printUsage prints the flag table
func printUsage() {
	colSuccess.Println("Usage: amberinstall <build-type> <component...> [options]")
	fmt.Println()
	color.Info.Println("Build type (exactly one):")

	type flagInfo struct {
		Flag string
		Desc string
	}
	buildFlags := []flagInfo{
		{"-cpu", "Serial CPU build"},
		{"-gpu", "Serial CUDA build"},
		{"-mpi_cpu", "MPI-parallel CPU build"},
		{"-mpi_gpu", "MPI-parallel CUDA build"},
	}
	otherFlags := []flagInfo{
		{"-ambertools", "Install AmberTools"},
		{"-pmemd", "Install the PMEMD engine"},
		{"-path_install <dir>", "Install prefix for all components"},
		{"-path_ambertools <dir>", "Install prefix for AmberTools only"},
		{"-path_pmemd <dir>", "Install prefix for PMEMD only"},
		{"-nproc <n>", "Compile jobs (default: all processors)"},
		{"-log", "Open the build-log viewer"},
		{"-debug", "Verbose diagnostics"},
		{"-version", "Version information"},
		{"-h, --help", "This help"},
	}

	maxLen := 0
	for _, f := range append(buildFlags, otherFlags...) {
		if len(f.Flag) > maxLen {
			maxLen = len(f.Flag)
		}
	}
	columnWidth := maxLen + 4

	printRows := func(rows []flagInfo) {
		for _, f := range rows {
			fmt.Print("  ")
			color.Bold.Print(f.Flag)
			pad := columnWidth - len(f.Flag)
			if pad < 1 {
				pad = 1
			}
			fmt.Print(strings.Repeat(" ", pad))
			color.Info.Println(f.Desc)
		}
	}

	printRows(buildFlags)
	fmt.Println()
	color.Info.Println("Components and options:")
	printRows(otherFlags)
	fmt.Println()
	colNote.Printf("Vendor archives must be present in the working directory (%s)\n", archiveSourceURL)
}

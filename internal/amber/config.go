package amber

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
}

// Load amberinstall.conf from the working directory and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge AMBERINSTALL_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "AMBERINSTALL_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

func initConfig(cfg *Config) {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	workDir = wd
	logsDir = filepath.Join(workDir, "logs")
	miniforgeDir = filepath.Join(workDir, "miniforge3")

	envName = cfg.Values["AMBERINSTALL_ENV"]
	if envName == "" {
		envName = "amber-build"
	}

	compilerID = cfg.Values["AMBERINSTALL_COMPILER"]
	if compilerID == "" {
		compilerID = "GNU"
	}

	prefixRoot = cfg.Values["AMBERINSTALL_PREFIX"]
	if prefixRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		prefixRoot = filepath.Join(home, "amber")
	}

	if cfg.Values["AMBERINSTALL_DEBUG"] == "1" {
		Debug = true
	}
}

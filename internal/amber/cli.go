package amber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gookit/color"
)

// Main is the CLI entrypoint for the amberinstall binary.
func Main() {
	// 1. CONTEXT AND SIGNAL SETUP
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. SIGNAL CHANNEL SETUP
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	// 3. SIGNAL HANDLING GOROUTINE
	go func() {
		for {
			select {
			case sig := <-sigs:
				if isCriticalAtomic.Load() == 1 {
					// Critical phase (make install): block the first signal,
					// force exit on the second.
					colArrow.Print("\n-> ")
					colError.Printf("Install step in progress. Press Ctrl+C AGAIN to force exit NOW.\n")

					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						colError.Printf("Forced immediate exit.")
						os.Exit(130)
					case <-time.After(5 * time.Second):
						continue
					case <-ctx.Done():
						return
					}
				} else {
					colArrow.Print("\n-> ")
					color.Danger.Printf("Received %v. Cancelling process gracefully\n", sig)
					cancel()

					// Give the child a moment to die and flush its buffers
					time.Sleep(100 * time.Millisecond)

					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						color.Danger.Printf("Second interrupt received. Forcing immediate exit.")
						os.Exit(130)
					case <-time.After(2 * time.Second):
						colArrow.Print("\n-> ")
						color.Danger.Printf("Graceful shutdown timeout. Exiting.")
						os.Exit(130)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	if ctx.Err() != nil {
		return
	}

	// 4. CONFIGURATION
	cfgFile, err := loadConfig(ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", ConfigFile, err)
	}
	initConfig(cfgFile)

	// 5. ARGUMENT RESOLUTION
	cfg, err := ParseArgs(os.Args[1:], prefixRoot, runtime.NumCPU())
	if err != nil {
		var ue *UsageError
		if errors.As(err, &ue) {
			colError.Printf("Error: %s\n", ue.Msg)
			fmt.Fprintln(os.Stderr)
			printUsage()
			os.Exit(1)
		}
		colError.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Debug {
		Debug = true
	}

	switch cfg.Mode {
	case ModeHelp:
		printUsage()
		os.Exit(1)

	case ModeVersion:
		colNote.Printf("amberinstall %s (%s) built %s\n", version, arch, buildDate)
		return

	case ModeLog:
		os.Exit(runLogViewer())
	}

	// 6. INSTALL
	Exec = NewExecutor(ctx)

	if err := runInstall(cfg, cfgFile, Exec); err != nil {
		colArrow.Print("-> ")
		colError.Printf("%v\n", err)

		var mie *MissingInputError
		if errors.As(err, &mie) && mie.Remedy != "" {
			colArrow.Print("-> ")
			colWarn.Printf("Hint: %s\n", mie.Remedy)
		}
		os.Exit(1)
	}
}

// Lode CLI - the main entry point for running Lode program images
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/lodelang/lode/image"
	"github.com/lodelang/lode/manifest"
	"github.com/lodelang/lode/vm"

	_ "github.com/tliron/commonlog/simple"
)

// Exit codes beyond what the program's R register selects.
const (
	exitUsage = 64
	exitFault = 70
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	trace := flag.Bool("trace", false, "Disassemble each instruction as it executes")
	imagePath := flag.String("m", "", "Program image to run (overrides lode.toml)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lode [options] [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a Lode program image. The image and host grants come from the\n")
		fmt.Fprintf(os.Stderr, "nearest lode.toml unless -m is given.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  lode                   # Run the image named in lode.toml\n")
		fmt.Fprintf(os.Stderr, "  lode -m app.lode a b   # Run app.lode with args a b\n")
		fmt.Fprintf(os.Stderr, "  lode -trace -m app.lode  # Trace execution\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)
	log := commonlog.GetLogger("lode")

	runID := uuid.New().String()
	log.Debugf("run %s starting", runID)

	// Find host configuration
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m, err := manifest.FindAndLoad(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		// No manifest: run with defaults and no grants.
		m = &manifest.Manifest{}
		m.VM.StackSize = vm.DefaultStackCapacity
	} else if *verbose {
		log.Infof("using manifest in %s", m.Dir)
	}

	path := m.ImagePath()
	if *imagePath != "" {
		path = *imagePath
	}
	if path == "" {
		fmt.Fprintf(os.Stderr, "Error: no program image (pass -m or set [program] image in lode.toml)\n")
		os.Exit(exitUsage)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading image: %v\n", err)
		os.Exit(1)
	}
	img, err := image.Unmarshal(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image %s: %v\n", path, err)
		os.Exit(1)
	}
	if *verbose {
		log.Infof("loaded %s (%d bytes of code, requires %s)", path, len(img.Code), img.Capabilities)
	}

	machine, err := img.NewVM(m.Granted(),
		vm.WithStackCapacity(m.VM.StackSize),
		vm.WithStreams(vm.NewOSStreams(flag.Args())),
		vm.WithFilesystem(vm.NewOSFilesystem()),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	machine.Trace = *trace

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := machine.RunContext(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintf(os.Stderr, "Interrupted\n")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Fault: %v\n", err)
		os.Exit(exitFault)
	}

	log.Debugf("run %s halted", runID)

	// The R register selects the exit status when it holds a number.
	if code, ok := machine.Registers().R.TryNumber(); ok {
		os.Exit(int(code))
	}
}

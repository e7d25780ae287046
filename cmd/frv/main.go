// Command frv runs a flat RV64IM binary on a simulated hart.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/frv/config"
	"github.com/sarchlab/frv/hart"
)

var (
	configFlag  = flag.String("config", "", "YAML platform configuration")
	traceFlag   = flag.Bool("trace", false, "log every executed instruction")
	logFlag     = flag.String("log", "", "write the trace log to this file instead of stderr")
	monitorFlag = flag.Bool("monitor", false, "serve the akita monitor while running")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(),
		"usage: %s [flags] <binary-path> [ram-size-in-MB]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		atexit.Exit(1)
	}

	c, err := loadConfig(*configFlag, *traceFlag, *logFlag, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	setupLogging(c)

	engine := sim.NewSerialEngine()
	builder := config.MakePlatformBuilder().
		WithEngine(engine).
		WithConfig(c)

	var monitor *monitoring.Monitor
	if *monitorFlag {
		monitor = monitoring.NewMonitor()
		builder = builder.WithMonitor(monitor)
	}

	platform := builder.Build("FRV")

	if monitor != nil {
		monitor.StartServer()
	}

	path := flag.Arg(0)
	if _, err := platform.LoadProgram(path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	runErr := platform.Run()

	hart.PrintState(os.Stdout, platform.Hart)

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "halted:", runErr)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadConfig merges the config file, the flags and the positional RAM size in
// args[1], in increasing order of precedence.
func loadConfig(
	configPath string,
	trace bool,
	logFile string,
	args []string,
) (config.Config, error) {
	c := config.DefaultConfig()

	if configPath != "" {
		var err error

		c, err = config.LoadFile(configPath)
		if err != nil {
			return c, err
		}
	}

	if trace {
		c.Trace = true
	}

	if logFile != "" {
		c.LogFile = logFile
	}

	if len(args) > 1 {
		mb, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil || mb == 0 || mb > config.MaxRAMSizeMB {
			return c, fmt.Errorf("invalid RAM size %q", args[1])
		}

		c.RAMSizeMB = mb
	}

	return c, nil
}

func setupLogging(c config.Config) {
	level := slog.LevelWarn
	if c.Trace {
		level = hart.LevelTrace
	}

	var w io.Writer = os.Stderr

	if c.LogFile != "" {
		f, err := os.Create(c.LogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot open log file:", err)
			atexit.Exit(1)
		}

		atexit.Register(func() { f.Close() })
		w = f
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Command handosc forwards hand-tracking frames to an OSC server over UDP.
//
// Usage:
//
//	handosc [flags] [host] [port]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/banshee-data/handosc/internal/bridge"
	"github.com/banshee-data/handosc/internal/config"
	"github.com/banshee-data/handosc/internal/monitoring"
	"github.com/banshee-data/handosc/internal/source"
	"github.com/banshee-data/handosc/internal/timeutil"
	"github.com/banshee-data/handosc/internal/transport"
	"github.com/banshee-data/handosc/internal/version"
)

// cliFlags holds the raw flag values. Only flags set on the command line
// override the file and environment layers.
type cliFlags struct {
	configPath string
	port       int
	multiArg   bool
	verbose    bool
	dumb       bool
	unbundled  bool
	source     string
	record     string

	xMin, xMax float64
	yMin, yMax float64
	zMin, zMax float64

	missThreshold   int
	purgeMultiplier int
	version         bool
}

func newFlagSet(f *cliFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("handosc", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "Path to a JSON config file")
	fs.IntVar(&f.port, "port", config.DefaultPort, "OSC server port")
	fs.IntVar(&f.port, "p", config.DefaultPort, "Shorthand for -port")
	fs.BoolVar(&f.multiArg, "multi-arg-vector", false, "Send vectors as one three-argument message")
	fs.BoolVar(&f.multiArg, "m", false, "Shorthand for -multi-arg-vector")
	fs.BoolVar(&f.verbose, "verbose", false, "Log per-frame hand summaries and tracker transitions")
	fs.BoolVar(&f.verbose, "v", false, "Shorthand for -verbose")
	fs.BoolVar(&f.dumb, "dumb", false, "Publish raw device ids without stabilization")
	fs.BoolVar(&f.dumb, "d", false, "Shorthand for -dumb")
	fs.BoolVar(&f.unbundled, "unbundled", false, "Send every message as its own datagram")
	fs.BoolVar(&f.unbundled, "u", false, "Shorthand for -unbundled")
	fs.StringVar(&f.source, "source", config.DefaultSource, "Frame source: synthetic, replay:<path> or udp:<addr>")
	fs.StringVar(&f.record, "record", "", "Record raw frames to this JSON-lines file")
	fs.Float64Var(&f.xMin, "x-min", 0, "Device x mapped to -0.5")
	fs.Float64Var(&f.xMax, "x-max", 0, "Device x mapped to +0.5")
	fs.Float64Var(&f.yMin, "y-min", 0, "Device y mapped to -0.5")
	fs.Float64Var(&f.yMax, "y-max", 0, "Device y mapped to +0.5")
	fs.Float64Var(&f.zMin, "z-min", 0, "Device z mapped to -0.5")
	fs.Float64Var(&f.zMax, "z-max", 0, "Device z mapped to +0.5")
	fs.IntVar(&f.missThreshold, "miss-threshold", config.DefaultMissThreshold, "Frames a part may be unseen before it is zeroed")
	fs.IntVar(&f.purgeMultiplier, "purge-multiplier", config.DefaultPurgeMultiplier, "Purge after miss-threshold times this many frames")
	fs.BoolVar(&f.version, "version", false, "Print version and exit")
	return fs
}

// resolveConfig layers the config file, HANDOSC_* environment, explicitly
// set flags and finally the positional host and port.
func resolveConfig(fs *flag.FlagSet, f *cliFlags) (*config.Config, error) {
	cfg := &config.Config{}
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port", "p":
			cfg.Port = &f.port
		case "multi-arg-vector", "m":
			cfg.MultiArg = &f.multiArg
		case "verbose", "v":
			cfg.Verbose = &f.verbose
		case "dumb", "d":
			cfg.Dumb = &f.dumb
		case "unbundled", "u":
			cfg.Unbundled = &f.unbundled
		case "source":
			cfg.Source = &f.source
		case "record":
			cfg.Record = &f.record
		case "x-min":
			cfg.XMin = &f.xMin
		case "x-max":
			cfg.XMax = &f.xMax
		case "y-min":
			cfg.YMin = &f.yMin
		case "y-max":
			cfg.YMax = &f.yMax
		case "z-min":
			cfg.ZMin = &f.zMin
		case "z-max":
			cfg.ZMax = &f.zMax
		case "miss-threshold":
			cfg.MissThreshold = &f.missThreshold
		case "purge-multiplier":
			cfg.PurgeMultiplier = &f.purgeMultiplier
		}
	})

	args := fs.Args()
	if len(args) > 2 {
		return nil, fmt.Errorf("%w: too many arguments: %v", config.ErrInvalidConfig, args)
	}
	if len(args) >= 1 {
		host := args[0]
		cfg.Host = &host
	}
	if len(args) == 2 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("%w: port %q is not a number", config.ErrInvalidConfig, args[1])
		}
		cfg.Port = &port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	var f cliFlags
	fs := newFlagSet(&f)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if f.version {
		fmt.Println(version.String("handosc"))
		return
	}

	cfg, err := resolveConfig(fs, &f)
	if err != nil {
		logger := monitoring.NewLogger(os.Stderr, f.verbose)
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger := monitoring.NewLogger(os.Stderr, cfg.GetVerbose())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		stop()
		logger.Fatal().Err(err).Msg("bridge failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	clock := timeutil.RealClock{}

	src, err := source.Parse(cfg.GetSource(), clock, logger)
	if err != nil {
		return err
	}

	client, err := transport.Dial(cfg.GetHost(), cfg.GetPort())
	if err != nil {
		return err
	}
	defer client.Close()
	logger.Info().Stringer("target", client).Str("source", cfg.GetSource()).Msg("connected OSC client")

	var record io.Writer
	if path := cfg.GetRecord(); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to open recording: %w", err)
		}
		defer file.Close()
		buf := bufio.NewWriter(file)
		defer buf.Flush()
		record = buf
	}

	return bridge.New(cfg, client, clock, logger).Run(ctx, src, record)
}

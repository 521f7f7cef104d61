// main.go - Reelplay command line player

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147mReelplay\033[0m - tile video and audio playback for the Intuition Engine display")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/IntuitionEngine")
	fmt.Println("License: GPLv3 or later")
}

type playerOptions struct {
	source      string
	libraryDir  string
	loop        bool
	debug       bool
	list        bool
	version     bool
	headless    bool
	fullscreen  bool
	scale       int
	async       bool
	latency     int
	stall       int
	strict      bool
	suppress    bool
	tileBudget  int
	memory      int
	metricsAddr string
}

func parsePlayerFlags(args []string) (playerOptions, error) {
	var opts playerOptions

	flagSet := flag.NewFlagSet("reelplay", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&opts.libraryDir, "dir", "", "Library directory searched for .reel files")
	flagSet.BoolVar(&opts.loop, "loop", false, "Loop playback")
	flagSet.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flagSet.BoolVar(&opts.list, "list", false, "List the library catalog and exit")
	flagSet.BoolVar(&opts.version, "version", false, "Print version and compiled features")
	flagSet.BoolVar(&opts.headless, "headless", false, "Run without a window")
	flagSet.BoolVar(&opts.fullscreen, "fullscreen", false, "Start fullscreen")
	flagSet.IntVar(&opts.scale, "scale", 3, "Window scale factor (1-6)")
	flagSet.BoolVar(&opts.async, "async", false, "Read the container on background goroutines")
	flagSet.IntVar(&opts.latency, "latency", 0, "Simulated backing-store latency in transfer polls per read")
	flagSet.IntVar(&opts.stall, "stall", defaultMaxStallTicks, "Ticks a prefetch may be late before aborting")
	flagSet.BoolVar(&opts.strict, "strict", false, "Abort on the first corrupt frame or audio chunk")
	flagSet.BoolVar(&opts.suppress, "suppress-audio", false, "Silence the next audio chunk after a corrupt frame")
	flagSet.IntVar(&opts.tileBudget, "tile-budget", 0, "Tiles decoded per tick (0 = unbounded)")
	flagSet.IntVar(&opts.memory, "memory", defaultMemoryBudget, "Working memory budget in bytes (0 = unbounded)")
	flagSet.StringVar(&opts.metricsAddr, "metrics", "", "Serve Prometheus metrics on this address")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: reelplay [flags] [file.reel|handle]")
		fmt.Println("Without a source the library is shown as a menu.")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.Usage()
		}
		return opts, err
	}
	opts.source = flagSet.Arg(0)

	if opts.scale < MIN_SCALE || opts.scale > MAX_SCALE {
		return opts, fmt.Errorf("scale must be %d-%d", MIN_SCALE, MAX_SCALE)
	}
	if opts.latency < 0 || opts.stall < 0 || opts.tileBudget < 0 || opts.memory < 0 {
		return opts, errors.New("numeric flags must not be negative")
	}
	// A path to a file plays from its directory.
	if opts.source != "" && opts.libraryDir == "" {
		if info, err := os.Stat(opts.source); err == nil && !info.IsDir() {
			opts.libraryDir = filepath.Dir(opts.source)
			opts.source = filepath.Base(opts.source)
		}
	}
	if opts.libraryDir == "" {
		opts.libraryDir = "."
	}
	return opts, nil
}

func transportFactory(opts playerOptions) TransportFactory {
	base := NewDirectTransport
	if opts.async {
		base = NewBackgroundTransport
	}
	if opts.latency == 0 {
		return base
	}
	return func(src ReelSource) Transport {
		return NewLatencyTransport(base(src), FixedLatency(opts.latency))
	}
}

func engineConfig(opts playerOptions, logger *slog.Logger, metrics *ReelMetrics) EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.MaxStallTicks = opts.stall
	cfg.Strict = opts.strict
	cfg.SuppressAudioOnCorruptFrame = opts.suppress
	cfg.TileBudget = opts.tileBudget
	cfg.MemoryBudget = opts.memory
	cfg.Transport = transportFactory(opts)
	cfg.Logger = logger
	cfg.Metrics = metrics
	return cfg
}

func printCatalog(lib *ReelLibrary) error {
	entries, err := lib.Catalog()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No reels found.")
		return nil
	}
	for _, e := range entries {
		if e.Err != nil {
			fmt.Printf("  %-24s  unreadable: %v\n", e.Handle, e.Err)
			continue
		}
		audio := ""
		if e.Audio {
			audio = " +audio"
		}
		fmt.Printf("  %-24s  %-16s %5d frames  %s%s\n", e.Handle, e.Title, e.Frames, e.Duration, audio)
	}
	return nil
}

func main() {
	opts, err := parsePlayerFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if opts.version {
		printFeatures()
		return
	}

	lib := NewReelLibrary(opts.libraryDir)
	if opts.list {
		if err := printCatalog(lib); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	boilerPlate()

	reg := prometheus.NewRegistry()
	metrics := NewReelMetrics(reg)

	backend := VIDEO_BACKEND_EBITEN
	if opts.headless {
		backend = VIDEO_BACKEND_HEADLESS
	}
	output, err := NewVideoOutput(backend)
	if err != nil {
		fmt.Printf("Failed to initialize video: %v\n", err)
		os.Exit(1)
	}
	if err := output.SetDisplayConfig(DisplayConfig{
		Width:       REEL_MAX_TILES_X * TILE_WIDTH,
		Height:      REEL_MAX_TILES_Y * TILE_HEIGHT,
		Scale:       opts.scale,
		RefreshRate: defaultTickRate,
		Fullscreen:  opts.fullscreen,
	}); err != nil {
		fmt.Printf("Failed to configure video: %v\n", err)
		os.Exit(1)
	}

	ring := NewSampleRing(AUDIO_OUTPUT_RATE)
	var drain AudioDrain
	player, err := NewOtoPlayer(AUDIO_OUTPUT_RATE)
	if err != nil {
		logger.Warn("audio unavailable, playing silent", "error", err)
	} else {
		player.SetupPlayer(ring)
		player.Start()
		defer player.Close()
		drain = player
	}

	screen := NewTileScreen(output)
	cfg := engineConfig(opts, logger, metrics)
	cfg.TickRate = output.GetRefreshRate()
	engine := NewReelEngine(cfg, screen, ring, lib)
	engine.Init()

	var menu *ReelMenu
	if opts.source == "" {
		entries, err := lib.Catalog()
		if err != nil {
			fmt.Printf("Error reading library: %v\n", err)
			os.Exit(1)
		}
		menu = NewReelMenu(entries)
	}

	if err := output.Start(); err != nil {
		fmt.Printf("Failed to start video: %v\n", err)
		os.Exit(1)
	}
	defer output.Close()

	if menu == nil {
		if err := engine.Play(opts.source, opts.loop); err != nil {
			fmt.Printf("Error playing %s: %v\n", opts.source, err)
			os.Exit(1)
		}
		st := engine.Status()
		fmt.Printf("Playing %q (%d frames)\n", st.Title, st.FrameCount)
	} else {
		fmt.Printf("%d reels in %s\n", menu.Len(), opts.libraryDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host := NewPlayerHost(PlayerHostConfig{
		ExitWhenDone: true,
		MetricsAddr:  opts.metricsAddr,
		Registry:     reg,
		Terminal:     opts.headless,
		Logger:       logger,
		Menu:         menu,
		Loop:         opts.loop,
	}, engine, screen, output, drain)

	if err := host.Run(ctx); err != nil {
		fmt.Printf("\nPlayback ended: %v\n", err)
		os.Exit(1)
	}
}

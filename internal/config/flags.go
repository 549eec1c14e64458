package config

import "flag"

var (
	flagConfig        = flag.String("config", "", "Path to config file")
	flagDebug         = flag.Bool("debug", false, "Enable debug logging")
	flagVoxelsPerUnit = flag.Float64("voxels-per-unit", 0, "Voxels per world unit")
	flagNoMerge       = flag.Bool("no-merge", false, "Disable greedy quad merging")
	flagPalette       = flag.String("palette", "", "Palette override image")
	flagParallel      = flag.Bool("parallel", false, "Mesh the six sweep directions concurrently")
	flagLogFile       = flag.String("log-file", "", "Write logs to this file")
	flagAssetDir      = flag.String("asset-dir", "", "Extra asset search directory (highest priority)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagVoxelsPerUnit > 0 {
		cfg.Import.VoxelsPerUnit = float32(*flagVoxelsPerUnit)
	}
	if *flagNoMerge {
		cfg.Import.OptimizeMesh = false
	}
	if *flagPalette != "" {
		cfg.Import.PaletteOverride = *flagPalette
	}
	if *flagParallel {
		cfg.Import.ParallelMesh = true
	}
	if *flagAssetDir != "" {
		cfg.Assets.SearchPaths = append(cfg.Assets.SearchPaths, *flagAssetDir)
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}

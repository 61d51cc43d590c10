// snowland is the wallpaper engine daemon: it owns the engine control
// loop and serves the instance socket a control panel (snowlandctl or
// a GUI) connects to. Grounded on cmd/sand/main.go's kong wiring and
// mux_server.go's ServeUnix/waitForShutdown lifecycle.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/banksean/snowland/internal/daemon"
	"github.com/banksean/snowland/internal/logging"
	"github.com/banksean/snowland/internal/platform/headless"
)

// CLI is the daemon's own flag surface - base directory for persisted
// module state, an optional config file, the log file/level, and the
// render size the headless renderer reports: everything else about its
// run is driven over the instance socket.
type CLI struct {
	BaseDir  string `placeholder:"<dir>" help:"directory to persist the module list in (defaults to the OS cache dir)"`
	Config   string `placeholder:"<path>" help:"YAML file overriding the socket directory, persistence path, and frame pacing"`
	LogFile  string `placeholder:"<path>" help:"log file path (empty logs JSON to stderr)"`
	LogLevel string `default:"info" placeholder:"<debug|info|warn|error>" help:"logging level"`
	Width    int32  `default:"1920" help:"render target width reported to modules until a real platform backend overrides it"`
	Height   int32  `default:"1080" help:"render target height reported to modules until a real platform backend overrides it"`
}

func defaultBaseDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "snowland")
	}
	return filepath.Join(dir, "snowland")
}

func main() {
	var cli CLI
	kong.Parse(&cli, kong.Description("Run the snowland wallpaper engine daemon."))

	if cli.BaseDir == "" {
		cli.BaseDir = defaultBaseDir()
	}

	logger, err := logging.Setup(logging.Options{Level: cli.LogLevel, LogFile: cli.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "snowland: failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	fileCfg, err := daemon.LoadFileConfig(cli.Config)
	if err != nil {
		slog.Error("snowland: failed to load config file", "path", cli.Config, "error", err)
		os.Exit(1)
	}
	fileCfg.Apply()

	ctx := context.Background()
	renderer := headless.New(ctx, cli.Width, cli.Height, fileCfg.FramePacing)
	fonts := headless.NewFontFactory()

	d := daemon.New(cli.BaseDir, renderer, fonts)
	d.PersistencePathOverride = fileCfg.PersistencePath
	if err := d.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "snowland: daemon exited with error", "error", err)
		os.Exit(1)
	}
}

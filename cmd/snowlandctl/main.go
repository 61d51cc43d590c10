// snowlandctl is the control-panel stand-in: a CLI that drives a
// running snowland daemon over its instance socket, issuing the same
// messages a GUI control panel would. Grounded on cmd/sand/main.go's
// kong wiring, swapped onto the snowland protocol.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	completion "github.com/jotaen/kong-completion"

	"github.com/banksean/snowland/internal/logging"
)

// Context carries the flags and parser handle every subcommand's Run
// needs. KongContext lets DocCmd print the full command tree as
// markdown without constructing a second parser.
type Context struct {
	Instance    int
	LogLevel    string
	KongContext *kong.Context
}

// CLI is the full command surface: config get/set, modules
// ls/add/rm/mv, displays ls, daemon start/stop/status, version, doc.
type CLI struct {
	Instance int    `default:"0" help:"daemon instance number to talk to; 0 means the lowest-numbered one running"`
	LogLevel string `default:"warn" placeholder:"<debug|info|warn|error>" help:"logging level for snowlandctl itself"`

	Config   ConfigCmd   `cmd:"" help:"get or set a single module's configuration"`
	Modules  ModulesCmd  `cmd:"" help:"list, add, remove, or reorder modules"`
	Displays DisplaysCmd `cmd:"" help:"list display topology as the daemon currently sees it"`
	Daemon   DaemonCmd   `cmd:"" help:"start, stop, or check the status of the snowland daemon"`
	Version  VersionCmd  `cmd:"" help:"print version information"`
	Doc      DocCmd      `cmd:"" help:"print complete command help formatted as markdown"`
}

func defaultSocketDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "snowland")
	}
	return filepath.Join(dir, "snowland")
}

const description = `Drive a running snowland wallpaper daemon: inspect and edit its
module list and display topology, or manage the daemon process itself.`

func main() {
	var cli CLI

	parser := kong.Must(&cli,
		kong.Configuration(kongyaml.Loader, filepath.Join(defaultSocketDir(), "snowlandctl.yaml")),
		kong.Description(description))

	// Registers a hidden "completion" command that prints shell init
	// scripts, predicting flag/arg values via posener/complete.
	completion.Register(parser)

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if _, logErr := logging.Setup(logging.Options{Level: cli.LogLevel}); logErr != nil {
		fmt.Fprintf(os.Stderr, "snowlandctl: failed to initialize logging: %v\n", logErr)
		os.Exit(1)
	}

	runErr := kctx.Run(&Context{Instance: cli.Instance, LogLevel: cli.LogLevel, KongContext: kctx})
	kctx.FatalIfErrorf(runErr)
}

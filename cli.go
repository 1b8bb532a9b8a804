package main

import (
	"strings"

	"github.com/alecthomas/kong"

	"reality/emu/log"
)

type mode byte

const (
	replayMode  mode = iota // Replay a bus trace
	versionMode             // Show version
)

type (
	CLI struct {
		Replay  Replay  `cmd:"" help:"Replay a bus access trace against a fresh machine. (default command)" default:"true"`
		Version Version `cmd:"" help:"Show version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Replay struct {
		TracePath string `arg:"" name:"/path/to/trace.json" help:"${trace_help}" required:"true" type:"existingfile"`

		Standard string `name:"standard" help:"Video standard (NTSC or PAL), overrides config." default:""`
		Peek     bool   `name:"peek" help:"Replay reads side-effect free."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"trace_help": "JSON file of recorded bus accesses to replay.",
	"log_help":   "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("reality"),
		kong.Description("Nintendo 64 memory bus and RCP peripheral core."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = replayMode
	}

	log.EnableDebugModules(log.ModuleMask(cfg.Log))
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
`
	ctx.Stdout.Write([]byte(loggingHelp))
	for _, m := range log.ModuleNames() {
		ctx.Stdout.Write([]byte("    - " + m + "\n"))
	}
	ctx.Stdout.Write([]byte("\n  As a special case, 'all' enables all logs.\n"))
	return nil
}

// logModMask parses a comma-separated module list into a module mask.
type logModMask log.ModuleMask

func (m *logModMask) UnmarshalText(text []byte) error {
	for _, modname := range strings.Split(string(text), ",") {
		if modname == "all" {
			*m |= logModMask(log.ModuleMaskAll)
		} else if mod, found := log.ModuleByName(modname); found {
			*m |= logModMask(mod.Mask())
		} else {
			log.ModEmu.Fatalf("invalid module name: %s", modname)
		}
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"reality/emu"
	"reality/emu/log"
)

const version = "0.1.0"

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case versionMode:
		fmt.Printf("reality %s\n", version)
	case replayMode:
		cfg := emu.LoadConfigOrDefault()
		for _, name := range cfg.General.LogModules {
			if mod, ok := log.ModuleByName(name); ok {
				log.EnableDebugModules(mod.Mask())
			}
		}
		checkf(replay(cfg, cli.Replay), "replay failed")
	}
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s: %s\n", fmt.Sprintf(format, args...), err)
	os.Exit(1)
}

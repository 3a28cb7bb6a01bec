// Package main implements the djitrace CLI tool.
//
// The djitrace tool runs the Djit+ vector-clock race analyzer over recorded
// event traces and helps wire the runtime into instrumented projects:
//
//	djitrace replay trace.txt    # Replay a recorded event trace
//	djitrace check [dir]         # Verify a module wires the djit runtime
//
// Replay consumes the text trace format (see internal/djit/trace): one event
// per line in the rd/wr/acq/rel/fork/join notation, with optional var/lock
// watch-set declarations. Races are reported as they are detected, and the
// final vector-clock state can be dumped for post-mortem analysis.
//
// This is the CLI entry point for the standalone tool.
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "replay":
		replayCommand(os.Args[2:])
	case "check":
		checkCommand(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("djitrace version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`djitrace - Djit+ vector-clock race detector

USAGE:
    djitrace <command> [arguments]

COMMANDS:
    replay     Replay a recorded event trace through the analyzer
    check      Verify that a module wires the djit runtime
    version    Show version information
    help       Show this help message

EXAMPLES:
    # Replay a trace, reporting races and the final clock state
    djitrace replay -dump trace.txt

    # Replay in demo-table mode: one clock-table row per event
    djitrace replay -table trace.txt

    # Replay with the strict watch-set policy (only declared vars count)
    djitrace replay -watch trace.txt

    # Check that the module in the current directory requires the runtime
    djitrace check .
`)
}

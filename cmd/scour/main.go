package main

import (
	"fmt"
	"os"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	// Handle version flag before subcommand parsing
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-version") {
		fmt.Printf("scour version %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// Check for subcommand
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	subcommand := os.Args[1]
	switch subcommand {
	case "erase":
		runErase(os.Args[2:])
	case "aggregate":
		runAggregate(os.Args[2:])
	case "offsets":
		runOffsets(os.Args[2:])
	case "version":
		fmt.Printf("scour version %s (built %s, commit %s)\n", version, buildTime, gitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: scour <command> [options]

Commands:
  erase       Run one erasure enforcement pass (consume, extract, delete)
  aggregate   Run the daily medallion rollup (bronze -> silver -> gold)
  offsets     Show consumer group offsets and backlog for the request topic
  version     Print version information

Run 'scour <command> --help' for more information on a command.`)
}

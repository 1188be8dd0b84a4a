// Command julie is the polyglot code-intelligence server's entrypoint:
// index a workspace, serve its MCP tools over stdio, or inspect/manage the
// workspace registry, using a flat command-switch CLI (manual --flag
// parsing, dual human/--json output, non-zero exit codes on failure).
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "index":
		runIndex(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "workspace":
		runWorkspace(os.Args[2:])
	case "version":
		fmt.Printf("julie %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: julie <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  index      Index a directory as the primary workspace")
	fmt.Println("  serve      Start the MCP server over stdio")
	fmt.Println("  workspace  Inspect or manage the workspace registry")
	fmt.Println("  version    Print version")
	fmt.Println("  help       Show this help message")
}

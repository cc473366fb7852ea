// cmd/healthctl/main.go — CLI root. Dispatches to subcommand handlers.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: healthctl <stats|list|reset|delete|process> [options]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "stats":
		runStats(os.Args[2:])
	case "list":
		runList(os.Args[2:])
	case "reset":
		runReset(os.Args[2:])
	case "delete":
		runDelete(os.Args[2:])
	case "process":
		runProcess(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %q\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Usage: healthctl <stats|list|reset|delete|process> [options]")
		os.Exit(1)
	}
}

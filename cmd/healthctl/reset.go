// cmd/healthctl/reset.go — healthctl reset subcommand.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
)

func runReset(args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "API base URL")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: healthctl reset [--server url] <job_id>")
		os.Exit(1)
	}
	jobID := fs.Arg(0)

	if err := newClient(*server).do(http.MethodPost, "/api/admin/retry-queue/"+jobID+"/reset", nil, nil); err != nil {
		fmt.Fprintf(os.Stderr, "reset: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("job %s reset to pending\n", jobID)
}

// cmd/healthctl/delete.go — healthctl delete subcommand.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
)

func runDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "API base URL")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: healthctl delete [--server url] <job_id>")
		os.Exit(1)
	}
	jobID := fs.Arg(0)

	if err := newClient(*server).do(http.MethodDelete, "/api/admin/retry-queue/"+jobID, nil, nil); err != nil {
		fmt.Fprintf(os.Stderr, "delete: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("job %s deleted\n", jobID)
}

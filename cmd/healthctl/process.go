// cmd/healthctl/process.go — healthctl process subcommand.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
)

func runProcess(args []string) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "API base URL")
	batch := fs.Int("batch", 3, "jobs to drain in this pass")
	_ = fs.Parse(args)

	var result struct {
		Processed int `json:"processed"`
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}
	body := map[string]int{"batch_size": *batch}
	if err := newClient(*server).do(http.MethodPost, "/api/admin/retry-queue/process", body, &result); err != nil {
		fmt.Fprintf(os.Stderr, "process: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("processed: %d\n", result.Processed)
	fmt.Printf("succeeded: %d\n", result.Succeeded)
	fmt.Printf("failed:    %d\n", result.Failed)
}

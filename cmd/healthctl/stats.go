// cmd/healthctl/stats.go — healthctl stats subcommand.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "API base URL")
	_ = fs.Parse(args)

	var stats domain.RetryStats
	if err := newClient(*server).do(http.MethodGet, "/api/admin/retry-queue/stats", nil, &stats); err != nil {
		fmt.Fprintf(os.Stderr, "stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("pending:    %d\n", stats.Pending)
	fmt.Printf("processing: %d\n", stats.Processing)
	fmt.Printf("completed:  %d\n", stats.Completed)
	fmt.Printf("failed:     %d\n", stats.Failed)
	fmt.Printf("total:      %d\n", stats.Total)
}

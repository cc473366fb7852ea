// cmd/healthctl/list.go — healthctl list subcommand.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/mi3lix9/health-monitor-360-ig/internal/domain"
)

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	server := fs.String("server", "http://localhost:8080", "API base URL")
	status := fs.String("status", "all", "filter: all|pending|processing|completed|failed")
	page := fs.Int("page", 1, "1-based page")
	pageSize := fs.Int("page-size", 10, "jobs per page")
	_ = fs.Parse(args)

	q := url.Values{}
	q.Set("status", *status)
	q.Set("page", fmt.Sprint(*page))
	q.Set("page_size", fmt.Sprint(*pageSize))

	var resp struct {
		Items []domain.RetryJob `json:"items"`
		Total int64             `json:"total"`
	}
	if err := newClient(*server).do(http.MethodGet, "/api/admin/retry-queue?"+q.Encode(), nil, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "list: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("total: %d\n", resp.Total)
	for _, job := range resp.Items {
		lastErr := ""
		if job.LastError != nil {
			lastErr = *job.LastError
		}
		fmt.Printf("%s  %-10s  attempts=%d/%d  next_retry_at=%s  reading=%s  %s\n",
			job.ID, job.Status, job.Attempts, job.MaxAttempts,
			job.NextRetryAt.Format("2006-01-02T15:04:05Z07:00"),
			job.ReadingID, lastErr)
	}
}

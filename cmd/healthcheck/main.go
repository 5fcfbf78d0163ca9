// Package main provides a fast status probe for a running apiluck
// instance, usable from the shell or as a container health check.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Stats mirrors the /api/stats fields this probe prints.
type Stats struct {
	Version          string `json:"version"`
	Uptime           string `json:"uptime"`
	Ready            bool   `json:"ready"`
	SessionsStored   int64  `json:"sessionsStored"`
	ConnectedClients int    `json:"connectedClients"`
	ModelLoaded      bool   `json:"modelLoaded"`
	ModelStale       bool   `json:"modelStale"`
	Ingest           struct {
		Polls           int64 `json:"polls"`
		FetchErrors     int64 `json:"fetchErrors"`
		Committed       int64 `json:"committed"`
		Duplicates      int64 `json:"duplicates"`
		Malformed       int64 `json:"malformed"`
		LastCommitMilli int64 `json:"lastCommitMilli"`
	} `json:"ingest"`
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8080", "Base URL of the service")
	timeout := flag.Duration("timeout", 2*time.Second, "Probe timeout")
	quiet := flag.Bool("quiet", false, "Suppress output, exit code only")
	flag.Parse()

	client := &http.Client{Timeout: *timeout}

	stats, err := fetchStats(client, *addr)
	if err != nil {
		report(*quiet, colorRed, "offline: %v", err)
		os.Exit(1)
	}
	if !stats.Ready {
		report(*quiet, colorYellow, "starting")
		os.Exit(1)
	}

	line := fmt.Sprintf("ready %s up:%s sessions:%d committed:%d clients:%d",
		stats.Version, stats.Uptime, stats.SessionsStored, stats.Ingest.Committed, stats.ConnectedClients)
	if stats.ModelStale {
		line += " model:stale"
	} else if stats.ModelLoaded {
		line += " model:loaded"
	}
	report(*quiet, colorGreen, "%s", line)
}

func fetchStats(client *http.Client, base string) (*Stats, error) {
	resp, err := client.Get(strings.TrimRight(base, "/") + "/api/stats")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func report(quiet bool, color, format string, args ...any) {
	if quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if useColors() {
		fmt.Println(color + msg + colorReset)
		return
	}
	fmt.Println(msg)
}

func useColors() bool {
	return os.Getenv("NO_COLOR") == "" && os.Getenv("TERM") != "dumb"
}

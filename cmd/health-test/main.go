package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Services  struct {
		Database struct {
			Status string `json:"status"`
			Driver string `json:"driver"`
			Error  string `json:"error,omitempty"`
		} `json:"database"`
	} `json:"services"`
}

type MetaResponse struct {
	Categories  []string `json:"categories"`
	Departments []string `json:"departments"`
}

type check struct {
	name string
	path string
	fn   func(body []byte) error
}

func main() {
	base := "http://localhost:8080"
	if port := os.Getenv("PORT"); port != "" {
		base = "http://localhost:" + port
	}
	if len(os.Args) > 1 {
		base = strings.TrimRight(os.Args[1], "/")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	checks := []check{
		{"health", "/health", checkHealth},
		{"catalog", "/api/v1/meta", checkMeta},
		{"metrics", "/metrics", checkMetrics},
	}

	failed := 0
	for _, c := range checks {
		fmt.Printf("🔍 %s: %s%s\n", c.name, base, c.path)
		if err := run(client, base+c.path, c.fn); err != nil {
			fmt.Printf("❌ %s failed: %v\n", c.name, err)
			failed++
			continue
		}
		fmt.Printf("✅ %s passed\n", c.name)
	}

	if failed > 0 {
		fmt.Printf("❌ %d of %d checks failed\n", failed, len(checks))
		os.Exit(1)
	}
	fmt.Println("✅ All checks passed!")
}

func run(client *http.Client, url string, fn func([]byte) error) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return fn(body)
}

func checkHealth(body []byte) error {
	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("status is %q", health.Status)
	}
	db := health.Services.Database
	if db.Status != "ok" {
		return fmt.Errorf("database (%s) is %q: %s", db.Driver, db.Status, db.Error)
	}
	fmt.Printf("   Version: %s, database: %s\n", health.Version, db.Driver)
	return nil
}

func checkMeta(body []byte) error {
	var meta MetaResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	if len(meta.Categories) == 0 || len(meta.Departments) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	return nil
}

func checkMetrics(body []byte) error {
	if !strings.Contains(string(body), "civicpulse_") {
		return fmt.Errorf("application metrics not exported")
	}
	return nil
}

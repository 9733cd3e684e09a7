// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/tabstash"
	"github.com/poiesic/tabstash/ai"
	"github.com/poiesic/tabstash/core"
	"github.com/poiesic/tabstash/importer"
)

func main() {
	app := &cli.App{
		Name:   "tabstash",
		Usage:  "Searchable archive for saved browser tabs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Bulk-import tabs from a file (one URL per line, optional tab-separated title)",
				ArgsUsage: "FILE",
				Action:    importCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Owner of the imported tabs",
						Required: true,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search saved tabs",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Search within this user's tabs",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
				),
			},
			{
				Name:   "stats",
				Usage:  "Show gateway and cache statistics",
				Action: statsCommand,
				Flags:  commonFlags(),
			},
			{
				Name:   "reembed",
				Usage:  "Recompute embeddings for all stored tabs",
				Action: reembedCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 50,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "summarizer-host",
			Usage: "Summarizer service host URL (defaults to embedding-host)",
		},
		&cli.StringFlag{
			Name:  "summarizer-model",
			Usage: "Summarizer model name",
			Value: "qwen2.5:3b",
		},
	}
}

func openStash(c *cli.Context) (*tabstash.Stash, error) {
	summarizerHost := c.String("summarizer-host")
	if summarizerHost == "" {
		summarizerHost = c.String("embedding-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithSummarizerHost(summarizerHost),
		ai.WithSummarizerModel(c.String("summarizer-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	stash, err := tabstash.Open(c.String("db"), tabstash.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return stash, nil
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one tabs file argument")
	}

	tabs, err := readTabsFile(c.Args().First())
	if err != nil {
		return err
	}
	if len(tabs) == 0 {
		return fmt.Errorf("no tabs found in %s", c.Args().First())
	}

	stash, err := openStash(c)
	if err != nil {
		return err
	}
	defer stash.Close()

	fmt.Fprintf(os.Stderr, "Importing %d tabs for %s\n", len(tabs), c.String("user"))

	jobID, err := stash.Import(c.String("user"), tabs, func(p importer.Progress) {
		fmt.Fprintf(os.Stderr, "\r%s: %d/%d (%d failed)",
			p.Phase, p.ProcessedTabs, p.TotalTabs, p.FailedTabs)
	})
	if err != nil {
		return fmt.Errorf("failed to submit import: %w", err)
	}

	progress, err := waitForImport(stash, jobID)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr)

	fmt.Printf("Job %s: %s\n", jobID, progress.Phase)
	fmt.Printf("  imported: %d, failed: %d\n", progress.SuccessfulTabs, progress.FailedTabs)
	for _, msg := range progress.Errors {
		fmt.Printf("  error: %s\n", msg)
	}
	if progress.Phase != importer.PhaseCompleted {
		return fmt.Errorf("import finished with failures")
	}
	return nil
}

func waitForImport(stash *tabstash.Stash, jobID string) (importer.Progress, error) {
	for {
		progress, err := stash.ImportProgress(jobID)
		if err != nil {
			return importer.Progress{}, err
		}
		if progress.Phase.Terminal() {
			return progress, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// readTabsFile parses a tabs file: one tab per line, URL optionally
// followed by a tab character and a title. Blank lines and #-comments are
// skipped.
func readTabsFile(path string) ([]core.NewTab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tabs []core.NewTab
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		url, title, _ := strings.Cut(line, "\t")
		tabs = append(tabs, core.NewTab{
			URL:   strings.TrimSpace(url),
			Title: strings.TrimSpace(title),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tabs, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("search query is required")
	}

	stash, err := openStash(c)
	if err != nil {
		return err
	}
	defer stash.Close()

	hits, err := stash.Search(context.Background(), query, c.String("user"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, hit := range hits {
		title := hit.Record.Title
		if title == "" {
			title = hit.Record.URL
		}
		fmt.Printf("%2d. %s (score %.4f)\n", i+1, title, hit.Score)
		fmt.Printf("    %s\n", hit.Record.URL)
		if hit.Record.Summary != "" {
			fmt.Printf("    %s\n", firstLine(hit.Record.Summary))
		}
	}
	return nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func statsCommand(c *cli.Context) error {
	stash, err := openStash(c)
	if err != nil {
		return err
	}
	defer stash.Close()

	gw := stash.Gateway()
	fmt.Println("Gateway:")
	for _, service := range gw.Services() {
		stats, err := gw.Stats(service)
		if err != nil {
			continue
		}
		fmt.Printf("  %-12s %d/%d dispatched in window, %d queued\n",
			service, stats.DispatchedInWindow, stats.Limit, stats.QueueLength)
	}

	cache := stash.CacheStats()
	fmt.Println("Embedding cache:")
	fmt.Printf("  entries: %d, hits: %d, misses: %d, hit rate: %.1f%%\n",
		cache.Size, cache.Hits, cache.Misses, cache.HitRate()*100)
	return nil
}

func reembedCommand(c *cli.Context) error {
	stash, err := openStash(c)
	if err != nil {
		return err
	}
	defer stash.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))

	start := time.Now()
	err = stash.Reembed(context.Background(), c.Int("batch-size"), func(done, total int) {
		fmt.Fprintf(os.Stderr, "\rProgress: %d/%d (%.1f%%)", done, total,
			float64(done)/float64(total)*100)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// Copyright 2025 Coverscope Labs
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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/coverscope/docintel"
	"github.com/coverscope/docintel/ai"
	"github.com/coverscope/docintel/core"
	"github.com/coverscope/docintel/pipeline"
)

func main() {
	app := &cli.App{
		Name:  "docintel",
		Usage: "Insurance document extraction and retrieval pipeline",
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
				Name:      "process",
				Usage:     "Run the extraction pipeline over a document",
				ArgsUsage: "<file>",
				Action:    processCommand,
				Flags:     append(dbFlags(), providerFlags()...),
			},
			{
				Name:      "reprocess",
				Usage:     "Clear a document's derived data and run the pipeline again",
				ArgsUsage: "<file>",
				Action:    reprocessCommand,
				Flags: append(append(dbFlags(), providerFlags()...),
					&cli.Uint64Flag{
						Name:     "id",
						Usage:    "Document ID to reprocess",
						Required: true,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Semantic search over processed documents",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(append(dbFlags(), providerFlags()...),
					&cli.StringFlag{
						Name:  "records",
						Usage: "Comma-separated document IDs to search (default: all extracted documents)",
					},
					&cli.BoolFlag{
						Name:  "balanced",
						Usage: "Guarantee a fixed result quota per document",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Result count for single-document search",
						Value: 5,
					},
				),
			},
			{
				Name:   "list",
				Usage:  "List documents by processing status",
				Action: listCommand,
				Flags: append(append(dbFlags(), providerFlags()...),
					&cli.StringFlag{
						Name:  "status",
						Usage: "Status filter (pending, processing, completed, needs_review, failed)",
						Value: "completed",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			Value:   "./docintel_db",
		},
	}
}

func providerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "completion-host",
			Usage: "LLM completion service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "completion-model",
			Usage: "Completion model name",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL (defaults to completion-host)",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Provider API token",
			Value:   "none",
			EnvVars: []string{"DOCINTEL_TOKEN"},
		},
	}
}

func openDatabase(c *cli.Context) (*docintel.Database, error) {
	embeddingHost := c.String("embedding-host")
	if embeddingHost == "" {
		embeddingHost = c.String("completion-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithCompletionHost(c.String("completion-host")),
		ai.WithCompletionModel(c.String("completion-model")),
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithToken(c.String("token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return docintel.NewDatabase(c.String("db"), docintel.WithAIConfig(aiConfig))
}

func processCommand(c *cli.Context) error {
	ctx := context.Background()

	filePath := c.Args().First()
	if filePath == "" {
		return fmt.Errorf("document file path is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	doc, err := db.Documents().AddDocument(ctx, &core.Document{
		FileName: filepath.Base(filePath),
	})
	if err != nil {
		return fmt.Errorf("failed to register document: %w", err)
	}

	orchestrator, err := db.NewOrchestrator(
		newFileBlobStore(filePath),
		newPlainTextExtractor(),
	)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer orchestrator.Release()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Document: %s (id %d)\n\n", doc.FileName, doc.Id)

	outcome, err := orchestrator.ProcessDocument(ctx, doc.Id)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	printOutcome(outcome)
	return nil
}

func reprocessCommand(c *cli.Context) error {
	ctx := context.Background()

	filePath := c.Args().First()
	if filePath == "" {
		return fmt.Errorf("document file path is required")
	}
	documentID := core.ID(c.Uint64("id"))

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	orchestrator, err := db.NewOrchestrator(
		newFileBlobStore(filePath),
		newPlainTextExtractor(),
	)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer orchestrator.Release()

	if err := orchestrator.ReprocessDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to queue reprocessing: %w", err)
	}

	outcome, err := orchestrator.ProcessDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("reprocessing failed: %w", err)
	}

	printOutcome(outcome)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("search query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	recordIDs, err := resolveRecordIDs(ctx, db, c.String("records"))
	if err != nil {
		return err
	}

	retriever, err := db.NewRetriever()
	if err != nil {
		return fmt.Errorf("failed to build retriever: %w", err)
	}

	hits, err := retriever.Search(ctx, query, recordIDs, c.Bool("balanced"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(hits))
	for i, hit := range hits {
		fmt.Printf("%d: doc %d p%d-%d [%0.3f] %s\n",
			i, hit.RecordId, hit.PageStart, hit.PageEnd, hit.Score, firstLine(hit.Text))
	}
	return nil
}

func listCommand(c *cli.Context) error {
	ctx := context.Background()

	status, err := parseStatus(c.String("status"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	docs, err := db.Documents().ListDocumentsByStatus(ctx, status)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	fmt.Printf("%d documents with status %s\n", len(docs), status)
	for _, doc := range docs {
		line := fmt.Sprintf("%d: %s (%s)", doc.Id, doc.FileName, doc.InsertedAt.Format("2006-01-02 15:04"))
		if doc.FailureReason != "" {
			line += " - " + doc.FailureReason
		}
		fmt.Println(line)
	}
	return nil
}

// resolveRecordIDs parses the --records flag, defaulting to every
// document that has extracted data.
func resolveRecordIDs(ctx context.Context, db *docintel.Database, flag string) ([]core.ID, error) {
	if flag != "" {
		parts := strings.Split(flag, ",")
		ids := make([]core.ID, 0, len(parts))
		for _, part := range parts {
			raw, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid document ID %q: %w", part, err)
			}
			ids = append(ids, core.ID(raw))
		}
		return ids, nil
	}

	var ids []core.ID
	for _, status := range []core.DocumentStatus{core.StatusCompleted, core.StatusNeedsReview} {
		docs, err := db.Documents().ListDocumentsByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		for _, doc := range docs {
			ids = append(ids, doc.Id)
		}
	}
	return ids, nil
}

func parseStatus(name string) (core.DocumentStatus, error) {
	for _, status := range []core.DocumentStatus{
		core.StatusPending, core.StatusProcessing, core.StatusCompleted,
		core.StatusNeedsReview, core.StatusFailed,
	} {
		if status.String() == strings.ToLower(name) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("invalid status %q: must be one of pending, processing, completed, needs_review, failed", name)
}

func printOutcome(outcome *pipeline.ProcessingOutcome) {
	fmt.Printf("Status:     %s\n", outcome.Status)
	fmt.Printf("Confidence: %0.2f\n", outcome.Confidence)
	fmt.Printf("Chunks:     %d\n", outcome.ChunkCount)
	if len(outcome.Categories) > 0 {
		fmt.Printf("Coverages:  %s\n", strings.Join(outcome.Categories, ", "))
	}
	for category, reason := range outcome.CategoryFailures {
		fmt.Printf("Failed:     %s (%s)\n", category, reason)
	}
	for _, msg := range outcome.Validation.Errors {
		fmt.Printf("Error:      %s\n", msg)
	}
	for _, msg := range outcome.Validation.Warnings {
		fmt.Printf("Warning:    %s\n", msg)
	}
}

func firstLine(text string) string {
	line := strings.TrimSpace(text)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	const maxLen = 100
	if len(line) > maxLen {
		line = line[:maxLen] + "..."
	}
	return line
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

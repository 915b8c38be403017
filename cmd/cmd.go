// Package cmd provides CLI commands for the dorm assistant.
//
// Commands:
//   - serve: HTTP API server with SSE streaming
//   - index: chunk and embed documents into the vector store
//   - version: show version information
//
// Signal handling and graceful shutdown are implemented via context
// cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the main entry point for the dormra CLI.
func Execute() error {
	logger := initLogger()
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe(logger)
	case "index":
		return runIndex(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// initLogger builds the process logger. DEBUG in the environment (any value)
// enables debug level.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

// runVersion displays version information.
func runVersion() {
	fmt.Printf("dormra %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		fmt.Println("GEMINI_API_KEY: configured")
	} else {
		fmt.Println("GEMINI_API_KEY: not set")
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("dormra - UGA housing resident assistant chatbot")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dormra serve       Start the HTTP API server")
	fmt.Println("  dormra index       Chunk and embed documents into the vector store")
	fmt.Println("  dormra version     Show version information")
	fmt.Println("  dormra help        Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required: Gemini API key")
	fmt.Println("  DATABASE_URL       Optional: overrides postgres_* config values")
	fmt.Println("  DEBUG              Optional: enable debug logging")
}

// Package main provides the lightweight entry point for the PSI indicator MCP server.
// This version requires no external databases: reference data comes from a
// bundle file and batches are stored in SQLite.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/psi-indicator-engine/internal/config"
	"github.com/psi-indicator-engine/internal/mcp"
)

func main() {
	// Load lightweight configuration
	cfg := config.LoadLiteConfig()

	// stdout carries the MCP protocol, so progress goes to stderr
	log.SetOutput(os.Stderr)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Reference bundle: %s", cfg.ReferenceFile)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	server, err := mcp.NewLiteServer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	log.Println("PSI indicator MCP server (lite) stopped")
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/shopmall-mcp/internal/app"
	"github.com/dshills/shopmall-mcp/internal/config"
	"github.com/dshills/shopmall-mcp/internal/httpapi"
	"github.com/dshills/shopmall-mcp/internal/logging"
	"github.com/dshills/shopmall-mcp/internal/mcp"
	"github.com/dshills/shopmall-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("Shopmall Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	// Log startup info to stderr (stdout reserved for MCP protocol)
	log.SetOutput(os.Stderr)
	log.Printf("Shopmall Server v%s starting...", version)

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Set up graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shop, err := app.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer func() {
		if err := shop.Close(); err != nil {
			log.Printf("Close error: %v", err)
		}
	}()

	var serve func(context.Context) error
	switch cfg.Transport.Mode {
	case config.TransportHTTP:
		gin.SetMode(gin.ReleaseMode)
		srv := httpapi.New(shop)
		serve = func(ctx context.Context) error { return srv.Serve(ctx, cfg.Transport.HTTPAddr) }
	default:
		srv := mcp.NewServer(shop)
		serve = func(ctx context.Context) error {
			log.Println("MCP server ready, listening on stdio...")
			return srv.Serve(ctx)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Returning for any reason ends the signal wait below
		defer stop()
		return serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down gracefully...")
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server error: %v", err)
		_ = shop.Close()
		os.Exit(1)
	}
	log.Println("Server stopped")
}

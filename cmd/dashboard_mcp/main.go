// Package main runs the team condition MCP server over stdio (for local agent use).
// The same tools are mounted on the main service at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/2beens/teamcondition/internal"
	"github.com/2beens/teamcondition/internal/config"

	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	// stdout carries the MCP protocol
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secrets, err := config.LoadSecrets(ctx)
	if err != nil {
		log.Fatalf("load secrets: %v", err)
	}
	if missing := secrets.MissingFor(cfg); len(missing) > 0 {
		log.Fatalf("%s store needs env vars: %s", cfg.Store, strings.Join(missing, ", "))
	}

	server, err := internal.NewServer(ctx, internal.NewServerParams{
		Config:      cfg,
		Secrets:     secrets,
		VersionInfo: "stdio",
	})
	if err != nil {
		log.Fatalf("new server: %v", err)
	}

	if err := server.RunMCPStdio(ctx); err != nil {
		log.Fatal(err)
	}
}

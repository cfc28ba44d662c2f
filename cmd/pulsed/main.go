package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/adlens/pulse/internal/broker"
	"github.com/adlens/pulse/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (built-in defaults when empty)")
	host := flag.String("host", "", "Override listen host")
	port := flag.Int("port", 0, "Override listen port")
	token := flag.String("token", "", "Override auth token")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *token != "" {
		cfg.Server.Token = *token
	}

	hub := broker.NewHub()
	server := broker.NewServer(hub, cfg.Server.Token)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := broker.NewGenerator(hub, cfg.Generator.Tick)
	gen.Start(ctx)

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	if err := broker.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mnohosten/lsmkv/pkg/httpserver"
	"github.com/mnohosten/lsmkv/pkg/kvstore"
)

func main() {
	host := flag.String("host", "localhost", "Server host address")
	port := flag.Int("port", 8080, "Server port")
	dataDir := flag.String("data-dir", "./data", "Table directory for store persistence")
	memtableThreshold := flag.Int("memtable-threshold", kvstore.DefaultMemtableThreshold, "Memtable rotation threshold (distinct keys)")
	corsOrigin := flag.String("cors-origin", "*", "CORS allowed origin")
	adminSecret := flag.String("admin-secret", "", "Shared secret guarding /admin/* routes (empty leaves the admin API unauthenticated)")
	flag.Parse()

	storeConfig := kvstore.DefaultConfig(*dataDir)
	storeConfig.MemtableThreshold = *memtableThreshold

	store, err := kvstore.OpenConfig(storeConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = *host
	httpConfig.Port = *port
	httpConfig.AllowedOrigins = []string{*corsOrigin}
	httpConfig.AdminSecret = *adminSecret

	srv, err := httpserver.New(httpConfig, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("lsmkv server listening on %s:%d (data dir %s)\n", *host, *port, *dataDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

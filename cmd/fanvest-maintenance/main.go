package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/fanvest/internal/tools/maintenance"
)

func main() {
	log.SetFlags(0)
	cfg, err := maintenance.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := maintenance.Run(ctx, cfg, os.Stdout); err != nil {
		stop()
		log.Fatalf("maintenance: %v", err)
	}
}

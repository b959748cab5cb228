package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	fanvestcmd "github.com/louisbranch/fanvest/internal/cmd/fanvest"
)

func main() {
	cfg, err := fanvestcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[FANVEST] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fanvestcmd.Run(ctx, cfg); err != nil {
		stop()
		log.Fatalf("fanvest: %v", err)
	}
}

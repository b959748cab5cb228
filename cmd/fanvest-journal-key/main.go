package main

import (
	"flag"
	"log"
	"os"

	"github.com/louisbranch/fanvest/internal/tools/journalkey"
)

func main() {
	log.SetFlags(0)
	cfg, err := journalkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	if err := journalkey.Run(cfg, os.Stdout, nil); err != nil {
		log.Fatalf("generate key: %v", err)
	}
}

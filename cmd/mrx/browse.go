package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/calebeynon/MarketRuns-sub000/internal/ui"
)

func runBrowse() {
	cfg := loadConfig()

	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	wide, chat := inputFlags(fs, cfg)
	fs.Parse(os.Args[1:])

	exp, rep := buildFromFlags(cfg, *wide, *chat)
	if rep.Empty {
		fmt.Println("nothing to browse: extract produced no observations")
		os.Exit(0)
	}

	if err := ui.Run(exp); err != nil {
		log.Fatalf("browser error: %v", err)
	}
}

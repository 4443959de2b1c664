package main

import (
	"flag"
	"fmt"
	"os"
)

func runBuild() {
	cfg := loadConfig()

	fs := flag.NewFlagSet("build", flag.ExitOnError)
	wide, chat := inputFlags(fs, cfg)
	fs.Parse(os.Args[1:])

	exp, rep := buildFromFlags(cfg, *wide, *chat)

	fmt.Print(rep.String())
	if rep.Empty {
		fmt.Println("note: extract was structurally valid but produced no observations")
	}

	if len(rep.SessionErrors) > 0 && len(exp.Sessions()) == 0 {
		os.Exit(1)
	}
}

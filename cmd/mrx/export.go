package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/calebeynon/MarketRuns-sub000/internal/experiment"
	"github.com/calebeynon/MarketRuns-sub000/internal/export"
)

func runExport() {
	cfg := loadConfig()

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	wide, chat := inputFlags(fs, cfg)
	dbPath := fs.String("db", "", "Write sqlite export to this path (default: config db_path; '-' to skip)")
	csvPath := fs.String("csv", "", "Write CSV export to this path ('-' for stdout)")
	level := fs.String("level", "period", "CSV flatten level: period or round")
	fs.Parse(os.Args[1:])

	if *level != string(experiment.LevelPeriod) && *level != string(experiment.LevelRound) {
		fmt.Fprintf(os.Stderr, "error: -level must be %q or %q\n", experiment.LevelPeriod, experiment.LevelRound)
		os.Exit(1)
	}

	exp, rep := buildFromFlags(cfg, *wide, *chat)
	if rep.Empty {
		fmt.Println("note: empty build result; exports will contain no rows")
	}

	csvCfg := export.DefaultCSVConfig()
	if cfg.NAString != "" {
		csvCfg.NAString = cfg.NAString
	}

	target := *dbPath
	if target == "" {
		target = cfg.DBPath
	}
	if target != "-" {
		st, err := export.Open(target)
		if err != nil {
			log.Fatalf("failed to open export database: %v", err)
		}
		defer st.Close()
		if err := st.SaveExperiment(exp, rep.BuildID); err != nil {
			log.Fatalf("sqlite export failed: %v", err)
		}
		n, _ := st.PeriodRowCount()
		fmt.Printf("sqlite: %s (%d period rows)\n", target, n)
	}

	if *csvPath == "" {
		return
	}
	out := os.Stdout
	if *csvPath != "-" {
		f, err := os.Create(*csvPath)
		if err != nil {
			log.Fatalf("failed to create CSV file: %v", err)
		}
		defer f.Close()
		out = f
	}

	var err error
	if *level == string(experiment.LevelRound) {
		err = export.WriteRoundCSV(out, exp.RoundRows(), csvCfg)
	} else {
		err = export.WritePeriodCSV(out, exp.PeriodRows(), csvCfg)
	}
	if err != nil {
		log.Fatalf("CSV export failed: %v", err)
	}
	if *csvPath != "-" {
		fmt.Printf("csv: %s (%s level)\n", *csvPath, *level)
	}
}

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/calebeynon/MarketRuns-sub000/internal/build"
	"github.com/calebeynon/MarketRuns-sub000/internal/config"
	"github.com/calebeynon/MarketRuns-sub000/internal/experiment"
	"github.com/calebeynon/MarketRuns-sub000/internal/extract"
	"github.com/calebeynon/MarketRuns-sub000/internal/logging"
)

// loadConfig loads the tool config or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logging.Init(config.DataDir()); err != nil {
		// Logging falls back to stderr; not fatal.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return cfg
}

// inputFlags registers the -wide/-chat flags shared by every command.
func inputFlags(fs *flag.FlagSet, cfg *config.Config) (wide, chat *string) {
	wide = fs.String("wide", cfg.WideCSV, "Wide per-participant CSV export")
	chat = fs.String("chat", cfg.ChatCSV, "Chat log CSV (optional)")
	return wide, chat
}

// buildFromFlags loads the inputs and runs a full build, or fatals on
// fatal errors (missing input file, unusable wide schema).
func buildFromFlags(cfg *config.Config, widePath, chatPath string) (*experiment.Experiment, *build.Report) {
	if widePath == "" {
		fmt.Fprintln(os.Stderr, "error: no wide CSV given (use -wide or set wide_csv in config)")
		os.Exit(1)
	}

	table, err := extract.LoadTableFile(widePath)
	if err != nil {
		log.Fatalf("failed to load wide extract: %v", err)
	}

	var chat []extract.ChatRow
	if chatPath != "" {
		chat, err = extract.LoadChatFile(chatPath)
		if err != nil {
			log.Fatalf("failed to load chat log: %v", err)
		}
	}

	b := build.New(build.Options{
		ExperimentName:     cfg.Experiment,
		DefaultSessionCode: cfg.SessionCode,
		ChannelsPerRound:   cfg.ChannelsPerRound,
	})
	exp, rep, err := b.Build(table, chat)
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}
	return exp, rep
}

// countObservations walks the graph and tallies entities.
type graphCounts struct {
	sessions, segments, rounds, periods, observations, groups, chat, sells int
}

func countGraph(exp *experiment.Experiment) graphCounts {
	var c graphCounts
	for _, s := range exp.Sessions() {
		c.sessions++
		for _, name := range s.SegmentNames() {
			seg := s.Segment(name)
			c.segments++
			c.groups += len(seg.Groups())
			for _, r := range seg.Rounds() {
				c.rounds++
				c.chat += len(r.Chat)
				for _, p := range r.Periods() {
					c.periods++
					c.observations += len(p.Labels())
					c.sells += p.SellerCount()
				}
			}
		}
	}
	return c
}
